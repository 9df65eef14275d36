package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestAngleAt(t *testing.T) {
	tests := []struct {
		name       string
		p1, p2, p3 r3.Vec
		want       float64
	}{
		{"right angle", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 1, Y: 1}, 90},
		{"collinear", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 2}, 180},
		{"folded", r3.Vec{X: 2}, r3.Vec{}, r3.Vec{X: 1}, 0},
		{"forty five", r3.Vec{X: 1}, r3.Vec{}, r3.Vec{X: 1, Y: 1}, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AngleAt(tt.p1, tt.p2, tt.p3), 1e-9)
		})
	}
}

func TestAngleAtDegenerate(t *testing.T) {
	p := r3.Vec{X: 0.3, Y: 0.3}
	q := r3.Vec{X: 0.5, Y: 0.1}

	assert.True(t, math.IsNaN(AngleAt(p, p, q)), "p1 == p2")
	assert.True(t, math.IsNaN(AngleAt(q, p, p)), "p3 == p2")
}

func TestAngleAtSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vec := func() r3.Vec { return r3.Vec{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64()} }

	for i := 0; i < 500; i++ {
		p1, p2, p3 := vec(), vec(), vec()
		forward := AngleAt(p1, p2, p3)
		backward := AngleAt(p3, p2, p1)
		assert.InDelta(t, forward, backward, 1e-9)
		assert.False(t, math.IsNaN(forward))
	}
}

func TestAngleAtClampsRoundingError(t *testing.T) {
	// Nearly parallel vectors can push the cosine a hair past 1.
	a := AngleAt(r3.Vec{X: 1e-8, Y: 3e-8}, r3.Vec{}, r3.Vec{X: 3e-8, Y: 9e-8})
	assert.False(t, math.IsNaN(a))
	assert.InDelta(t, 0, a, 1e-3)
}

func TestDistanceAndLineAngle(t *testing.T) {
	assert.InDelta(t, 5, Distance(r3.Vec{}, r3.Vec{X: 3, Y: 4}), 1e-12)
	assert.InDelta(t, 0, LineAngle(r3.Vec{}, r3.Vec{X: 1}), 1e-12)
	assert.InDelta(t, 90, LineAngle(r3.Vec{}, r3.Vec{Y: 1}), 1e-12)
	assert.InDelta(t, 180, LineAngle(r3.Vec{X: 1}, r3.Vec{}), 1e-12)
	assert.InDelta(t, -45, LineAngle(r3.Vec{}, r3.Vec{X: 1, Y: -1}), 1e-12)
}

func TestMidpoint(t *testing.T) {
	m := Midpoint(r3.Vec{X: 0, Y: 2}, r3.Vec{X: 2, Y: 4})
	assert.Equal(t, r3.Vec{X: 1, Y: 3}, m)
}
