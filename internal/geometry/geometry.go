// Package geometry computes angles, distances and line orientations between
// landmark points. All functions are pure.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// Point converts a landmark into a 3-D vector, dropping visibility.
func Point(l landmark.Landmark) r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y, Z: l.Z}
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b r3.Vec) r3.Vec {
	return r3.Scale(0.5, r3.Add(a, b))
}

// AngleAt returns the angle in degrees at vertex p2 between p2→p1 and p2→p3.
// It returns NaN when either vector has zero length.
func AngleAt(p1, p2, p3 r3.Vec) float64 {
	v1 := r3.Sub(p1, p2)
	v2 := r3.Sub(p3, p2)

	denom := r3.Norm(v1) * r3.Norm(v2)
	if denom == 0 {
		return math.NaN()
	}

	cos := r3.Dot(v1, v2) / denom
	cos = math.Max(-1, math.Min(1, cos))
	return degrees(math.Acos(cos))
}

// Distance is the Euclidean distance between p1 and p2.
func Distance(p1, p2 r3.Vec) float64 {
	return r3.Norm(r3.Sub(p1, p2))
}

// LineAngle is the angle in degrees of the vector p1→p2 against the +x axis,
// in (-180, 180].
func LineAngle(p1, p2 r3.Vec) float64 {
	v := r3.Sub(p2, p1)
	return degrees(math.Atan2(v.Y, v.X))
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
