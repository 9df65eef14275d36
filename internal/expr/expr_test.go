package expr

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

func encode(t *testing.T, n Node) string {
	t.Helper()
	b, err := json.Marshal(n)
	require.NoError(t, err)
	return string(b)
}

func TestEncodeLeaves(t *testing.T) {
	assert.Equal(t, `{"const":1}`, encode(t, C(1)))
	assert.Equal(t, `{"const":0.25}`, encode(t, C(0.25)))
	assert.Equal(t, `{"ref":"thresholds.repAngleTopDeg"}`, encode(t, R("thresholds.repAngleTopDeg")))
}

func TestEncodeOperators(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			name: "sub",
			node: Minus(C(1), R("x")),
			want: `{"op":"sub","a":{"const":1},"b":{"ref":"x"}}`,
		},
		{
			name: "div",
			node: Over(C(1), C(2)),
			want: `{"op":"div","a":{"const":1},"b":{"const":2}}`,
		},
		{
			name: "clamp",
			node: Clamp01(R("v")),
			want: `{"op":"clamp","value":{"ref":"v"},"min":{"const":0},"max":{"const":1}}`,
		},
		{
			name: "avg",
			node: Mean(C(1), C(3)),
			want: `{"op":"avg","args":[{"const":1},{"const":3}]}`,
		},
		{
			name: "avgCoord",
			node: AvgCoord{Axis: AxisY, Landmarks: []landmark.Index{landmark.LeftWrist, landmark.RightWrist}},
			want: `{"op":"avgCoord","axis":"y","landmarks":["LEFT_WRIST","RIGHT_WRIST"]}`,
		},
		{
			name: "angleDeg2d",
			node: Angle([3]landmark.Index{landmark.LeftHip, landmark.LeftKnee, landmark.LeftAnkle}),
			want: `{"op":"angleDeg2d","a":"LEFT_HIP","b":"LEFT_KNEE","c":"LEFT_ANKLE"}`,
		},
		{
			name: "allVisible",
			node: AllVisible{Landmarks: []landmark.Index{landmark.Nose}, MinVisibility: R("guardrail.minVisibility")},
			want: `{"op":"allVisible","landmarks":["NOSE"],"minVisibility":{"ref":"guardrail.minVisibility"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encode(t, tt.node))
		})
	}
}

func TestMappedAddsMapMember(t *testing.T) {
	n := Mapped{
		Expr: Mean(C(1)),
		Map: RangeMap{
			Type:      MapInvertAngleRange,
			TopRef:    "thresholds.repProgressTopRaw",
			BottomRef: "thresholds.repProgressBottomRaw",
		},
	}

	got := encode(t, n)

	want := `{"op":"avg","args":[{"const":1}],"map":{"type":"invertAngleRange",` +
		`"topAngleMaxDegRef":"thresholds.repProgressTopRaw","bottomAngleMinDegRef":"thresholds.repProgressBottomRaw"}}`
	assert.Equal(t, want, got)
	assert.True(t, json.Valid([]byte(got)))
}

func TestMappedRejectsEmpty(t *testing.T) {
	_, err := json.Marshal(Mapped{})
	assert.Error(t, err)
}

func TestLandmarksDeduplicatesInCanonicalOrder(t *testing.T) {
	tree := Mean(
		Angle([3]landmark.Index{landmark.RightShoulder, landmark.RightElbow, landmark.RightWrist}),
		Angle([3]landmark.Index{landmark.LeftShoulder, landmark.LeftElbow, landmark.LeftWrist}),
		AvgCoord{Axis: AxisY, Landmarks: []landmark.Index{landmark.LeftWrist, landmark.RightShoulder}},
	)

	got := Landmarks(tree)

	want := []landmark.Index{
		landmark.LeftShoulder, landmark.RightShoulder,
		landmark.LeftElbow, landmark.RightElbow,
		landmark.LeftWrist, landmark.RightWrist,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Landmarks() mismatch (-want +got):\n%s", diff)
	}
}

func TestRefs(t *testing.T) {
	tree := Mapped{
		Expr: Over(Minus(R("a"), R("b")), R("a")),
		Map:  RangeMap{Type: MapInvertAngleRange, TopRef: "t", BottomRef: "b"},
	}
	assert.Equal(t, []string{"a", "b", "a"}, Refs(tree))
}

func TestCheck(t *testing.T) {
	known := map[string]bool{"thresholds.top": true, "thresholds.bottom": true}
	resolve := func(p string) bool { return known[p] }

	t.Run("valid", func(t *testing.T) {
		tree := Mapped{
			Expr: Clamp01(Over(Minus(Angle([3]landmark.Index{11, 13, 15}), R("thresholds.bottom")), R("thresholds.top"))),
			Map:  RangeMap{Type: MapInvertAngleRange, TopRef: "thresholds.top", BottomRef: "thresholds.bottom"},
		}
		assert.NoError(t, Check(tree, resolve))
	})

	t.Run("unresolved ref", func(t *testing.T) {
		err := Check(Minus(C(1), R("thresholds.missing")), resolve)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "thresholds.missing")
	})

	t.Run("unresolved map ref", func(t *testing.T) {
		tree := Mapped{Expr: C(1), Map: RangeMap{Type: MapInvertAngleRange, TopRef: "nope", BottomRef: "thresholds.bottom"}}
		assert.Error(t, Check(tree, resolve))
	})

	t.Run("landmark outside vocabulary", func(t *testing.T) {
		assert.Error(t, Check(AngleDeg2D{A: 0, B: 1, C: landmark.Index(landmark.Count)}, resolve))
	})

	t.Run("missing operand", func(t *testing.T) {
		assert.Error(t, Check(Sub{A: C(1)}, resolve))
	})

	t.Run("unknown axis", func(t *testing.T) {
		assert.Error(t, Check(AvgCoord{Axis: "w", Landmarks: []landmark.Index{0}}, resolve))
	})

	t.Run("empty avg", func(t *testing.T) {
		assert.Error(t, Check(Avg{}, resolve))
	})

	t.Run("nil tree", func(t *testing.T) {
		assert.Error(t, Check(nil, resolve))
	})
}
