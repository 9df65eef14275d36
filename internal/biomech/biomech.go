// Package biomech derives a biomechanics snapshot (joint angles, limb ratios,
// torso orientation and average visibility) from one landmark set.
package biomech

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/felixgeelhaar/exlogic/internal/geometry"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// Orientation keys.
const (
	TorsoTilt            = "torso_tilt_deg"
	HipShoulderAlignment = "hip_shoulder_alignment_deg"
)

// ratioEpsilon floors limb-length denominators.
const ratioEpsilon = 1e-6

// Snapshot is the geometric fingerprint of one pose. Values are rounded for
// stable serialization; an undefined angle is NaN.
type Snapshot struct {
	Angles        map[string]float64
	Ratios        map[string]float64
	Orientation   map[string]float64
	VisibilityAvg float64
}

// Triplet names a joint angle measured at B between A and C.
type Triplet struct {
	Name    string
	A, B, C landmark.Index
}

// Triplets is the fixed joint table, left/right pairs per joint.
var Triplets = []Triplet{
	{"shoulder_left", landmark.LeftElbow, landmark.LeftShoulder, landmark.LeftHip},
	{"shoulder_right", landmark.RightElbow, landmark.RightShoulder, landmark.RightHip},
	{"elbow_left", landmark.LeftShoulder, landmark.LeftElbow, landmark.LeftWrist},
	{"elbow_right", landmark.RightShoulder, landmark.RightElbow, landmark.RightWrist},
	{"wrist_left", landmark.LeftElbow, landmark.LeftWrist, landmark.LeftIndex},
	{"wrist_right", landmark.RightElbow, landmark.RightWrist, landmark.RightIndex},
	{"neck_left", landmark.LeftHip, landmark.LeftShoulder, landmark.Nose},
	{"neck_right", landmark.RightHip, landmark.RightShoulder, landmark.Nose},
	{"torso_left", landmark.LeftKnee, landmark.LeftHip, landmark.LeftShoulder},
	{"torso_right", landmark.RightKnee, landmark.RightHip, landmark.RightShoulder},
	{"hip_left", landmark.LeftShoulder, landmark.LeftHip, landmark.LeftKnee},
	{"hip_right", landmark.RightShoulder, landmark.RightHip, landmark.RightKnee},
	{"knee_left", landmark.LeftHip, landmark.LeftKnee, landmark.LeftAnkle},
	{"knee_right", landmark.RightHip, landmark.RightKnee, landmark.RightAnkle},
	{"ankle_left", landmark.LeftKnee, landmark.LeftAnkle, landmark.LeftFootIndex},
	{"ankle_right", landmark.RightKnee, landmark.RightAnkle, landmark.RightFootIndex},
}

// TripletFor looks up a joint by angle key, e.g. "knee_left".
func TripletFor(name string) (Triplet, bool) {
	for _, t := range Triplets {
		if t.Name == name {
			return t, true
		}
	}
	return Triplet{}, false
}

type ratio struct {
	name           string
	numFrom, numTo landmark.Index
	denFrom, denTo landmark.Index
}

var ratios = []ratio{
	{"forearm_upperarm_left", landmark.LeftElbow, landmark.LeftWrist, landmark.LeftShoulder, landmark.LeftElbow},
	{"forearm_upperarm_right", landmark.RightElbow, landmark.RightWrist, landmark.RightShoulder, landmark.RightElbow},
	{"shin_thigh_left", landmark.LeftKnee, landmark.LeftAnkle, landmark.LeftHip, landmark.LeftKnee},
	{"shin_thigh_right", landmark.RightKnee, landmark.RightAnkle, landmark.RightHip, landmark.RightKnee},
}

// Extract computes the snapshot for one pose. Identical input always yields an
// identical snapshot.
func Extract(set *landmark.Set) Snapshot {
	pt := func(i landmark.Index) r3.Vec { return geometry.Point(set.At(i)) }

	angles := make(map[string]float64, len(Triplets))
	for _, t := range Triplets {
		angles[t.Name] = round(geometry.AngleAt(pt(t.A), pt(t.B), pt(t.C)), 2)
	}

	rs := make(map[string]float64, len(ratios))
	for _, r := range ratios {
		num := geometry.Distance(pt(r.numFrom), pt(r.numTo))
		den := math.Max(geometry.Distance(pt(r.denFrom), pt(r.denTo)), ratioEpsilon)
		rs[r.name] = round(num/den, 3)
	}

	midShoulder := geometry.Midpoint(pt(landmark.LeftShoulder), pt(landmark.RightShoulder))
	midHip := geometry.Midpoint(pt(landmark.LeftHip), pt(landmark.RightHip))
	// Image y grows downward, so straight up from mid-hip is -y.
	above := r3.Add(midHip, r3.Vec{Y: -1})
	tilt := geometry.AngleAt(above, midHip, midShoulder)

	shoulderLine := math.Abs(geometry.LineAngle(pt(landmark.LeftShoulder), pt(landmark.RightShoulder)))
	hipLine := math.Abs(geometry.LineAngle(pt(landmark.LeftHip), pt(landmark.RightHip)))

	visibility := make([]float64, landmark.Count)
	for i, l := range set {
		visibility[i] = l.Visibility
	}

	return Snapshot{
		Angles: angles,
		Ratios: rs,
		Orientation: map[string]float64{
			TorsoTilt:            round(tilt, 2),
			HipShoulderAlignment: round(math.Abs(shoulderLine-hipLine), 2),
		},
		VisibilityAvg: round(stat.Mean(visibility, nil), 3),
	}
}

func round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
