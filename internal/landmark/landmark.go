// Package landmark defines the canonical 33-point body landmark vocabulary
// produced by the pose estimator and the fixed-length landmark set type.
package landmark

import (
	"fmt"
	"strings"
)

// Count is the number of landmarks in every pose.
const Count = 33

// Index identifies one landmark within a Set.
type Index int

// Canonical landmark indices. The order is fixed by the pose model.
const (
	Nose Index = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

var names = [Count]string{
	"NOSE",
	"LEFT_EYE_INNER",
	"LEFT_EYE",
	"LEFT_EYE_OUTER",
	"RIGHT_EYE_INNER",
	"RIGHT_EYE",
	"RIGHT_EYE_OUTER",
	"LEFT_EAR",
	"RIGHT_EAR",
	"MOUTH_LEFT",
	"MOUTH_RIGHT",
	"LEFT_SHOULDER",
	"RIGHT_SHOULDER",
	"LEFT_ELBOW",
	"RIGHT_ELBOW",
	"LEFT_WRIST",
	"RIGHT_WRIST",
	"LEFT_PINKY",
	"RIGHT_PINKY",
	"LEFT_INDEX",
	"RIGHT_INDEX",
	"LEFT_THUMB",
	"RIGHT_THUMB",
	"LEFT_HIP",
	"RIGHT_HIP",
	"LEFT_KNEE",
	"RIGHT_KNEE",
	"LEFT_ANKLE",
	"RIGHT_ANKLE",
	"LEFT_HEEL",
	"RIGHT_HEEL",
	"LEFT_FOOT_INDEX",
	"RIGHT_FOOT_INDEX",
}

var byName = func() map[string]Index {
	m := make(map[string]Index, Count)
	for i, n := range names {
		m[n] = Index(i)
	}
	return m
}()

// Name returns the upper-case vocabulary name, e.g. LEFT_SHOULDER.
func (i Index) Name() string {
	if i < 0 || int(i) >= Count {
		return fmt.Sprintf("LANDMARK_%d", int(i))
	}
	return names[i]
}

// String implements fmt.Stringer.
func (i Index) String() string { return i.Name() }

// Lookup resolves a vocabulary name, case-insensitively.
func Lookup(name string) (Index, bool) {
	i, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	return i, ok
}

// Names returns every vocabulary name in canonical order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Landmark is one normalized anatomical point with the model's confidence
// that it is visible. X and Y are image-normalized; Y grows downward.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Set is a complete pose. Its length is fixed by the type.
type Set [Count]Landmark

// At returns the landmark at index i.
func (s *Set) At(i Index) Landmark {
	return s[i]
}

// FromSlice converts estimator output into a Set. Anything other than exactly
// Count points violates the estimator contract.
func FromSlice(points []Landmark) (Set, error) {
	var s Set
	if len(points) != Count {
		return s, fmt.Errorf("expected %d landmarks, got %d", Count, len(points))
	}
	copy(s[:], points)
	return s, nil
}
