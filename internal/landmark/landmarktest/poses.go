// Package landmarktest provides reference poses for tests.
package landmarktest

import "github.com/felixgeelhaar/exlogic/internal/landmark"

// Visibility assigned to every point of the reference poses.
const Visibility = 0.9

// left-side image coordinates; the right side mirrors them around x = 0.5.
var leftSide = map[landmark.Index][2]float64{
	landmark.LeftEyeInner:  {0.51, 0.13},
	landmark.LeftEye:       {0.52, 0.13},
	landmark.LeftEyeOuter:  {0.53, 0.13},
	landmark.LeftEar:       {0.55, 0.14},
	landmark.MouthLeft:     {0.52, 0.18},
	landmark.LeftShoulder:  {0.60, 0.30},
	landmark.LeftElbow:     {0.72, 0.42},
	landmark.LeftWrist:     {0.70, 0.25},
	landmark.LeftPinky:     {0.71, 0.23},
	landmark.LeftIndex:     {0.70, 0.22},
	landmark.LeftThumb:     {0.69, 0.23},
	landmark.LeftHip:       {0.58, 0.55},
	landmark.LeftKnee:      {0.64, 0.72},
	landmark.LeftAnkle:     {0.60, 0.90},
	landmark.LeftHeel:      {0.59, 0.92},
	landmark.LeftFootIndex: {0.65, 0.93},
}

var mirror = map[landmark.Index]landmark.Index{
	landmark.LeftEyeInner:  landmark.RightEyeInner,
	landmark.LeftEye:       landmark.RightEye,
	landmark.LeftEyeOuter:  landmark.RightEyeOuter,
	landmark.LeftEar:       landmark.RightEar,
	landmark.MouthLeft:     landmark.MouthRight,
	landmark.LeftShoulder:  landmark.RightShoulder,
	landmark.LeftElbow:     landmark.RightElbow,
	landmark.LeftWrist:     landmark.RightWrist,
	landmark.LeftPinky:     landmark.RightPinky,
	landmark.LeftIndex:     landmark.RightIndex,
	landmark.LeftThumb:     landmark.RightThumb,
	landmark.LeftHip:       landmark.RightHip,
	landmark.LeftKnee:      landmark.RightKnee,
	landmark.LeftAnkle:     landmark.RightAnkle,
	landmark.LeftHeel:      landmark.RightHeel,
	landmark.LeftFootIndex: landmark.RightFootIndex,
}

// CurlTop is a symmetric, upright, fully visible pose with both elbows flexed
// (elbow ≈ 38.29°, shoulder ≈ 49.57°, hip ≈ 155.99°, knee ≈ 148.03°). It passes
// every validator check.
func CurlTop() landmark.Set {
	var s landmark.Set
	s[landmark.Nose] = landmark.Landmark{X: 0.5, Y: 0.15, Visibility: Visibility}
	for left, xy := range leftSide {
		s[left] = landmark.Landmark{X: xy[0], Y: xy[1], Visibility: Visibility}
		s[mirror[left]] = landmark.Landmark{X: 1 - xy[0], Y: xy[1], Visibility: Visibility}
	}
	return s
}

// CurlBottom is CurlTop with both forearms lowered (elbow ≈ 141.34°).
func CurlBottom() landmark.Set {
	s := CurlTop()
	Move(&s, landmark.LeftWrist, 0.74, 0.60)
	Move(&s, landmark.LeftIndex, 0.74, 0.63)
	Move(&s, landmark.LeftPinky, 0.75, 0.62)
	Move(&s, landmark.LeftThumb, 0.73, 0.62)
	return s
}

// Move sets the image position of i and mirrors it onto the opposite side
// when i is a left-side landmark.
func Move(s *landmark.Set, i landmark.Index, x, y float64) {
	s[i].X, s[i].Y = x, y
	if r, ok := mirror[i]; ok {
		s[r].X, s[r].Y = 1-x, y
	}
}

// Slice returns the set as estimator-shaped output.
func Slice(s landmark.Set) []landmark.Landmark {
	out := make([]landmark.Landmark, landmark.Count)
	copy(out, s[:])
	return out
}
