// Package validate is the rule-based pose quality gate. Every check runs on
// every call; issues accumulate in check order and are returned as data.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/felixgeelhaar/exlogic/internal/biomech"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// Thresholds used by the quality gate.
const (
	VisibilityThreshold        = 0.6
	SymmetryToleranceDeg       = 15.0
	TorsoTiltMaxDeg            = 45.0
	HipShoulderAlignmentMaxDeg = 20.0
)

// Issue describes one violated constraint.
type Issue struct {
	Message string `json:"message"`
}

// Result is the outcome of validating one pose. OK is true iff Issues is empty.
type Result struct {
	OK     bool    `json:"ok"`
	Issues []Issue `json:"issues,omitempty"`
}

// Summary returns PASS or the issue messages joined with "; ".
func (r Result) Summary() string {
	if r.OK {
		return "PASS"
	}
	msgs := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		msgs[i] = issue.Message
	}
	return strings.Join(msgs, "; ")
}

type bounds struct{ lo, hi float64 }

// Physiological ranges per joint group.
var angleRanges = map[string]bounds{
	"elbow":    {10, 175},
	"knee":     {20, 170},
	"hip":      {20, 170},
	"shoulder": {20, 170},
}

var requiredPoints = []landmark.Index{
	landmark.LeftShoulder, landmark.RightShoulder,
	landmark.LeftElbow, landmark.RightElbow,
	landmark.LeftWrist, landmark.RightWrist,
	landmark.LeftHip, landmark.RightHip,
	landmark.LeftKnee, landmark.RightKnee,
	landmark.LeftAnkle, landmark.RightAnkle,
}

var rangeChecks = []struct{ key, group string }{
	{"elbow_left", "elbow"},
	{"elbow_right", "elbow"},
	{"knee_left", "knee"},
	{"knee_right", "knee"},
	{"hip_left", "hip"},
	{"hip_right", "hip"},
	{"shoulder_left", "shoulder"},
	{"shoulder_right", "shoulder"},
}

var symmetryPairs = [][2]string{
	{"elbow_left", "elbow_right"},
	{"knee_left", "knee_right"},
	{"hip_left", "hip_right"},
	{"shoulder_left", "shoulder_right"},
}

// Pose runs all five checks against a snapshot and its landmarks.
func Pose(snap biomech.Snapshot, set *landmark.Set) Result {
	var issues []Issue
	issues = append(issues, checkVisibility(set)...)
	issues = append(issues, checkAngleRanges(snap)...)
	issues = append(issues, checkSymmetry(snap)...)
	issues = append(issues, checkTorso(snap)...)

	return Result{OK: len(issues) == 0, Issues: issues}
}

func checkVisibility(set *landmark.Set) []Issue {
	var low []string
	for _, i := range requiredPoints {
		if v := set.At(i).Visibility; v < VisibilityThreshold {
			low = append(low, fmt.Sprintf("%s(%.2f)", i.Name(), v))
		}
	}
	if len(low) == 0 {
		return nil
	}
	return []Issue{{Message: fmt.Sprintf("Visibility below %g: %s", VisibilityThreshold, strings.Join(low, ", "))}}
}

func checkAngleRanges(snap biomech.Snapshot) []Issue {
	var issues []Issue
	for _, c := range rangeChecks {
		b := angleRanges[c.group]
		v, ok := snap.Angles[c.key]
		if !ok {
			v = math.NaN()
		}
		if math.IsNaN(v) || v < b.lo || v > b.hi {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("%s angle %.1f° out of range [%.1f, %.1f]", c.key, v, b.lo, b.hi),
			})
		}
	}
	return issues
}

func checkSymmetry(snap biomech.Snapshot) []Issue {
	var issues []Issue
	for _, p := range symmetryPairs {
		diff := math.Abs(snap.Angles[p[0]] - snap.Angles[p[1]])
		// A NaN difference is already reported by the range check.
		if diff > SymmetryToleranceDeg {
			issues = append(issues, Issue{
				Message: fmt.Sprintf("Symmetry: %s vs %s differ by %.1f° (>%.1f°)", p[0], p[1], diff, SymmetryToleranceDeg),
			})
		}
	}
	return issues
}

func checkTorso(snap biomech.Snapshot) []Issue {
	var issues []Issue
	if tilt := snap.Orientation[biomech.TorsoTilt]; tilt > TorsoTiltMaxDeg {
		issues = append(issues, Issue{
			Message: fmt.Sprintf("Torso tilt %.1f° exceeds %.1f°", tilt, TorsoTiltMaxDeg),
		})
	}
	if align := snap.Orientation[biomech.HipShoulderAlignment]; align > HipShoulderAlignmentMaxDeg {
		issues = append(issues, Issue{
			Message: fmt.Sprintf("Hip/shoulder alignment %.1f° exceeds %.1f°", align, HipShoulderAlignmentMaxDeg),
		})
	}
	return issues
}
