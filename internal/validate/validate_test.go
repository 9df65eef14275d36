package validate

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/exlogic/internal/biomech"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
	"github.com/felixgeelhaar/exlogic/internal/landmark/landmarktest"
)

func snapshotOf(set landmark.Set) biomech.Snapshot {
	return biomech.Extract(&set)
}

func TestPosePasses(t *testing.T) {
	set := landmarktest.CurlTop()
	res := Pose(snapshotOf(set), &set)

	assert.True(t, res.OK)
	assert.Empty(t, res.Issues)
	assert.Equal(t, "PASS", res.Summary())
}

func TestVisibilityIsOneIssueListingOffenders(t *testing.T) {
	set := landmarktest.CurlTop()
	set[landmark.LeftKnee].Visibility = 0.42
	set[landmark.RightWrist].Visibility = 0.1
	set[landmark.Nose].Visibility = 0.0 // not a required point

	res := Pose(snapshotOf(set), &set)

	require.Len(t, res.Issues, 1)
	msg := res.Issues[0].Message
	assert.True(t, strings.HasPrefix(msg, "Visibility below 0.6: "), msg)
	assert.Contains(t, msg, "RIGHT_WRIST(0.10)")
	assert.Contains(t, msg, "LEFT_KNEE(0.42)")
	assert.NotContains(t, msg, "NOSE")
	assert.Less(t, strings.Index(msg, "RIGHT_WRIST"), strings.Index(msg, "LEFT_KNEE"), "offenders follow check order")
}

func TestAngleRangeAndNaN(t *testing.T) {
	snap := biomech.Snapshot{
		Angles: map[string]float64{
			"elbow_left": 5, "elbow_right": math.NaN(),
			"knee_left": 90, "knee_right": 90,
			"hip_left": 90, "hip_right": 90,
			"shoulder_left": 90, "shoulder_right": 171,
		},
		Orientation: map[string]float64{},
	}
	set := landmarktest.CurlTop()

	res := Pose(snap, &set)

	var rangeMsgs []string
	for _, is := range res.Issues {
		if strings.Contains(is.Message, "out of range") {
			rangeMsgs = append(rangeMsgs, is.Message)
		}
	}
	require.Len(t, rangeMsgs, 3)
	assert.Equal(t, "elbow_left angle 5.0° out of range [10.0, 175.0]", rangeMsgs[0])
	assert.Equal(t, "elbow_right angle NaN° out of range [10.0, 175.0]", rangeMsgs[1])
	assert.Equal(t, "shoulder_right angle 171.0° out of range [20.0, 170.0]", rangeMsgs[2])
}

func TestAllChecksAccumulate(t *testing.T) {
	snap := biomech.Snapshot{
		Angles: map[string]float64{
			"elbow_left": 30, "elbow_right": 60,
			"knee_left": 100, "knee_right": 100,
			"hip_left": 100, "hip_right": 100,
			"shoulder_left": 100, "shoulder_right": 100,
		},
		Orientation: map[string]float64{
			biomech.TorsoTilt:            50,
			biomech.HipShoulderAlignment: 25,
		},
	}
	set := landmarktest.CurlTop()
	set[landmark.LeftAnkle].Visibility = 0.2

	res := Pose(snap, &set)

	require.False(t, res.OK)
	require.Len(t, res.Issues, 4)
	assert.Contains(t, res.Issues[0].Message, "Visibility")
	assert.Equal(t, "Symmetry: elbow_left vs elbow_right differ by 30.0° (>15.0°)", res.Issues[1].Message)
	assert.Equal(t, "Torso tilt 50.0° exceeds 45.0°", res.Issues[2].Message)
	assert.Equal(t, "Hip/shoulder alignment 25.0° exceeds 20.0°", res.Issues[3].Message)
	assert.Equal(t, 3, strings.Count(res.Summary(), "; "))
}

func TestOKIffNoIssues(t *testing.T) {
	poses := []landmark.Set{landmarktest.CurlTop(), landmarktest.CurlBottom()}
	broken := landmarktest.CurlTop()
	broken[landmark.LeftHip].Visibility = 0
	poses = append(poses, broken)

	for _, set := range poses {
		res := Pose(snapshotOf(set), &set)
		assert.Equal(t, len(res.Issues) == 0, res.OK)
	}
}

func TestPoseIsRepeatable(t *testing.T) {
	set := landmarktest.CurlTop()
	set[landmark.LeftKnee].Visibility = 0.3
	snap := snapshotOf(set)

	assert.Equal(t, Pose(snap, &set), Pose(snap, &set))
}
