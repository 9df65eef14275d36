package logic

import (
	"math"

	"github.com/felixgeelhaar/exlogic/internal/biomech"
)

// Threshold defaults.
const (
	DefaultBottomDeg     = 60.0
	DefaultTopDeg        = 170.0
	DegenerateWidenDeg   = 30.0
	MaxArmSyncDiffDeg    = 25.0
	RepProgressTopRaw    = 0.0
	RepProgressBottomRaw = 1.0
)

// Thresholds are the numeric bounds referenced by the progress expression.
type Thresholds struct {
	RepAngleTopDeg       float64 `json:"repAngleTopDeg"`
	RepAngleBottomDeg    float64 `json:"repAngleBottomDeg"`
	RepProgressTopRaw    float64 `json:"repProgressTopRaw"`
	RepProgressBottomRaw float64 `json:"repProgressBottomRaw"`
	MaxArmSyncDiffDeg    float64 `json:"maxArmSyncDiffDeg"`
}

// angleKeys returns the left and right snapshot keys for an angle signal.
func angleKeys(s Signal) (string, string) {
	return string(s) + "_left", string(s) + "_right"
}

// DeriveThresholds computes the angle range from the signal's left and right
// angles in both poses. Undefined samples are skipped. With no usable samples
// the defaults apply; a zero-width range is widened on both sides.
func DeriveThresholds(s Signal, start, end biomech.Snapshot) Thresholds {
	bottom, top := DefaultBottomDeg, DefaultTopDeg

	if s.AngleBased() {
		left, right := angleKeys(s)
		var samples []float64
		for _, snap := range []biomech.Snapshot{start, end} {
			for _, k := range []string{left, right} {
				if v, ok := snap.Angles[k]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
					samples = append(samples, v)
				}
			}
		}
		if len(samples) > 0 {
			bottom, top = samples[0], samples[0]
			for _, v := range samples[1:] {
				bottom = math.Min(bottom, v)
				top = math.Max(top, v)
			}
		}
	}

	if top == bottom {
		bottom, top = bottom-DegenerateWidenDeg, top+DegenerateWidenDeg
	}

	return Thresholds{
		RepAngleTopDeg:       top,
		RepAngleBottomDeg:    bottom,
		RepProgressTopRaw:    RepProgressTopRaw,
		RepProgressBottomRaw: RepProgressBottomRaw,
		MaxArmSyncDiffDeg:    MaxArmSyncDiffDeg,
	}
}
