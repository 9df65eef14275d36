package logic

import (
	"github.com/felixgeelhaar/exlogic/internal/biomech"
	"github.com/felixgeelhaar/exlogic/internal/expr"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// Reference paths into a compiled definition.
const (
	RefAngleTopDeg       = "thresholds.repAngleTopDeg"
	RefAngleBottomDeg    = "thresholds.repAngleBottomDeg"
	RefProgressTopRaw    = "thresholds.repProgressTopRaw"
	RefProgressBottomRaw = "thresholds.repProgressBottomRaw"
	RefMinVisibility     = "guardrail.minVisibility"
)

// WristRiseNorm is the shoulder-to-wrist rise, in normalized image units,
// that counts as a full rep for the wrist_height signal.
const WristRiseNorm = 0.25

var progressMap = expr.RangeMap{
	Type:      expr.MapInvertAngleRange,
	TopRef:    RefProgressTopRaw,
	BottomRef: RefProgressBottomRaw,
}

var (
	shoulders = []landmark.Index{landmark.LeftShoulder, landmark.RightShoulder}
	wrists    = []landmark.Index{landmark.LeftWrist, landmark.RightWrist}
)

// sideTriplets returns the left and right joint triplets for an angle signal.
func sideTriplets(s Signal) ([2][3]landmark.Index, bool) {
	var out [2][3]landmark.Index
	left, right := angleKeys(s)
	for i, key := range []string{left, right} {
		t, ok := biomech.TripletFor(key)
		if !ok {
			return out, false
		}
		out[i] = [3]landmark.Index{t.A, t.B, t.C}
	}
	return out, true
}

// ProgressExpr builds the rep progress tree for a signal. It is never
// evaluated here.
func ProgressExpr(s Signal) expr.Node {
	if !s.AngleBased() {
		rise := expr.Minus(
			expr.AvgCoord{Axis: expr.AxisY, Landmarks: shoulders},
			expr.AvgCoord{Axis: expr.AxisY, Landmarks: wrists},
		)
		return expr.Mapped{
			Expr: expr.Minus(expr.C(1), expr.Clamp01(expr.Over(rise, expr.C(WristRiseNorm)))),
			Map:  progressMap,
		}
	}

	sides, ok := sideTriplets(s)
	if !ok {
		sides, _ = sideTriplets(DefaultSignal)
	}
	span := expr.Minus(expr.R(RefAngleTopDeg), expr.R(RefAngleBottomDeg))
	args := make([]expr.Node, 0, len(sides))
	for _, t := range sides {
		args = append(args, expr.Clamp01(expr.Over(
			expr.Minus(expr.Angle(t), expr.R(RefAngleBottomDeg)),
			span,
		)))
	}
	return expr.Mapped{Expr: expr.Mean(args...), Map: progressMap}
}
