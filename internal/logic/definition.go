package logic

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/exlogic/internal/expr"
)

// SchemaVersion of the compiled definition format.
const SchemaVersion = 1

// MinVisibility is the guardrail visibility floor.
const MinVisibility = 0.55

// Fact and message identifiers.
const (
	FactBothVisible        = "bothVisible"
	MessageNoPose          = "no_pose"
	MessageMoveBackVisible = "move_back_visible"
	MessageStageDown       = "stage_down"
	MessageStageUp         = "stage_up"
	MessageGood            = "good"
)

// Definition is the compiled artifact consumed by the tracking runtime.
type Definition struct {
	SchemaVersion int                  `json:"schemaVersion"`
	ID            string               `json:"id"`
	Guardrail     Guardrail            `json:"guardrail"`
	Thresholds    Thresholds           `json:"thresholds"`
	RepCounter    RepCounter           `json:"repCounter"`
	Facts         map[string]expr.Node `json:"facts"`
	Messages      Messages             `json:"messages"`
	Rules         []Rule               `json:"rules"`
	Comment       string               `json:"comment__auto_generated"`

	Signal Signal `json:"-"`
}

// Guardrail is the visibility precondition for tracking.
type Guardrail struct {
	Required      []string `json:"required"`
	FrameRequired []string `json:"frameRequired"`
	MinVisibility float64  `json:"minVisibility"`
}

type RepCounter struct {
	Version   int       `json:"version"`
	Mode      string    `json:"mode"`
	Progress  expr.Node `json:"progress"`
	Smoothing Smoothing `json:"smoothing"`
	Start     StartGate `json:"start"`
	Extremes  Extremes  `json:"extremes"`
	Quality   Quality   `json:"quality"`
}

type Smoothing struct {
	EMAAlpha float64 `json:"emaAlpha"`
}

type StartGate struct {
	LeaveBottomProgress float64 `json:"leaveBottomProgress"`
	MinUpVel            float64 `json:"minUpVel"`
}

type Extremes struct {
	TopProgressMin    float64 `json:"topProgressMin"`
	BottomProgressMax float64 `json:"bottomProgressMax"`
}

type Quality struct {
	WarnBadFraction   float64 `json:"warnBadFraction"`
	RejectBadFraction float64 `json:"rejectBadFraction"`
	MinRepMs          int     `json:"minRepMs"`
	MinDownMs         int     `json:"minDownMs"`
	MaxRepMs          int     `json:"maxRepMs"`
	SyncDelta         float64 `json:"syncDelta"`
	MaxSwayRatio      float64 `json:"maxSwayRatio"`
	MaxProgressVelAbs float64 `json:"maxProgressVelAbs"`
}

// Messages are the user-facing strings keyed by message id.
type Messages struct {
	NoPose          string `json:"no_pose"`
	MoveBackVisible string `json:"move_back_visible"`
	StageDown       string `json:"stage_down"`
	StageUp         string `json:"stage_up"`
	Good            string `json:"good"`
}

type Rule struct {
	Name       string     `json:"name"`
	Priority   int        `json:"priority"`
	Conditions Conditions `json:"conditions"`
	Event      Event      `json:"event"`
}

type Conditions struct {
	All []Condition `json:"all"`
}

type Condition struct {
	Fact     string `json:"fact"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type Event struct {
	Type   string      `json:"type"`
	Params EventParams `json:"params"`
}

type EventParams struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"messageId"`
	Priority  int    `json:"priority"`
}

// DefaultRepCounter returns the fixed counter tuning around a progress tree.
func DefaultRepCounter(progress expr.Node) RepCounter {
	return RepCounter{
		Version:   1,
		Mode:      "full_cycle",
		Progress:  progress,
		Smoothing: Smoothing{EMAAlpha: 0.30},
		Start:     StartGate{LeaveBottomProgress: 0.22, MinUpVel: 0.00025},
		Extremes:  Extremes{TopProgressMin: 0.8, BottomProgressMax: 0.18},
		Quality: Quality{
			WarnBadFraction:   0.15,
			RejectBadFraction: 0.30,
			MinRepMs:          1500,
			MinDownMs:         600,
			MaxRepMs:          9000,
			SyncDelta:         0.20,
			MaxSwayRatio:      0.14,
			MaxProgressVelAbs: 0.006,
		},
	}
}

// DefaultMessages returns the fixed message table.
func DefaultMessages() Messages {
	return Messages{
		NoPose:          "No pose detected.",
		MoveBackVisible: "Move back so required landmarks are visible.",
		StageDown:       "Move to top position.",
		StageUp:         "Return to start position.",
		Good:            "Good rep.",
	}
}

// DefaultRules returns the single visibility rule every definition carries.
func DefaultRules() []Rule {
	return []Rule{{
		Name:     "Required visible",
		Priority: 1000,
		Conditions: Conditions{All: []Condition{
			{Fact: FactBothVisible, Operator: "equal", Value: false},
		}},
		Event: Event{
			Type:   MessageMoveBackVisible,
			Params: EventParams{OK: false, MessageID: MessageMoveBackVisible, Priority: 1000},
		},
	}}
}

// Resolve reports whether a dotted path such as "thresholds.repAngleTopDeg"
// names a numeric member of the encoded definition.
func (d *Definition) Resolve(path string) bool {
	data, err := json.Marshal(struct {
		Guardrail  Guardrail  `json:"guardrail"`
		Thresholds Thresholds `json:"thresholds"`
	}{d.Guardrail, d.Thresholds})
	if err != nil {
		return false
	}
	var cur any
	if err := json.Unmarshal(data, &cur); err != nil {
		return false
	}
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		if cur, ok = m[part]; !ok {
			return false
		}
	}
	_, ok := cur.(float64)
	return ok
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Sanitize turns an exercise name into a lower snake-case identifier.
func Sanitize(name string) string {
	id := strings.ToLower(strings.Trim(nonAlnum.ReplaceAllString(name, "_"), "_"))
	if id == "" {
		return "exercise"
	}
	return id
}

// Slug is the kebab-case form of a sanitized identifier.
func Slug(id string) string {
	return strings.ReplaceAll(id, "_", "-")
}
