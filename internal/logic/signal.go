package logic

import (
	"fmt"
	"sort"
	"strings"
)

// Signal is the body region that drives an exercise's rep progress.
type Signal string

const (
	SignalElbow       Signal = "elbow"
	SignalKnee        Signal = "knee"
	SignalHip         Signal = "hip"
	SignalShoulder    Signal = "shoulder"
	SignalAnkle       Signal = "ankle"
	SignalWristHeight Signal = "wrist_height"
)

// DefaultSignal is used when no override or keyword rule matches.
const DefaultSignal = SignalElbow

// Signals lists every known signal.
var Signals = []Signal{SignalElbow, SignalKnee, SignalHip, SignalShoulder, SignalAnkle, SignalWristHeight}

// Valid reports whether s is a known signal.
func (s Signal) Valid() bool {
	for _, known := range Signals {
		if s == known {
			return true
		}
	}
	return false
}

// AngleBased reports whether progress is measured from a joint angle rather
// than a vertical displacement.
func (s Signal) AngleBased() bool {
	return s != SignalWristHeight
}

// ParseSignal converts a name into a known Signal.
func ParseSignal(name string) (Signal, error) {
	s := Signal(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown signal %q", name)
	}
	return s, nil
}

// KeywordRule maps exercise-name keywords onto a signal.
type KeywordRule struct {
	Signal   Signal
	Keywords []string
}

// SignalRules is evaluated top to bottom; the first rule with a keyword
// contained in the lower-cased exercise name wins.
var SignalRules = []KeywordRule{
	{SignalKnee, []string{"squat", "lunge", "deadlift", "step", "split", "jerk", "snatch", "clean"}},
	{SignalHip, []string{"bridge", "plank", "hip", "glute", "thrust"}},
	{SignalElbow, []string{"curl", "press", "push", "dip", "extension"}},
	{SignalShoulder, []string{"raise", "fly", "row", "pull", "lift"}},
}

// Overrides maps a lower-cased exercise key to an explicit signal.
type Overrides map[string]Signal

// NewOverrides validates and normalizes a raw override table.
func NewOverrides(raw map[string]string) (Overrides, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Overrides, len(raw))
	for _, k := range keys {
		s, err := ParseSignal(raw[k])
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", k, err)
		}
		out[strings.ToLower(k)] = s
	}
	return out, nil
}

// HeuristicSignal applies SignalRules to an exercise name.
func HeuristicSignal(name string) Signal {
	n := strings.ToLower(name)
	for _, rule := range SignalRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(n, kw) {
				return rule.Signal
			}
		}
	}
	return DefaultSignal
}

// SelectSignal resolves the signal for an exercise: an override keyed by the
// lower-cased key takes precedence over the name heuristics.
func SelectSignal(key, name string, overrides Overrides) Signal {
	if s, ok := overrides[strings.ToLower(key)]; ok {
		return s
	}
	return HeuristicSignal(name)
}
