// Package logic compiles a pair of biomechanics snapshots into the
// declarative exercise definition consumed by the tracking runtime.
package logic

import (
	"fmt"

	"github.com/felixgeelhaar/exlogic/internal/biomech"
	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/expr"
	"github.com/felixgeelhaar/exlogic/internal/fsutil"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
)

// Exercise identifies the unit being compiled. Key is the stable source
// identifier (file stem or directory name) used for override lookup; Name is
// the display name the id and heuristics are derived from.
type Exercise struct {
	Key  string
	Name string
}

// label returns the name the definition id is built from.
func (e Exercise) label() string {
	if e.Name != "" {
		return e.Name
	}
	if e.Key != "" {
		return e.Key
	}
	return "exercise"
}

// Compile builds the definition for an exercise from its start and end
// snapshots. It fails only when the override table names an unknown signal
// or the assembled tree does not check.
func Compile(ex Exercise, start, end biomech.Snapshot, overrides Overrides) (*Definition, error) {
	name := ex.label()
	id := Sanitize(name)

	signal := SelectSignal(ex.Key, name, overrides)
	if !signal.Valid() {
		return nil, xerrors.NewInvalidSignalError(id, string(signal))
	}

	progress := ProgressExpr(signal)
	guardrail := BuildGuardrail(progress)

	def := &Definition{
		SchemaVersion: SchemaVersion,
		ID:            id,
		Guardrail:     guardrail,
		Thresholds:    DeriveThresholds(signal, start, end),
		RepCounter:    DefaultRepCounter(progress),
		Facts: map[string]expr.Node{
			FactBothVisible: expr.AllVisible{
				Landmarks:     expr.Landmarks(progress),
				MinVisibility: expr.R(RefMinVisibility),
			},
		},
		Messages: DefaultMessages(),
		Rules:    DefaultRules(),
		Comment:  fmt.Sprintf("Generated from exercises-json-only; signal=%s", signal),
		Signal:   signal,
	}

	if err := def.Check(); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeInvalidCapture,
			fmt.Sprintf("compiled definition for %s is malformed", id), err)
	}
	return def, nil
}

// BuildGuardrail derives the required landmark set from the points the
// progress tree reads, in canonical order.
func BuildGuardrail(progress expr.Node) Guardrail {
	idx := expr.Landmarks(progress)
	required := make([]string, len(idx))
	for i, v := range idx {
		required[i] = v.Name()
	}
	frame := make([]string, len(required))
	copy(frame, required)

	return Guardrail{
		Required:      required,
		FrameRequired: frame,
		MinVisibility: MinVisibility,
	}
}

// Check statically verifies every expression in the definition and the
// guardrail names.
func (d *Definition) Check() error {
	if d.RepCounter.Progress == nil {
		return fmt.Errorf("progress expression is missing")
	}
	if err := expr.Check(d.RepCounter.Progress, d.Resolve); err != nil {
		return fmt.Errorf("progress: %w", err)
	}
	for name, fact := range d.Facts {
		if err := expr.Check(fact, d.Resolve); err != nil {
			return fmt.Errorf("fact %s: %w", name, err)
		}
	}
	for _, n := range d.Guardrail.Required {
		if _, ok := landmark.Lookup(n); !ok {
			return fmt.Errorf("guardrail landmark %q is not in the vocabulary", n)
		}
	}
	if d.Thresholds.RepAngleTopDeg == d.Thresholds.RepAngleBottomDeg {
		return fmt.Errorf("degenerate angle thresholds")
	}
	return nil
}

// Encode renders the definition as indented JSON. Output is byte-stable for
// equal inputs.
func (d *Definition) Encode() ([]byte, error) {
	return fsutil.MarshalIndent(d)
}
