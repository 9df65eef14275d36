package exitcode

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/exlogic/internal/errors"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "drift",
			err:      errors.NewDriftError("squat", "aa", "bb"),
			expected: DriftDetected,
		},
		{
			name:     "schema violation nested in unit failure",
			err:      errors.Wrap(errors.ErrCodeUnitFailed, "unit", errors.NewSchemaValidationError("x", stderrors.New("bad"))),
			expected: UnitsFailed,
		},
		{
			name:     "bare schema violation",
			err:      fmt.Errorf("write: %w", errors.NewSchemaValidationError("x", stderrors.New("bad"))),
			expected: SchemaViolation,
		},
		{
			name:     "interactive parallel",
			err:      errors.New(errors.ErrCodeInteractiveParallel, "no"),
			expected: UsageError,
		},
		{
			name:     "cobra unknown flag",
			err:      stderrors.New("unknown flag: --bogus"),
			expected: UsageError,
		},
		{
			name:     "anything else",
			err:      stderrors.New("boom"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	for _, code := range []int{Success, GeneralError, UsageError, UnitsFailed, SchemaViolation, DriftDetected} {
		if GetExitCodeDescription(code) == "Unknown error" {
			t.Errorf("code %d has no description", code)
		}
	}
	if GetExitCodeDescription(99) != "Unknown error" {
		t.Error("expected unknown description for 99")
	}
}

func TestReportDescribesExitCode(t *testing.T) {
	var buf bytes.Buffer
	err := fmt.Errorf("compile: %w", errors.NewDriftError("squat", "aaa", "bbb"))

	if got := Report(&buf, err); got != DriftDetected {
		t.Fatalf("Report() = %d, want %d", got, DriftDetected)
	}
	out := buf.String()
	for _, want := range []string{"Error: compile: [COMPILE-003]", "exit 5: Definition drift detected"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	buf.Reset()
	if got := Report(&buf, nil); got != Success || buf.Len() != 0 {
		t.Errorf("Report(nil) = %d with output %q", got, buf.String())
	}
}
