package exitcode

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/felixgeelhaar/exlogic/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// UnitsFailed indicates at least one exercise unit failed or was rejected
	UnitsFailed = 3

	// SchemaViolation indicates a compiled artifact failed its schema check
	SchemaViolation = 4

	// DriftDetected indicates on-disk definitions differ from a fresh compile
	DriftDetected = 5

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// Report writes err with the meaning of its exit code to w and returns the
// code. A nil error reports nothing.
func Report(w io.Writer, err error) int {
	code := DetermineExitCode(err)
	if code == Success {
		return code
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	fmt.Fprintf(w, "exit %d: %s\n", code, GetExitCodeDescription(code))
	return code
}

// DetermineExitCode maps an error to an exit code by its outermost error code,
// falling back to message inspection for errors raised by cobra.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch errors.CodeOf(err) {
	case errors.ErrCodeDriftDetected:
		return DriftDetected
	case errors.ErrCodeSchemaValidation:
		return SchemaViolation
	case errors.ErrCodeUnitFailed:
		return UnitsFailed
	case errors.ErrCodeInteractiveParallel, errors.ErrCodeConfigInvalid:
		return UsageError
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") ||
		strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "required flag") ||
		strings.Contains(errMsg, "flags in the group") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case UnitsFailed:
		return "One or more exercise units failed"
	case SchemaViolation:
		return "Schema validation failed"
	case DriftDetected:
		return "Definition drift detected"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
