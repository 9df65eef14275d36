package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Exercise unit errors (UNIT-001 to UNIT-099)
	ErrCodeMissingReferenceImage ErrorCode = "UNIT-001"
	ErrCodePoseNotDetected       ErrorCode = "UNIT-002"
	ErrCodeMetadataInvalid       ErrorCode = "UNIT-003"

	// Schema errors (SCHEMA-001 to SCHEMA-099)
	ErrCodeSchemaValidation ErrorCode = "SCHEMA-001"
	ErrCodeSchemaLoad       ErrorCode = "SCHEMA-002"

	// Compiler errors (COMPILE-001 to COMPILE-099)
	ErrCodeInvalidSignal  ErrorCode = "COMPILE-001"
	ErrCodeInvalidCapture ErrorCode = "COMPILE-002"
	ErrCodeDriftDetected  ErrorCode = "COMPILE-003"

	// Pipeline errors (PIPE-001 to PIPE-099)
	ErrCodeUnitFailed          ErrorCode = "PIPE-001"
	ErrCodeInteractiveParallel ErrorCode = "PIPE-002"

	// Pose estimator errors (POSE-001 to POSE-099)
	ErrCodeEstimatorContract    ErrorCode = "POSE-001"
	ErrCodeEstimatorUnavailable ErrorCode = "POSE-002"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
)

// ExlogicError carries a code, a message and optional recovery suggestions
type ExlogicError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *ExlogicError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			fmt.Fprintf(&b, "\n  • %s", suggestion)
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *ExlogicError) Unwrap() error {
	return e.Cause
}

// Is reports a match against another ExlogicError carrying the same code, so
// sentinel-style comparisons like errors.Is(err, &ExlogicError{Code: c}) work.
func (e *ExlogicError) Is(target error) bool {
	t, ok := target.(*ExlogicError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// New creates a new ExlogicError
func New(code ErrorCode, message string) *ExlogicError {
	return &ExlogicError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new ExlogicError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *ExlogicError {
	return &ExlogicError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *ExlogicError) WithSuggestion(suggestion string) *ExlogicError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// CodeOf returns the code of the first ExlogicError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var xe *ExlogicError
	if errors.As(err, &xe) {
		return xe.Code
	}
	return ""
}

// HasCode reports whether err's chain contains an ExlogicError with the code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var xe *ExlogicError
		if !errors.As(err, &xe) {
			return false
		}
		if xe.Code == code {
			return true
		}
		err = xe.Cause
	}
	return false
}

// NewMissingReferenceImageError reports absent start/end images for a unit
func NewMissingReferenceImageError(dir string, missing []string) *ExlogicError {
	return New(ErrCodeMissingReferenceImage,
		fmt.Sprintf("missing reference images: %s in %s", strings.Join(missing, ", "), dir)).
		WithSuggestion("Add 0.png (start pose) and 1.png (end pose) to the exercise directory or its images/ folder")
}

// NewPoseNotDetectedError reports that the estimator found no body in an image
func NewPoseNotDetectedError(imagePath string) *ExlogicError {
	return New(ErrCodePoseNotDetected, fmt.Sprintf("pose landmarks not detected: %s", imagePath)).
		WithSuggestion("Use a photo where the whole body is in frame and well lit")
}

// NewSchemaValidationError wraps a structural schema violation for an artifact
func NewSchemaValidationError(artifact string, cause error) *ExlogicError {
	return Wrap(ErrCodeSchemaValidation, fmt.Sprintf("schema validation failed for %s", artifact), cause).
		WithSuggestion("Inspect the schema with --schema or disable the check with --no-schema")
}

// NewInvalidSignalError reports a signal name outside the known set
func NewInvalidSignalError(id, signal string) *ExlogicError {
	return New(ErrCodeInvalidSignal, fmt.Sprintf("unknown signal %q for exercise %q", signal, id)).
		WithSuggestion("Use one of: elbow, knee, hip, shoulder, ankle, wrist_height")
}

// NewDriftError reports that a compiled definition no longer matches its lock entry
func NewDriftError(id, expected, actual string) *ExlogicError {
	return New(ErrCodeDriftDetected, fmt.Sprintf("definition drift detected for %s", id)).
		WithSuggestion("Run 'exlogic compile' to regenerate definitions").
		WithSuggestion(fmt.Sprintf("Expected hash: %s, got: %s", expected, actual))
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *ExlogicError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *ExlogicError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
