package capture

import (
	"encoding/json"
	"fmt"
	"os"

	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/fsutil"
	"github.com/felixgeelhaar/exlogic/internal/schema"
)

// Write validates p against the CapturePayload schema, when a validator is
// given, and then writes it atomically. Nothing is written on failure.
func Write(path string, p Payload, v *schema.Validator) error {
	data, err := fsutil.MarshalIndent(p)
	if err != nil {
		return xerrors.Wrap(xerrors.ErrCodeFileMarshal, "failed to encode capture payload", err)
	}
	if err := v.ValidateJSON(schema.CapturePayload, path, data); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return xerrors.Wrap(xerrors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

// Read loads a capture payload from disk.
func Read(path string) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Payload{}, xerrors.NewFileNotFoundError(path)
		}
		return Payload{}, xerrors.Wrap(xerrors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, xerrors.NewFileUnmarshalError(path, "JSON", err)
	}
	return p, nil
}
