// Package catalog runs the conversion stages that turn per-exercise capture
// payloads into a compiled definition catalog: merge gathers metadata and
// captures into flat documents, compile turns those into definitions, a
// manifest and a lock file.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/exlogic/internal/capture"
	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
)

// MetadataFile is the optional per-exercise metadata document.
const MetadataFile = "exercise.json"

// Metadata is the free-form exercise.json content. Only name and
// instructions are interpreted.
type Metadata map[string]any

// Name returns the "name" member, or "".
func (m Metadata) Name() string {
	s, _ := m["name"].(string)
	return strings.TrimSpace(s)
}

// Hint returns the first instruction, or "".
func (m Metadata) Hint() string {
	list, ok := m["instructions"].([]any)
	if !ok || len(list) == 0 {
		return ""
	}
	s, _ := list[0].(string)
	return s
}

// ReadMetadata loads exercise.json from an exercise directory.
func ReadMetadata(dir string) (Metadata, error) {
	path := filepath.Join(dir, MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.NewFileNotFoundError(path)
		}
		return nil, xerrors.Wrap(xerrors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeMetadataInvalid, fmt.Sprintf("invalid metadata %s", path), err).
			WithSuggestion("exercise.json must be a JSON object such as {\"name\": \"Squat\"}")
	}
	return m, nil
}

// Document is one merged exercise: its metadata and its capture payload.
type Document struct {
	Metadata Metadata        `json:"metadata"`
	Logic    capture.Payload `json:"logic"`
}

// ReadDocument loads a merged document.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeInvalidCapture, fmt.Sprintf("invalid merged document %s", path), err)
	}
	if doc.Metadata == nil {
		doc.Metadata = Metadata{}
	}
	return &doc, nil
}
