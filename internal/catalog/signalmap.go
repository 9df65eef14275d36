package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/logic"
)

// SignalMapFile is the conventional override table name.
const SignalMapFile = "signal_map.json"

type signalMap struct {
	Overrides map[string]string `yaml:"overrides"`
}

// LoadSignalMap reads an override table. JSON and YAML are both accepted.
// A missing file yields an empty table.
func LoadSignalMap(path string) (logic.Overrides, error) {
	if path == "" {
		return logic.Overrides{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return logic.Overrides{}, nil
		}
		return nil, xerrors.Wrap(xerrors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}

	var sm signalMap
	if err := yaml.Unmarshal(data, &sm); err != nil {
		return nil, xerrors.NewFileUnmarshalError(path, "signal map", err)
	}
	overrides, err := logic.NewOverrides(sm.Overrides)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrCodeInvalidSignal, fmt.Sprintf("invalid signal map %s", path), err).
			WithSuggestion("Use one of: elbow, knee, hip, shoulder, ankle, wrist_height")
	}
	return overrides, nil
}
