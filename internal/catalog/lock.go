package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/zeebo/blake3"

	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/fsutil"
)

// LockFile records the hash of every compiled artifact.
const LockFile = "manifest.lock.json"

// LockVersion of the lock format.
const LockVersion = 1

// Lock pins a compiled catalog.
type Lock struct {
	Version      int                         `json:"version"`
	ManifestHash string                      `json:"manifestHash"`
	Definitions  map[string]LockedDefinition `json:"definitions"`
}

// LockedDefinition pins one definition file.
type LockedDefinition struct {
	Hash   string `json:"hash"`
	Path   string `json:"path"`
	Source string `json:"source"`
	Signal string `json:"signal"`
}

// Hash returns the hex blake3 digest of data.
func Hash(data []byte) string {
	hasher := blake3.New()
	_, _ = hasher.Write(data)
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// SaveLock writes a lock file atomically.
func SaveLock(lock *Lock, path string) error {
	if err := fsutil.WriteJSONAtomic(path, lock); err != nil {
		return xerrors.Wrap(xerrors.ErrCodeFileWriteFailed, "failed to write lock file", err)
	}
	return nil
}

// LoadLock reads a lock file.
func LoadLock(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.NewFileNotFoundError(path).
				WithSuggestion("Run 'exlogic compile' once without --check to create the lock file")
		}
		return nil, xerrors.Wrap(xerrors.ErrCodeFileReadFailed, "failed to read lock file", err)
	}

	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, xerrors.NewFileUnmarshalError(path, "JSON", err)
	}
	if lock.Definitions == nil {
		lock.Definitions = map[string]LockedDefinition{}
	}
	return &lock, nil
}
