package version

import (
	"strings"
	"testing"
)

func TestInfoString(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() { Version, Commit = origVersion, origCommit }()

	Version = "1.0.0"
	Commit = "abc123def456"

	s := GetInfo().String()
	if !strings.HasPrefix(s, "exlogic 1.0.0 (abc123de)") {
		t.Errorf("unexpected version string %q", s)
	}
}
