package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/fsutil"
	"github.com/felixgeelhaar/exlogic/internal/log"
	"github.com/felixgeelhaar/exlogic/internal/logic"
	"github.com/felixgeelhaar/exlogic/internal/schema"
)

// ManifestFile is the catalog index written next to the definitions.
const ManifestFile = "manifest.json"

// CompileOptions configure Compile.
type CompileOptions struct {
	Overrides logic.Overrides
	// Validator checks definitions and the manifest before they are
	// written. nil disables the check.
	Validator *schema.Validator
	// Check compares against the existing lock file instead of writing.
	Check  bool
	Logger *log.Logger
}

// Compiled describes one successfully compiled definition.
type Compiled struct {
	ID     string
	Source string
	Path   string
	Hash   string
	Signal logic.Signal
}

// Drift is one mismatch between the lock file and a fresh compile.
type Drift struct {
	ID       string
	Expected string
	Actual   string
	Reason   string
}

// CompileReport summarizes a compile run.
type CompileReport struct {
	Compiled []Compiled
	Failures []Failure
	Drift    []Drift
	Manifest logic.Manifest
}

type unit struct {
	compiled Compiled
	entry    logic.ManifestEntry
	data     []byte
}

// Compile turns every merged document in srcDir, in file name order, into
// <id>.json plus manifest.json and manifest.lock.json in outDir. A document
// that fails is reported and left out of the manifest. In check mode nothing
// is written and differences from the lock file are returned as drift.
func Compile(srcDir, outDir string, opts CompileOptions) (*CompileReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	sources, err := documentPaths(srcDir)
	if err != nil {
		return nil, err
	}

	report := &CompileReport{}
	var units []unit
	seen := make(map[string]string)
	for _, src := range sources {
		u, err := compileDocument(src, outDir, opts)
		if err == nil {
			if prev, dup := seen[u.compiled.ID]; dup {
				err = xerrors.New(xerrors.ErrCodeInvalidCapture,
					fmt.Sprintf("%s and %s both compile to id %q", prev, src, u.compiled.ID))
			}
		}
		if err != nil {
			logger.WithUnit(filepath.Base(src)).WithError(err).Warn("compile failed")
			report.Failures = append(report.Failures, Failure{Path: src, Err: err})
			continue
		}
		seen[u.compiled.ID] = src
		units = append(units, u)
		logger.Debug("compiled definition", "id", u.compiled.ID, "signal", string(u.compiled.Signal))
	}

	entries := make([]logic.ManifestEntry, len(units))
	for i, u := range units {
		entries[i] = u.entry
		report.Compiled = append(report.Compiled, u.compiled)
	}
	report.Manifest = logic.BuildManifest(entries)

	manifestData, err := fsutil.MarshalIndent(report.Manifest)
	if err != nil {
		return report, xerrors.Wrap(xerrors.ErrCodeFileMarshal, "failed to encode manifest", err)
	}
	if err := opts.Validator.ValidateJSON(schema.Manifest, ManifestFile, manifestData); err != nil {
		return report, err
	}

	lock := &Lock{
		Version:      LockVersion,
		ManifestHash: Hash(manifestData),
		Definitions:  make(map[string]LockedDefinition, len(units)),
	}
	for _, u := range units {
		lock.Definitions[u.compiled.ID] = LockedDefinition{
			Hash:   u.compiled.Hash,
			Path:   filepath.Base(u.compiled.Path),
			Source: filepath.Base(u.compiled.Source),
			Signal: string(u.compiled.Signal),
		}
	}

	if opts.Check {
		existing, err := LoadLock(filepath.Join(outDir, LockFile))
		if err != nil {
			return report, err
		}
		report.Drift = diffLock(existing, lock, outDir)
		for _, d := range report.Drift {
			logger.Warn("definition drift", "id", d.ID, "reason", d.Reason)
		}
		return report, driftError(report.Drift)
	}

	for _, u := range units {
		if err := fsutil.WriteFileAtomic(u.compiled.Path, u.data, 0o644); err != nil {
			return report, xerrors.Wrap(xerrors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", u.compiled.Path), err)
		}
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(outDir, ManifestFile), manifestData, 0o644); err != nil {
		return report, xerrors.Wrap(xerrors.ErrCodeFileWriteFailed, "failed to write manifest", err)
	}
	if err := SaveLock(lock, filepath.Join(outDir, LockFile)); err != nil {
		return report, err
	}
	logger.Info("compiled catalog", "definitions", len(units), "failures", len(report.Failures), "output", outDir)
	return report, nil
}

func compileDocument(src, outDir string, opts CompileOptions) (unit, error) {
	doc, err := ReadDocument(src)
	if err != nil {
		return unit{}, err
	}

	key := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	name := doc.Metadata.Name()
	if name == "" {
		name = key
	}

	def, err := logic.Compile(logic.Exercise{Key: key, Name: name},
		doc.Logic.States.Start.Snapshot(), doc.Logic.States.End.Snapshot(), opts.Overrides)
	if err != nil {
		return unit{}, err
	}
	data, err := def.Encode()
	if err != nil {
		return unit{}, xerrors.Wrap(xerrors.ErrCodeFileMarshal, fmt.Sprintf("failed to encode %s", def.ID), err)
	}
	path := filepath.Join(outDir, def.ID+".json")
	if err := opts.Validator.ValidateJSON(schema.ExerciseDefinition, path, data); err != nil {
		return unit{}, err
	}

	return unit{
		compiled: Compiled{ID: def.ID, Source: src, Path: path, Hash: Hash(data), Signal: def.Signal},
		entry:    logic.NewManifestEntry(def.ID, name, doc.Metadata.Hint()),
		data:     data,
	}, nil
}

// diffLock compares a fresh lock with the recorded one and with the files
// currently on disk.
func diffLock(recorded, fresh *Lock, outDir string) []Drift {
	var drift []Drift

	ids := make([]string, 0, len(fresh.Definitions))
	for id := range fresh.Definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		want := fresh.Definitions[id]
		got, ok := recorded.Definitions[id]
		switch {
		case !ok:
			drift = append(drift, Drift{ID: id, Actual: want.Hash, Reason: "not in lock file"})
		case got.Hash != want.Hash:
			drift = append(drift, Drift{ID: id, Expected: got.Hash, Actual: want.Hash, Reason: "definition changed"})
		default:
			data, err := os.ReadFile(filepath.Join(outDir, got.Path))
			switch {
			case err != nil:
				drift = append(drift, Drift{ID: id, Expected: got.Hash, Reason: "definition file missing"})
			case Hash(data) != got.Hash:
				drift = append(drift, Drift{ID: id, Expected: got.Hash, Actual: Hash(data), Reason: "definition file edited"})
			}
		}
	}

	stale := make([]string, 0)
	for id := range recorded.Definitions {
		if _, ok := fresh.Definitions[id]; !ok {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	for _, id := range stale {
		drift = append(drift, Drift{ID: id, Expected: recorded.Definitions[id].Hash, Reason: "no longer compiled"})
	}

	if recorded.ManifestHash != fresh.ManifestHash {
		drift = append(drift, Drift{ID: ManifestFile, Expected: recorded.ManifestHash, Actual: fresh.ManifestHash, Reason: "manifest changed"})
	}
	return drift
}

func driftError(drift []Drift) error {
	switch len(drift) {
	case 0:
		return nil
	case 1:
		return xerrors.NewDriftError(drift[0].ID, drift[0].Expected, drift[0].Actual)
	}
	ids := make([]string, len(drift))
	for i, d := range drift {
		ids[i] = d.ID
	}
	return xerrors.New(xerrors.ErrCodeDriftDetected,
		fmt.Sprintf("%d artifacts drifted: %s", len(drift), strings.Join(ids, ", "))).
		WithSuggestion("Run 'exlogic compile' to regenerate definitions")
}

// documentPaths lists merged documents in srcDir in file name order.
func documentPaths(srcDir string) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.NewFileNotFoundError(srcDir)
		}
		return nil, xerrors.Wrap(xerrors.ErrCodeFileReadFailed, fmt.Sprintf("failed to list %s", srcDir), err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		switch e.Name() {
		case ManifestFile, LockFile, SignalMapFile:
			continue
		}
		out = append(out, filepath.Join(srcDir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
