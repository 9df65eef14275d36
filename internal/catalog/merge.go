package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/felixgeelhaar/exlogic/internal/capture"
	xerrors "github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/fsutil"
	"github.com/felixgeelhaar/exlogic/internal/log"
	"github.com/felixgeelhaar/exlogic/internal/logic"
)

// Failure records one input that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// MergeReport summarizes a merge run.
type MergeReport struct {
	Written  []string
	Skipped  []string
	Failures []Failure
}

// Merge combines exercise.json and exercise.logic.json from every exercise
// directory under root into <name>.json documents in outDir. Directories
// without both files are skipped; a failing directory does not stop the run.
func Merge(root, outDir string, logger *log.Logger) (*MergeReport, error) {
	if logger == nil {
		logger = log.Discard()
	}
	dirs, err := exerciseDirs(root)
	if err != nil {
		return nil, err
	}

	report := &MergeReport{}
	claimed := make(map[string]string)
	for _, dir := range dirs {
		out, err := mergeOne(dir, outDir, claimed)
		switch {
		case err != nil:
			logger.WithUnit(filepath.Base(dir)).WithError(err).Warn("merge failed")
			report.Failures = append(report.Failures, Failure{Path: dir, Err: err})
		case out == "":
			logger.Debug("skipping directory without capture", "dir", dir)
			report.Skipped = append(report.Skipped, dir)
		default:
			logger.Info("merged exercise", "dir", dir, "output", out)
			report.Written = append(report.Written, out)
		}
	}
	return report, nil
}

func mergeOne(dir, outDir string, claimed map[string]string) (string, error) {
	if !fsutil.Exists(filepath.Join(dir, MetadataFile)) || !fsutil.Exists(filepath.Join(dir, capture.FileName)) {
		return "", nil
	}

	meta, err := ReadMetadata(dir)
	if err != nil {
		return "", err
	}
	payload, err := capture.Read(filepath.Join(dir, capture.FileName))
	if err != nil {
		return "", err
	}

	name := meta.Name()
	if name == "" {
		name = filepath.Base(dir)
	}
	file := logic.Sanitize(name) + ".json"
	if prev, ok := claimed[file]; ok {
		return "", xerrors.New(xerrors.ErrCodeMetadataInvalid,
			fmt.Sprintf("%s and %s both merge into %s", prev, dir, file)).
			WithSuggestion("Give each exercise a distinct name in exercise.json")
	}
	claimed[file] = dir

	out := filepath.Join(outDir, file)
	if err := fsutil.WriteJSONAtomic(out, Document{Metadata: meta, Logic: payload}); err != nil {
		return "", xerrors.Wrap(xerrors.ErrCodeFileWriteFailed, fmt.Sprintf("failed to write %s", out), err)
	}
	return out, nil
}

// exerciseDirs lists the immediate subdirectories of root in name order.
func exerciseDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.NewFileNotFoundError(root).
				WithSuggestion("Point --root at the directory holding one folder per exercise")
		}
		return nil, xerrors.Wrap(xerrors.ErrCodeFileReadFailed, fmt.Sprintf("failed to list %s", root), err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}
