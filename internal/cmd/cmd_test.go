package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/exlogic/internal/capture"
	"github.com/felixgeelhaar/exlogic/internal/catalog"
	"github.com/felixgeelhaar/exlogic/internal/exitcode"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
	"github.com/felixgeelhaar/exlogic/internal/landmark/landmarktest"
	"github.com/felixgeelhaar/exlogic/internal/pose"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeUnit(t *testing.T, root, dir, name string, start, end landmark.Set) {
	t.Helper()
	base := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(base, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "exercise.json"),
		[]byte(`{"name": "`+name+`", "instructions": ["Keep elbows still"]}`), 0o644))
	for stem, set := range map[string]landmark.Set{"0.png": start, "1.png": end} {
		img := filepath.Join(base, stem)
		require.NoError(t, os.WriteFile(img, []byte("img"), 0o644))
		require.NoError(t, pose.WriteSidecar(img, &set))
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "exlogic")
}

func TestCaptureRequiresTarget(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := execute(t, "capture")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestCaptureMergeCompile(t *testing.T) {
	work := t.TempDir()
	t.Chdir(work)
	writeUnit(t, "exercises", "curl", "Bicep Curl", landmarktest.CurlBottom(), landmarktest.CurlTop())
	writeUnit(t, "exercises", "squat", "Goblet Squat", landmarktest.CurlTop(), landmarktest.CurlBottom())
	require.NoError(t, os.MkdirAll(filepath.Join("exercises", "notes"), 0o755))

	out, err := execute(t, "capture", "--root", "exercises", "--auto-approve", "--no-figure",
		"--workers", "2", "--no-history")
	// notes has no images and fails; the others are written
	require.Error(t, err)
	assert.Equal(t, exitcode.UnitsFailed, exitcode.DetermineExitCode(err))
	assert.Contains(t, out, "written 2, rejected 0, failed 1")
	assert.FileExists(t, filepath.Join("exercises", "curl", capture.FileName))
	assert.NoFileExists(t, filepath.Join("exercises", "curl", "verification.png"))

	out, err = execute(t, "merge", "--root", "exercises", "--out", "merged")
	require.NoError(t, err)
	assert.Contains(t, out, "merged 2, skipped 1, failed 0")
	assert.FileExists(t, filepath.Join("merged", "bicep_curl.json"))

	out, err = execute(t, "compile", "--src", "merged", "--out", "definitions")
	require.NoError(t, err)
	assert.Contains(t, out, `compiled 2, failed 0, drifted 0 (default "bicep_curl")`)
	for _, name := range []string{"bicep_curl.json", "goblet_squat.json", catalog.ManifestFile, catalog.LockFile} {
		assert.FileExists(t, filepath.Join("definitions", name))
	}

	_, err = execute(t, "compile", "--src", "merged", "--out", "definitions", "--check")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join("definitions", "goblet_squat.json"), []byte("{}\n"), 0o644))
	out, err = execute(t, "compile", "--src", "merged", "--out", "definitions", "--check")
	require.Error(t, err)
	assert.Equal(t, exitcode.DriftDetected, exitcode.DetermineExitCode(err))
	assert.Contains(t, out, "goblet_squat")
}

func TestCaptureWithoutTerminalRejects(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CI", "true")
	writeUnit(t, "exercises", "curl", "Bicep Curl", landmarktest.CurlBottom(), landmarktest.CurlTop())

	out, err := execute(t, "capture", "--exercise-dir", filepath.Join("exercises", "curl"), "--no-figure", "--no-history")
	require.Error(t, err)
	assert.Equal(t, exitcode.UnitsFailed, exitcode.DetermineExitCode(err))
	assert.Contains(t, out, "rejected 1")
	assert.NoFileExists(t, filepath.Join("exercises", "curl", capture.FileName))
}

func TestCompileRejectsUnknownSignal(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll("merged", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("merged", catalog.SignalMapFile),
		[]byte(`{"overrides": {"bicep_curl": "toe"}}`), 0o644))

	_, err := execute(t, "compile", "--src", "merged", "--out", "definitions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toe")
}

func TestHistoryEmpty(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistoryAfterCapture(t *testing.T) {
	t.Chdir(t.TempDir())
	writeUnit(t, "exercises", "curl", "Bicep Curl", landmarktest.CurlBottom(), landmarktest.CurlTop())

	_, err := execute(t, "capture", "--exercise-dir", filepath.Join("exercises", "curl"), "--auto-approve", "--no-figure")
	require.NoError(t, err)

	out, err := execute(t, "history", "--unit", "Bicep Curl")
	require.NoError(t, err)
	assert.Contains(t, out, "Bicep Curl")
	assert.Contains(t, out, "written")
}

func TestConfigInitAndView(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, ".exlogic/config.yaml\n", out)

	_, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(".exlogic", "config.yaml"))

	_, err = execute(t, "config", "init")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))

	t.Setenv("EXLOGIC_WORKERS", "6")
	out, err = execute(t, "config", "view")
	require.NoError(t, err)
	assert.Contains(t, out, "workers: 6")
	assert.Contains(t, out, "timeout: 30s")
}

func TestDoctor(t *testing.T) {
	t.Chdir(t.TempDir())
	writeUnit(t, "exercises", "curl", "Bicep Curl", landmarktest.CurlBottom(), landmarktest.CurlTop())
	require.NoError(t, os.MkdirAll(filepath.Join("exercises", "empty"), 0o755))

	out, err := execute(t, "doctor", "--root", "exercises")
	require.NoError(t, err)
	assert.Contains(t, out, "Exercises: 1 of 2 ready, 0 captured")
	assert.Contains(t, out, "empty: missing reference images")

	_, err = execute(t, "doctor", "--root", "nowhere")
	assert.Error(t, err)
}
