// Package pipeline turns exercise directories holding a start and an end
// photograph into validated capture payloads.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/exlogic/internal/biomech"
	"github.com/felixgeelhaar/exlogic/internal/capture"
	"github.com/felixgeelhaar/exlogic/internal/catalog"
	"github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/landmark"
	"github.com/felixgeelhaar/exlogic/internal/log"
	"github.com/felixgeelhaar/exlogic/internal/pose"
	"github.com/felixgeelhaar/exlogic/internal/render"
	"github.com/felixgeelhaar/exlogic/internal/schema"
	"github.com/felixgeelhaar/exlogic/internal/tui"
	"github.com/felixgeelhaar/exlogic/internal/validate"
)

// Status is the outcome of one exercise unit
type Status string

const (
	StatusWritten  Status = "written"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// Image stems for the two reference poses
const (
	StartStem = "0"
	EndStem   = "1"
)

var imageExts = []string{"png", "jpg", "jpeg"}

// Options configure how a unit is processed
type Options struct {
	Estimator pose.Estimator
	// Renderer draws verification.png. Nil draws nothing.
	Renderer render.Renderer
	// Confirmer accepts or rejects validated poses. Nil rejects.
	Confirmer tui.Confirmer
	// Figure saves verification.png.
	Figure bool
	// Review shows every unit to the confirmer, even one that failed
	// validation, and forces the figure.
	Review bool
	// Force lets a unit that failed validation reach the confirmer.
	Force bool

	Validator   *schema.Validator
	RepLogic    string
	Tolerance   capture.Tolerance // zero selects capture.DefaultTolerance
	IncludeCOCO bool

	Logger *log.Logger
}

// UnitResult reports one processed exercise directory
type UnitResult struct {
	Dir      string
	Name     string
	Status   Status
	Output   string
	Figure   string
	Start    validate.Result
	End      validate.Result
	Err      error
	Duration time.Duration
}

// FindImage locates <stem>.(png|jpg|jpeg), trying images/ before the
// directory itself for each extension.
func FindImage(dir, stem string) string {
	for _, ext := range imageExts {
		for _, candidate := range []string{
			filepath.Join(dir, "images", stem+"."+ext),
			filepath.Join(dir, stem+"."+ext),
		} {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// ReferenceImages returns the start and end image paths
func ReferenceImages(dir string) (start, end string, err error) {
	start = FindImage(dir, StartStem)
	end = FindImage(dir, EndStem)

	var missing []string
	if start == "" {
		missing = append(missing, "0.(png|jpg)")
	}
	if end == "" {
		missing = append(missing, "1.(png|jpg)")
	}
	if len(missing) > 0 {
		return "", "", errors.NewMissingReferenceImageError(dir, missing)
	}
	return start, end, nil
}

// ExerciseName reads the display name from exercise.json, falling back to
// the directory name when the file is absent, invalid or unnamed.
func ExerciseName(dir string) string {
	if m, err := catalog.ReadMetadata(dir); err == nil {
		if name := m.Name(); name != "" {
			return name
		}
	}
	return filepath.Base(dir)
}

type detection struct {
	set    landmark.Set
	snap   biomech.Snapshot
	result validate.Result
}

func detect(ctx context.Context, est pose.Estimator, imagePath string) (detection, error) {
	set, err := est.Detect(ctx, imagePath)
	if err != nil {
		return detection{}, fmt.Errorf("%s: %w", imagePath, err)
	}
	snap := biomech.Extract(&set)
	return detection{set: set, snap: snap, result: validate.Pose(snap, &set)}, nil
}

// ProcessUnit runs one exercise directory end to end. Failures are reported
// in the result rather than returned.
func ProcessUnit(ctx context.Context, dir string, opts Options) UnitResult {
	started := time.Now()
	res := UnitResult{Dir: dir, Name: ExerciseName(dir)}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithUnit(res.Name)

	finish := func(status Status, err error) UnitResult {
		res.Status = status
		res.Err = err
		res.Duration = time.Since(started)
		switch status {
		case StatusWritten:
			logger.Info("capture written", "path", res.Output, "duration", res.Duration)
		case StatusRejected:
			logger.Info("rejected; skipping capture")
		case StatusFailed:
			logger.LogError("unit failed", err)
		}
		return res
	}

	if opts.Estimator == nil {
		return finish(StatusFailed, errors.New(errors.ErrCodeConfigInvalid, "no pose estimator configured"))
	}

	startImg, endImg, err := ReferenceImages(dir)
	if err != nil {
		return finish(StatusFailed, err)
	}

	logger.Debug("processing", "start", startImg, "end", endImg)
	start, err := detect(ctx, opts.Estimator, startImg)
	if err != nil {
		return finish(StatusFailed, err)
	}
	end, err := detect(ctx, opts.Estimator, endImg)
	if err != nil {
		return finish(StatusFailed, err)
	}
	res.Start, res.End = start.result, end.result

	if opts.Figure || opts.Review {
		res.Figure = filepath.Join(dir, render.FileName)
		renderer := opts.Renderer
		if renderer == nil {
			renderer = render.Nop{}
		}
		view := render.View{
			Label: res.Name,
			Start: render.Pose{Landmarks: start.set, Snapshot: start.snap, Result: start.result},
			End:   render.Pose{Landmarks: end.set, Snapshot: end.snap, Result: end.result},
		}
		if err := renderer.Render(res.Figure, view); err != nil {
			logger.WithError(err).Warn("verification figure not saved")
			res.Figure = ""
		}
	}

	ev := tui.Evidence{Start: start.result, End: end.result, FigurePath: res.Figure}
	if !ev.OK() {
		logger.Warn("validation failed", "start", start.result.Summary(), "end", end.result.Summary())
		if !opts.Force && !opts.Review {
			return finish(StatusRejected, nil)
		}
	}

	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = tui.Decline{}
	}
	approved, err := confirmer.Confirm(res.Name, ev)
	if err != nil {
		return finish(StatusFailed, fmt.Errorf("confirmation: %w", err))
	}
	if !approved {
		return finish(StatusRejected, nil)
	}

	var tol *capture.Tolerance
	if opts.Tolerance != (capture.Tolerance{}) {
		tol = &opts.Tolerance
	}
	payload := capture.BuildPayload(res.Name, start.snap, end.snap, capture.Options{
		RepLogic:       opts.RepLogic,
		Tolerance:      tol,
		StartLandmarks: &start.set,
		EndLandmarks:   &end.set,
		IncludeCOCO:    opts.IncludeCOCO,
	})
	out := filepath.Join(dir, capture.FileName)
	if err := capture.Write(out, payload, opts.Validator); err != nil {
		return finish(StatusFailed, err)
	}
	res.Output = out
	return finish(StatusWritten, nil)
}
