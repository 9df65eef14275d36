package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/exlogic/internal/errors"
	"github.com/felixgeelhaar/exlogic/internal/history"
	"github.com/felixgeelhaar/exlogic/internal/log"
)

// Recorder persists unit outcomes. *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Runner processes many exercise directories with bounded parallelism
type Runner struct {
	Options Options
	// Workers caps concurrent units. Values below 1 mean 1.
	Workers int
	// History receives one entry per unit when non-nil.
	History Recorder
	// OnUnit is called from the worker goroutine as each unit finishes.
	OnUnit func(UnitResult)
}

// Report is the outcome of a batch
type Report struct {
	RunID    string
	Results  []UnitResult
	Started  time.Time
	Finished time.Time
}

// Count returns how many units ended with status
func (r *Report) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Err is nil when every unit was written. Otherwise it carries
// ErrCodeUnitFailed, wrapping the first unit error if there was one.
func (r *Report) Err() error {
	notWritten := len(r.Results) - r.Count(StatusWritten)
	if notWritten == 0 {
		return nil
	}
	msg := fmt.Sprintf("%d of %d exercise units not written", notWritten, len(r.Results))
	for _, res := range r.Results {
		if res.Err != nil {
			return errors.Wrap(errors.ErrCodeUnitFailed, msg, fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
	return errors.New(errors.ErrCodeUnitFailed, msg)
}

// Discover lists the immediate subdirectories of root in name order. A
// positive limit truncates the list.
func Discover(root string, limit int) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(root)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to list %s", root), err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	if limit > 0 && len(dirs) > limit {
		dirs = dirs[:limit]
	}
	return dirs, nil
}

// Run processes dirs and returns a report with one result per directory in
// input order. Once ctx is cancelled no further units start; units already
// running finish. An error is returned only when the batch could not start.
func (r *Runner) Run(ctx context.Context, dirs []string) (*Report, error) {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > 1 && r.Options.Confirmer != nil && r.Options.Confirmer.Interactive() {
		return nil, errors.New(errors.ErrCodeInteractiveParallel,
			fmt.Sprintf("interactive confirmation cannot run with %d workers", workers)).
			WithSuggestion("Use --workers 1 with --ui, or pass --auto-approve for parallel runs")
	}

	report := &Report{
		RunID:   uuid.NewString(),
		Results: make([]UnitResult, len(dirs)),
		Started: time.Now(),
	}

	logger := r.Options.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.With("run_id", report.RunID)
	opts := r.Options
	opts.Logger = logger
	logger.Info("batch started", "units", len(dirs), "workers", workers)

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for i, dir := range dirs {
		skipped := UnitResult{Dir: dir, Name: filepath.Base(dir), Status: StatusSkipped}
		select {
		case sem <- struct{}{}:
			if err := ctx.Err(); err != nil {
				<-sem
				skipped.Err = err
				report.Results[i] = skipped
				continue
			}
		case <-ctx.Done():
			skipped.Err = ctx.Err()
			report.Results[i] = skipped
			continue
		}

		wg.Add(1)
		go func(index int, dir string) {
			defer wg.Done()
			defer func() { <-sem }()

			unitCtx := context.WithoutCancel(ctx)
			res := ProcessUnit(unitCtx, dir, opts)
			report.Results[index] = res
			if r.OnUnit != nil {
				r.OnUnit(res)
			}
		}(i, dir)
	}
	wg.Wait()

	report.Finished = time.Now()
	r.record(context.WithoutCancel(ctx), report, logger)

	logger.Info("batch finished",
		"written", report.Count(StatusWritten),
		"rejected", report.Count(StatusRejected),
		"failed", report.Count(StatusFailed),
		"skipped", report.Count(StatusSkipped),
		"duration", report.Finished.Sub(report.Started))
	return report, nil
}

func (r *Runner) record(ctx context.Context, report *Report, logger *log.Logger) {
	if r.History == nil {
		return
	}
	for _, res := range report.Results {
		e := history.Entry{
			RunID:  report.RunID,
			Unit:   res.Name,
			Status: string(res.Status),
			At:     report.Finished,
		}
		if res.Err != nil {
			e.Code = string(errors.CodeOf(res.Err))
			e.Message = res.Err.Error()
		}
		if err := r.History.Record(ctx, e); err != nil {
			logger.WithError(err).Warn("history entry not recorded", "unit", res.Name)
		}
	}
}
