package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/exlogic/internal/capture"
	"github.com/felixgeelhaar/exlogic/internal/config"
	"github.com/felixgeelhaar/exlogic/internal/history"
	"github.com/felixgeelhaar/exlogic/internal/pipeline"
	"github.com/felixgeelhaar/exlogic/internal/pose"
	"github.com/felixgeelhaar/exlogic/internal/progress"
	"github.com/felixgeelhaar/exlogic/internal/render"
	"github.com/felixgeelhaar/exlogic/internal/schema"
	"github.com/felixgeelhaar/exlogic/internal/tui"
)

type captureFlags struct {
	exerciseDir    string
	root           string
	autoApprove    bool
	force          bool
	ui             bool
	noFigure       bool
	includeCOCO    bool
	workers        int
	limit          int
	toleranceAngle float64
	toleranceRatio float64
	repLogic       string
	schemaPath     string
	noSchema       bool
	estimator      string
	endpoint       string
	noHistory      bool
}

func newCaptureCmd() *cobra.Command {
	f := &captureFlags{}
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Build exercise.logic.json from reference images",
		Long: `Detect the start (0.png) and end (1.png) poses of one exercise directory, or
of every directory under --root, validate them, and write exercise.logic.json
once the poses are accepted.

Images are looked up as images/0.png, 0.png, images/0.jpg, 0.jpg and so on.

Examples:
  # One exercise, prompt for acceptance
  exlogic capture --exercise-dir exercises/squat

  # Whole catalog in parallel, accepting every pose that validates
  exlogic capture --root exercises --workers 4 --auto-approve

  # Review each exercise with its verification figure
  exlogic capture --root exercises --ui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.exerciseDir, "exercise-dir", "", "single exercise directory to process")
	fl.StringVar(&f.root, "root", "", "folder containing many exercise directories (batch mode)")
	fl.BoolVar(&f.autoApprove, "auto-approve", false, "accept poses without prompting when validation passes")
	fl.BoolVar(&f.force, "force", false, "allow generation even if validation fails")
	fl.BoolVar(&f.ui, "ui", false, "review each exercise with its verification summary")
	fl.BoolVar(&f.noFigure, "no-figure", false, "do not save verification.png")
	fl.BoolVar(&f.includeCOCO, "include-coco", false, "include COCO-17 keypoints in the capture")
	fl.IntVar(&f.workers, "workers", 1, "parallel workers for batch mode")
	fl.IntVar(&f.limit, "limit", 0, "process at most this many exercises in batch mode")
	fl.Float64Var(&f.toleranceAngle, "tolerance-angle", capture.DefaultTolerance().AngleDeg, "angle tolerance in degrees")
	fl.Float64Var(&f.toleranceRatio, "tolerance-ratio", capture.DefaultTolerance().RatioPct, "ratio tolerance as a fraction")
	fl.StringVar(&f.repLogic, "rep-logic", capture.DefaultRepLogic, "rep logic recorded in the capture")
	fl.StringVar(&f.schemaPath, "schema", "", "OpenAPI document whose components validate the capture")
	fl.BoolVar(&f.noSchema, "no-schema", false, "skip schema validation")
	fl.StringVar(&f.estimator, "estimator", "", "pose estimator: sidecar or http")
	fl.StringVar(&f.endpoint, "endpoint", "", "pose service URL for the http estimator")
	fl.BoolVar(&f.noHistory, "no-history", false, "do not record outcomes in the history database")

	cmd.MarkFlagsMutuallyExclusive("exercise-dir", "root")
	cmd.MarkFlagsOneRequired("exercise-dir", "root")
	cmd.MarkFlagsMutuallyExclusive("schema", "no-schema")
	return cmd
}

func runCapture(cmd *cobra.Command, f *captureFlags) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cc.Config
	applyCaptureFlags(cmd, f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	estimator, err := buildEstimator(cfg.Estimator)
	if err != nil {
		return err
	}
	validator, err := loadValidator(cfg.Schema)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Estimator:   estimator,
		Confirmer:   chooseConfirmer(f, cc),
		Figure:      cfg.Capture.Figure,
		Review:      f.ui,
		Force:       f.force,
		Validator:   validator,
		RepLogic:    cfg.Capture.RepLogic,
		Tolerance:   capture.Tolerance{AngleDeg: cfg.Capture.ToleranceAngleDeg, RatioPct: cfg.Capture.ToleranceRatioPct},
		IncludeCOCO: cfg.Capture.IncludeCOCO,
		Logger:      cc.Logger,
	}
	if cfg.Capture.Figure || f.ui {
		opts.Renderer = render.NewPlotRenderer()
	}

	var dirs []string
	if f.exerciseDir != "" {
		dirs = []string{f.exerciseDir}
	} else {
		dirs, err = pipeline.Discover(f.root, f.limit)
		if err != nil {
			return err
		}
	}

	runner := &pipeline.Runner{Options: opts, Workers: cfg.Capture.Workers}
	var bar *progress.Bar
	if len(dirs) > 1 && !opts.Confirmer.Interactive() {
		bar = progress.NewBar(cmd.ErrOrStderr(), len(dirs))
		runner.OnUnit = func(res pipeline.UnitResult) {
			bar.Increment(res.Status == pipeline.StatusWritten)
		}
	}
	if !cfg.History.Disabled && !f.noHistory {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			cc.Logger.WithError(err).Warn("history disabled for this run")
		} else {
			defer store.Close()
			runner.History = store
		}
	}

	report, err := runner.Run(cmd.Context(), dirs)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	printCaptureReport(cmd, cc, report)
	return report.Err()
}

func applyCaptureFlags(cmd *cobra.Command, f *captureFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("workers") {
		cfg.Capture.Workers = f.workers
	}
	if changed("include-coco") {
		cfg.Capture.IncludeCOCO = f.includeCOCO
	}
	if f.noFigure {
		cfg.Capture.Figure = false
	}
	if changed("tolerance-angle") {
		cfg.Capture.ToleranceAngleDeg = f.toleranceAngle
	}
	if changed("tolerance-ratio") {
		cfg.Capture.ToleranceRatioPct = f.toleranceRatio
	}
	if changed("rep-logic") {
		cfg.Capture.RepLogic = f.repLogic
	}
	if f.schemaPath != "" {
		cfg.Schema.Path = f.schemaPath
	}
	if f.noSchema {
		cfg.Schema.Disabled = true
	}
	if f.estimator != "" {
		cfg.Estimator.Kind = f.estimator
	}
	if f.endpoint != "" {
		cfg.Estimator.Endpoint = f.endpoint
	}
}

func buildEstimator(c config.EstimatorConfig) (pose.Estimator, error) {
	var est pose.Estimator
	switch c.Kind {
	case config.EstimatorHTTP:
		h, err := pose.NewHTTPEstimator(pose.HTTPConfig{Endpoint: c.Endpoint, Timeout: c.Timeout})
		if err != nil {
			return nil, err
		}
		est = h
	default:
		est = pose.NewSidecarEstimator()
	}
	if c.CacheSize == 0 {
		return est, nil
	}
	cached, err := pose.NewCachingEstimator(est, c.CacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func loadValidator(c config.SchemaConfig) (*schema.Validator, error) {
	switch {
	case c.Disabled:
		return nil, nil
	case c.Path != "":
		return schema.Load(c.Path)
	default:
		return schema.Default()
	}
}

// chooseConfirmer picks the acceptance surface. Without a terminal nothing
// can be confirmed, so units that were not auto-approved are rejected.
func chooseConfirmer(f *captureFlags, cc *CommandContext) tui.Confirmer {
	switch {
	case f.autoApprove:
		return tui.AutoApprove{}
	case !tui.ShouldPrompt():
		cc.Logger.Warn("no interactive terminal; exercises will be rejected unless --auto-approve is set")
		return tui.Decline{}
	case f.ui:
		return &tui.HuhConfirmer{Out: os.Stderr, Styles: cc.Styles}
	default:
		return tui.NewLineConfirmer(os.Stdin, os.Stderr)
	}
}

func printCaptureReport(cmd *cobra.Command, cc *CommandContext, report *pipeline.Report) {
	out := cmd.OutOrStdout()
	s := cc.Styles
	for _, res := range report.Results {
		switch res.Status {
		case pipeline.StatusWritten:
			fmt.Fprintf(out, "%s %s → %s\n", s.Success.Render("✓"), res.Name, res.Output)
		case pipeline.StatusRejected:
			fmt.Fprintf(out, "%s %s rejected (start %s, end %s)\n",
				s.Muted.Render("-"), res.Name, res.Start.Summary(), res.End.Summary())
		default:
			fmt.Fprintf(out, "%s %s %s: %s\n", s.Error.Render("✗"), res.Name, res.Status, firstLine(res.Err))
		}
	}
	fmt.Fprintf(out, "\n%s written %d, rejected %d, failed %d, skipped %d (run %s)\n",
		s.Title.Render("Summary:"),
		report.Count(pipeline.StatusWritten),
		report.Count(pipeline.StatusRejected),
		report.Count(pipeline.StatusFailed),
		report.Count(pipeline.StatusSkipped),
		report.RunID)
}
