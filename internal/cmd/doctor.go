package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/exlogic/internal/capture"
	"github.com/felixgeelhaar/exlogic/internal/config"
	"github.com/felixgeelhaar/exlogic/internal/history"
	"github.com/felixgeelhaar/exlogic/internal/pipeline"
	"github.com/felixgeelhaar/exlogic/internal/pose"
)

// DoctorReport represents the complete health check report
type DoctorReport struct {
	Config    *DoctorCheck `json:"config"`
	Schema    *DoctorCheck `json:"schema"`
	Estimator *DoctorCheck `json:"estimator"`
	History   *DoctorCheck `json:"history"`
	Exercises *DoctorCheck `json:"exercises,omitempty"`
	Issues    []string     `json:"issues"`
	Warnings  []string     `json:"warnings"`
	NextSteps []string     `json:"next_steps"`
	Healthy   bool         `json:"healthy"`
}

// DoctorCheck represents a single health check result
type DoctorCheck struct {
	Name    string         `json:"name"`
	Status  string         `json:"status"` // "ok", "warning", "error", "missing"
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func newDoctorCmd() *cobra.Command {
	var (
		root   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, schema, estimator and exercise layout",
		Long: `Run diagnostics to check that exlogic is ready to capture.

Checks include:
  • configuration file and environment overrides
  • the validation schema
  • the pose estimator settings
  • the history database
  • with --root, every exercise directory's reference images and landmarks

Examples:
  exlogic doctor --root exercises
  exlogic doctor --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := &DoctorReport{Issues: []string{}, Warnings: []string{}, NextSteps: []string{}}

			cc, err := NewCommandContext(cmd)
			if err != nil {
				report.Config = &DoctorCheck{Name: "Config", Status: "error", Message: firstLine(err)}
				report.Issues = append(report.Issues, "Configuration could not be loaded")
				report.NextSteps = append(report.NextSteps, "Fix the configuration or run 'exlogic config init'")
				return outputDoctor(cmd.OutOrStdout(), report, asJSON)
			}

			checkConfig(cmd, report)
			checkSchema(cc.Config, report)
			checkEstimator(cc.Config, report)
			checkHistory(cc.Config, report)
			if root != "" {
				checkExercises(root, cc.Config, report)
			}
			report.Healthy = len(report.Issues) == 0
			return outputDoctor(cmd.OutOrStdout(), report, asJSON)
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "exercise folder to inspect")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the report as JSON")
	return cmd
}

func checkConfig(cmd *cobra.Command, report *DoctorReport) {
	path := configPath(cmd)
	if _, err := os.Stat(path); err != nil {
		report.Config = &DoctorCheck{Name: "Config", Status: "missing", Message: "using defaults"}
		report.NextSteps = append(report.NextSteps, "Run 'exlogic config init' to pin settings for this project")
		return
	}
	report.Config = &DoctorCheck{Name: "Config", Status: "ok", Message: path}
}

func checkSchema(cfg *config.Config, report *DoctorReport) {
	if cfg.Schema.Disabled {
		report.Schema = &DoctorCheck{Name: "Schema", Status: "warning", Message: "validation disabled"}
		report.Warnings = append(report.Warnings, "Captures and definitions are written without schema validation")
		return
	}
	v, err := loadValidator(cfg.Schema)
	if err != nil {
		report.Schema = &DoctorCheck{Name: "Schema", Status: "error", Message: firstLine(err)}
		report.Issues = append(report.Issues, "Schema could not be loaded")
		return
	}
	report.Schema = &DoctorCheck{Name: "Schema", Status: "ok", Message: v.Source()}
}

func checkEstimator(cfg *config.Config, report *DoctorReport) {
	check := &DoctorCheck{Name: "Estimator", Status: "ok", Details: map[string]any{"cache_size": cfg.Estimator.CacheSize}}
	switch cfg.Estimator.Kind {
	case config.EstimatorHTTP:
		check.Message = fmt.Sprintf("http %s (timeout %s)", cfg.Estimator.Endpoint, cfg.Estimator.Timeout)
	default:
		check.Message = "landmark sidecars (<image>" + pose.SidecarSuffix + ")"
	}
	report.Estimator = check
}

func checkHistory(cfg *config.Config, report *DoctorReport) {
	if cfg.History.Disabled {
		report.History = &DoctorCheck{Name: "History", Status: "missing", Message: "disabled"}
		return
	}
	if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
		report.History = &DoctorCheck{Name: "History", Status: "missing", Message: cfg.History.Path + " (created on first capture)"}
		return
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		report.History = &DoctorCheck{Name: "History", Status: "error", Message: firstLine(err)}
		report.Warnings = append(report.Warnings, "History database is unreadable; captures will run without it")
		return
	}
	defer store.Close()
	report.History = &DoctorCheck{Name: "History", Status: "ok", Message: cfg.History.Path}
}

func checkExercises(root string, cfg *config.Config, report *DoctorReport) {
	dirs, err := pipeline.Discover(root, 0)
	if err != nil {
		report.Exercises = &DoctorCheck{Name: "Exercises", Status: "error", Message: firstLine(err)}
		report.Issues = append(report.Issues, "Exercise folder could not be read")
		return
	}

	var ready, captured, noImages, noSidecar int
	for _, dir := range dirs {
		start, end, err := pipeline.ReferenceImages(dir)
		if err != nil {
			noImages++
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: missing reference images", filepath.Base(dir)))
			continue
		}
		if cfg.Estimator.Kind == config.EstimatorSidecar {
			if _, err := os.Stat(start + pose.SidecarSuffix); err != nil {
				noSidecar++
				continue
			}
			if _, err := os.Stat(end + pose.SidecarSuffix); err != nil {
				noSidecar++
				continue
			}
		}
		ready++
		if _, err := os.Stat(filepath.Join(dir, capture.FileName)); err == nil {
			captured++
		}
	}

	check := &DoctorCheck{
		Name:    "Exercises",
		Status:  "ok",
		Message: fmt.Sprintf("%d of %d ready, %d captured", ready, len(dirs), captured),
		Details: map[string]any{"missing_images": noImages, "missing_sidecars": noSidecar},
	}
	if noImages > 0 || noSidecar > 0 {
		check.Status = "warning"
	}
	if noSidecar > 0 {
		report.NextSteps = append(report.NextSteps,
			fmt.Sprintf("Generate landmark sidecars for %d exercises or use --estimator http", noSidecar))
	}
	report.Exercises = check
}

func outputDoctor(w io.Writer, report *DoctorReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, "System Diagnostics")
		fmt.Fprintln(w)
		for _, c := range []*DoctorCheck{report.Config, report.Schema, report.Estimator, report.History, report.Exercises} {
			if c != nil {
				printCheck(w, c)
			}
		}
		printList(w, "Issues:", report.Issues)
		printList(w, "Warnings:", report.Warnings)
		if len(report.NextSteps) > 0 {
			fmt.Fprintln(w, "\nNext Steps:")
			for i, step := range report.NextSteps {
				fmt.Fprintf(w, "   %d. %s\n", i+1, step)
			}
		}
		fmt.Fprintln(w)
		if report.Healthy {
			fmt.Fprintln(w, "✓ Ready to capture")
		}
	}

	if !report.Healthy {
		return fmt.Errorf("health check failed")
	}
	return nil
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w, "\n"+title)
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

func printCheck(w io.Writer, check *DoctorCheck) {
	icon := " "
	switch check.Status {
	case "ok":
		icon = "✓"
	case "warning":
		icon = "⚠"
	case "error":
		icon = "✗"
	case "missing":
		icon = "○"
	}
	fmt.Fprintf(w, "  %s %s: %s\n", icon, check.Name, check.Message)
}
