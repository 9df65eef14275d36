// Package tui holds the accept/reject surface for validated poses.
package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/exlogic/internal/validate"
)

// Evidence is what the reviewer sees before deciding.
type Evidence struct {
	Start      validate.Result
	End        validate.Result
	FigurePath string
}

// OK reports whether both poses passed validation.
func (e Evidence) OK() bool {
	return e.Start.OK && e.End.OK
}

// Confirmer decides whether an exercise's poses are accepted.
type Confirmer interface {
	Confirm(label string, ev Evidence) (bool, error)
	// Interactive reports whether Confirm needs the terminal. Interactive
	// confirmers cannot be shared by parallel workers.
	Interactive() bool
}

// AutoApprove accepts everything.
type AutoApprove struct{}

func (AutoApprove) Confirm(string, Evidence) (bool, error) { return true, nil }
func (AutoApprove) Interactive() bool                      { return false }

// Decline rejects everything. It stands in for a prompt when no terminal is
// attached.
type Decline struct{}

func (Decline) Confirm(string, Evidence) (bool, error) { return false, nil }
func (Decline) Interactive() bool                      { return false }

// LineConfirmer asks a y/N question on a line-oriented stream.
type LineConfirmer struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// NewLineConfirmer prompts on out and reads answers from in.
func NewLineConfirmer(in io.Reader, out io.Writer) *LineConfirmer {
	return &LineConfirmer{In: in, Out: out, reader: bufio.NewReader(in)}
}

// Confirm implements Confirmer. Anything but y or yes is a rejection.
func (c *LineConfirmer) Confirm(label string, ev Evidence) (bool, error) {
	if c.reader == nil {
		c.reader = bufio.NewReader(c.In)
	}
	fmt.Fprintf(c.Out, "[%s] Accept validated poses? (start %s, end %s) [y/N]: ",
		label, passFail(ev.Start.OK), passFail(ev.End.OK))

	line, err := c.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (c *LineConfirmer) Interactive() bool { return true }

// HuhConfirmer shows a styled validation summary and a huh confirm form.
type HuhConfirmer struct {
	Out    io.Writer
	Styles Styles
}

// NewHuhConfirmer returns a form-based confirmer writing to stderr.
func NewHuhConfirmer() *HuhConfirmer {
	return &HuhConfirmer{Out: os.Stderr, Styles: DefaultStyles()}
}

// Confirm implements Confirmer.
func (c *HuhConfirmer) Confirm(label string, ev Evidence) (bool, error) {
	fmt.Fprintln(c.Out, RenderSummary(label, ev, c.Styles))

	confirmed := false
	confirm := huh.NewConfirm().
		Title(fmt.Sprintf("Accept poses for %s?", label)).
		Affirmative("Accept").
		Negative("Reject").
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

func (c *HuhConfirmer) Interactive() bool { return true }

// ValidationText is the plain summary shown to reviewers.
func ValidationText(ev Evidence) string {
	lines := []string{"Validation summary:"}
	lines = append(lines, "Start: "+verdict(ev.Start))
	for _, is := range ev.Start.Issues {
		lines = append(lines, "- "+is.Message)
	}
	lines = append(lines, "", "End: "+verdict(ev.End))
	for _, is := range ev.End.Issues {
		lines = append(lines, "- "+is.Message)
	}
	return strings.Join(lines, "\n")
}

// RenderSummary is ValidationText styled for a terminal.
func RenderSummary(label string, ev Evidence, s Styles) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(label))
	b.WriteString("\n")
	for _, side := range []struct {
		name string
		res  validate.Result
	}{{"Start", ev.Start}, {"End", ev.End}} {
		status := s.Success.Render("PASS")
		if !side.res.OK {
			status = s.Error.Render("FAIL")
		}
		fmt.Fprintf(&b, "%s: %s\n", side.name, status)
		for _, is := range side.res.Issues {
			b.WriteString(s.Muted.Render("  - "+is.Message) + "\n")
		}
	}
	if ev.FigurePath != "" {
		b.WriteString(s.Muted.Render("Figure: " + ev.FigurePath))
	}
	return s.Border.Render(strings.TrimRight(b.String(), "\n"))
}

func verdict(r validate.Result) string {
	if r.OK {
		return "PASS"
	}
	return "FAIL"
}

func passFail(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAIL"
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
