// Package progress draws a single-line progress bar for batch captures.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const barWidth = 40

// Bar counts finished units and redraws itself in place
type Bar struct {
	writer    io.Writer
	total     int
	done      int
	failed    int
	startTime time.Time
	now       func() time.Time
	mu        sync.Mutex
}

// NewBar creates a bar for total units
func NewBar(w io.Writer, total int) *Bar {
	return &Bar{
		writer:    w,
		total:     total,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Increment records one finished unit. Safe for concurrent use.
func (b *Bar) Increment(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done++
	if !ok {
		b.failed++
	}
	b.render()
}

func (b *Bar) render() {
	fraction := 1.0
	if b.total > 0 {
		fraction = float64(b.done) / float64(b.total)
	}
	filled := min(int(float64(barWidth)*fraction), barWidth)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	fmt.Fprintf(b.writer, "\r[%s] %3.0f%% | %d/%d | ✓ %d | ✗ %d | %s",
		bar,
		fraction*100,
		b.done,
		b.total,
		b.done-b.failed,
		b.failed,
		formatDuration(b.now().Sub(b.startTime)),
	)
}

// Finish ends the bar's line
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	fmt.Fprintln(b.writer)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
