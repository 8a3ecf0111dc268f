// Package spinner renders terminal progress for sampler phases.
//
// On a terminal the bar is redrawn in place; on any other writer a plain
// line is printed at every tenth of the phase so logs stay readable.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	carriageReturn = "\r"

	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"

	symbolSuccess = "✓"
	symbolFailure = "✗"

	barFilled = "█"
	barEmpty  = "░"
)

// ProgressConfig holds configuration options for a progress bar.
type ProgressConfig struct {
	// Total is the number of steps in the phase.
	Total int

	// Message prefixes the bar, e.g. "burn-in".
	Message string

	// Width of the bar in characters. Defaults to 20.
	Width int

	// ShowETA appends the estimated time remaining once two steps are done.
	ShowETA bool

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// IsTTY overrides terminal detection on Writer.
	IsTTY *bool
}

// ProgressBar tracks one sampler phase.
type ProgressBar struct {
	mu sync.Mutex

	config  ProgressConfig
	current int
	detail  string
	start   time.Time
	active  bool
	isTTY   bool

	// lastOutput is the length of the last inline render, for clearing.
	lastOutput int
}

// NewProgress creates a progress bar for total steps.
func NewProgress(total int, message string) *ProgressBar {
	return NewProgressWithConfig(ProgressConfig{Total: total, Message: message, ShowETA: true})
}

// NewProgressWithConfig creates a progress bar with custom configuration.
func NewProgressWithConfig(config ProgressConfig) *ProgressBar {
	if config.Total <= 0 {
		config.Total = 1
	}
	if config.Width <= 0 {
		config.Width = 20
	}
	if config.Writer == nil {
		config.Writer = os.Stderr
	}

	isTTY := isTerminalWriter(config.Writer)
	if config.IsTTY != nil {
		isTTY = *config.IsTTY
	}
	return &ProgressBar{config: config, isTTY: isTTY}
}

func isTerminalWriter(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Current returns the number of completed steps.
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// IsActive reports whether Start has been called without Complete or Fail.
func (p *ProgressBar) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Start shows the empty bar. Calling it twice is a no-op.
func (p *ProgressBar) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active {
		return
	}
	p.active = true
	p.start = time.Now()
	p.current = 0

	if p.isTTY {
		fmt.Fprint(p.config.Writer, hideCursor)
		p.redraw()
		return
	}
	fmt.Fprintln(p.config.Writer, p.line())
}

// Set records n completed steps and a short status, such as the ensemble
// log-probability, shown after the counters.
func (p *ProgressBar) Set(n int, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return
	}
	n = max(0, min(n, p.config.Total))
	old := p.current
	p.current = n
	p.detail = detail

	if p.isTTY {
		p.redraw()
		return
	}
	if n*10/p.config.Total > old*10/p.config.Total || (n == p.config.Total && old != n) {
		fmt.Fprintln(p.config.Writer, p.line())
	}
}

// Complete stops the bar with a success line.
func (p *ProgressBar) Complete(message string) {
	p.finish(message, symbolSuccess, colorGreen)
}

// Fail stops the bar with a failure line.
func (p *ProgressBar) Fail(message string) {
	p.finish(message, symbolFailure, colorRed)
}

func (p *ProgressBar) finish(message, symbol, color string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if message == "" {
		message = p.config.Message + " complete"
	}
	elapsed := formatElapsed(time.Since(p.start))

	if p.isTTY && p.active {
		p.clear()
		fmt.Fprint(p.config.Writer, showCursor)
	}
	p.active = false

	if p.isTTY {
		fmt.Fprintf(p.config.Writer, "%s%s%s %s %s\n", color, symbol, colorReset, message, elapsed)
		return
	}
	fmt.Fprintf(p.config.Writer, "%s %s %s\n", symbol, message, elapsed)
}

// line builds "message [████░░░░] 40% (40/100) detail ETA: 3s".
// Caller must hold the mutex.
func (p *ProgressBar) line() string {
	total := p.config.Total
	parts := make([]string, 0, 6)
	if p.config.Message != "" {
		parts = append(parts, p.config.Message)
	}

	filled := p.current * p.config.Width / total
	parts = append(parts,
		"["+strings.Repeat(barFilled, filled)+strings.Repeat(barEmpty, p.config.Width-filled)+"]",
		fmt.Sprintf("%d%%", p.current*100/total),
		fmt.Sprintf("(%d/%d)", p.current, total))

	if p.detail != "" {
		parts = append(parts, p.detail)
	}
	if p.config.ShowETA && p.current >= 2 && p.current < total {
		perStep := time.Since(p.start) / time.Duration(p.current)
		parts = append(parts, "ETA: "+formatETA(perStep*time.Duration(total-p.current)))
	}
	return strings.Join(parts, " ")
}

// Caller must hold the mutex.
func (p *ProgressBar) redraw() {
	p.clear()
	out := p.line()
	fmt.Fprint(p.config.Writer, out)
	p.lastOutput = len([]rune(out))
}

// Caller must hold the mutex.
func (p *ProgressBar) clear() {
	if p.lastOutput > 0 {
		fmt.Fprint(p.config.Writer, carriageReturn+strings.Repeat(" ", p.lastOutput)+carriageReturn)
		p.lastOutput = 0
	}
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%.1fs)", d.Seconds())
	}
	return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
}

func formatETA(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", max(1, int(d.Seconds()+0.5)))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
