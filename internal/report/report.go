// Package report renders attempt outcomes to stdout and tracks the two
// run-wide counters (spec.md §4.8, §5): requests attempted and transport
// errors. It owns the progress bar so prints never interleave with the
// bar's redraws.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/roelfdiedericks/csrfkiller/internal/config"
)

// column widths per spec.md §6: "# status length lines words payload",
// left-aligned fixed-width 10/15/15/15/15/15.
const (
	colNo      = 10
	colStatus  = 15
	colLength  = 15
	colLines   = 15
	colWords   = 15
	colPayload = 15
)

// Progress tracks the two relaxed-ordering counters from spec.md §5 and
// drives the bar-renderer collaborator.
type Progress struct {
	requestsCompleted atomic.Uint64
	transportErrors   atomic.Uint64

	runID uuid.UUID
	bar   *progressbar.ProgressBar
	out   io.Writer
}

// New builds a Progress sized to total payloads. When stdout is not a
// terminal the bar degrades to a quiet no-op (mirrors the teacher's habit
// of checking golang.org/x/term before choosing a rendering mode), and
// plain header/row lines are still written to out. Each run gets a random
// id, used to correlate log lines across a single invocation.
func New(total int, out io.Writer) *Progress {
	p := &Progress{out: out, runID: uuid.New()}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		p.bar = progressbar.DefaultSilent(int64(total))
		return p
	}

	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("attacking"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return p
}

// PrintHeader writes the one-time column header (spec.md §6).
func (p *Progress) PrintHeader() {
	p.writeLine(row("#", "status", "length", "lines", "words", "payload"))
}

// Attempt records one completed pipeline attempt: increments no_req always,
// and prints the row unless suppressed or on a transport error.
func (p *Progress) Attempt(settings *config.Settings, no uint64, status int, length, lines, words int64, payload string) {
	p.requestsCompleted.Add(1)
	p.bar.Add(1) //nolint:errcheck

	if settings.Filters.Suppress(uint16(status), uint64(length), uint64(words), uint64(lines)) {
		return
	}

	line := row(strconv.FormatUint(no, 10), strconv.Itoa(status), strconv.FormatInt(length, 10),
		strconv.FormatInt(lines, 10), strconv.FormatInt(words, 10), payload)
	p.bar.Clear() //nolint:errcheck
	p.writeLine(line)
}

// TransportError increments both no_req and no_err and updates the bar's
// side message; per spec.md §4.8 this never produces a printed row.
func (p *Progress) TransportError() {
	p.requestsCompleted.Add(1)
	p.transportErrors.Add(1)
	p.bar.Describe(fmt.Sprintf("attacking (errors: %d)", p.transportErrors.Load()))
	p.bar.Add(1) //nolint:errcheck
}

// Finish closes out the bar once the pool drains.
func (p *Progress) Finish() {
	p.bar.Finish() //nolint:errcheck
}

// RunID returns this run's correlation id.
func (p *Progress) RunID() uuid.UUID { return p.runID }

// RequestsCompleted returns the no_req counter.
func (p *Progress) RequestsCompleted() uint64 { return p.requestsCompleted.Load() }

// TransportErrors returns the no_err counter.
func (p *Progress) TransportErrors() uint64 { return p.transportErrors.Load() }

func (p *Progress) writeLine(s string) {
	fmt.Fprintln(p.out, s)
}

func row(no, status, length, lines, words, payload string) string {
	var b strings.Builder
	b.WriteString(padded(no, colNo))
	b.WriteString(padded(status, colStatus))
	b.WriteString(padded(length, colLength))
	b.WriteString(padded(lines, colLines))
	b.WriteString(padded(words, colWords))
	b.WriteString(padded(payload, colPayload))
	return strings.TrimRight(b.String(), " ")
}

func padded(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Classify computes the §4.8 stats from a response body.
func Classify(body string) (lines, words int64) {
	if body == "" {
		return 0, 0
	}
	lines = int64(strings.Count(body, "\n")) + 1
	words = int64(len(strings.Fields(body)))
	return lines, words
}
