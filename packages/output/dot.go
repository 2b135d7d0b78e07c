package output

import (
	"io"
	"os"
	"sync"

	"github.com/abdul-hamid-achik/dotrun/packages/listener"
	"github.com/fatih/color"
)

// LineWidth is the number of symbols printed before the dot row wraps.
const LineWidth = 40

const (
	symbolSuccess = "."
	symbolFailure = "F"
	symbolSkipped = "S"
)

// flusher is implemented by buffered writers such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// DotReporter prints one symbol per finished test and wraps the row after
// every LineWidth symbols, counting all outcomes together.
//
// When the process stdout is a terminal and color is not disabled, F and S
// are wrapped in ANSI escape codes and take more than one byte each. With
// DotWithNoColor, or when stdout is not a terminal, every test writes exactly
// one byte.
type DotReporter struct {
	mu      sync.Mutex
	writer  io.Writer
	count   int
	noColor bool

	failure *color.Color
	skipped *color.Color
}

var _ listener.Listener = (*DotReporter)(nil)

// DotOption configures a DotReporter.
type DotOption func(*DotReporter)

// NewDotReporter returns a reporter writing to os.Stdout.
func NewDotReporter(opts ...DotOption) *DotReporter {
	r := &DotReporter{
		writer:  os.Stdout,
		failure: color.New(color.FgRed, color.Bold),
		skipped: color.New(color.FgYellow),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.noColor {
		r.failure.DisableColor()
		r.skipped.DisableColor()
	}
	return r
}

// DotWithWriter sets the destination of the progress symbols.
func DotWithWriter(w io.Writer) DotOption {
	return func(r *DotReporter) {
		r.writer = w
	}
}

// DotWithNoColor prints F and S without color codes.
func DotWithNoColor(nc bool) DotOption {
	return func(r *DotReporter) {
		r.noColor = nc
	}
}

func (r *DotReporter) OnFailure(*listener.Result) {
	r.emit(symbolFailure, r.failure)
}

func (r *DotReporter) OnSkipped(*listener.Result) {
	r.emit(symbolSkipped, r.skipped)
}

func (r *DotReporter) OnSuccess(*listener.Result) {
	r.emit(symbolSuccess, nil)
}

// Count returns the number of symbols emitted so far.
func (r *DotReporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Pending reports whether the current row has symbols but no line break yet.
func (r *DotReporter) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count%LineWidth != 0
}

// emit writes symbol and, when the row is full, a line break. Write errors
// are ignored.
func (r *DotReporter) emit(symbol string, c *color.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c != nil {
		_, _ = c.Fprint(r.writer, symbol)
	} else {
		_, _ = io.WriteString(r.writer, symbol)
	}
	r.flush()

	r.count++
	if r.count%LineWidth == 0 {
		_, _ = io.WriteString(r.writer, "\n")
		r.flush()
	}
}

func (r *DotReporter) flush() {
	if f, ok := r.writer.(flusher); ok {
		_ = f.Flush()
	}
}
