package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/dotrun/packages/core/runner"
	"github.com/fatih/color"
)

// maxOutputLines caps how much captured test output is echoed per failure.
const maxOutputLines = 20

// truncateLines keeps the last limit lines of s.
func truncateLines(s string, limit int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= limit {
		return strings.Join(lines, "\n")
	}
	omitted := len(lines) - limit
	return fmt.Sprintf("... (%d lines omitted)\n%s", omitted, strings.Join(lines[omitted:], "\n"))
}

// progress is satisfied by *DotReporter.
type progress interface {
	Pending() bool
}

// SummaryFormatter prints the totals after a run has finished.
type SummaryFormatter struct {
	writer   io.Writer
	verbose  bool
	noColor  bool
	progress progress
}

type SummaryOption func(*SummaryFormatter)

func NewSummaryFormatter(opts ...SummaryOption) *SummaryFormatter {
	f := &SummaryFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithWriter(w io.Writer) SummaryOption {
	return func(f *SummaryFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) SummaryOption {
	return func(f *SummaryFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) SummaryOption {
	return func(f *SummaryFormatter) {
		f.noColor = nc
	}
}

// WithProgress lets the summary finish an incomplete dot row before printing.
func WithProgress(p *DotReporter) SummaryOption {
	return func(f *SummaryFormatter) {
		f.progress = p
	}
}

func (f *SummaryFormatter) colors() (green, red, yellow, cyan, bold func(a ...interface{}) string) {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if f.noColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return mk(color.FgGreen), mk(color.FgRed), mk(color.FgYellow), mk(color.FgCyan), mk(color.Bold)
}

func (f *SummaryFormatter) FormatResult(result *runner.RunResult) {
	green, red, yellow, cyan, bold := f.colors()

	if f.progress != nil && f.progress.Pending() {
		fmt.Fprintln(f.writer)
	}
	fmt.Fprintln(f.writer)

	if len(result.Failures) > 0 {
		fmt.Fprintf(f.writer, "%s\n", bold("Failures:"))
		for _, r := range result.Failures {
			fmt.Fprintf(f.writer, "  %s %s", red("✗"), r.FullName())
			if r.Elapsed > 0 {
				fmt.Fprintf(f.writer, " %s", cyan(fmt.Sprintf("(%dms)", r.Elapsed.Milliseconds())))
			}
			fmt.Fprintln(f.writer)
			if r.Message != "" {
				fmt.Fprintf(f.writer, "    %s %s\n", red("→"), r.Message)
			}
			if f.verbose && strings.TrimSpace(r.Output) != "" {
				for _, line := range strings.Split(truncateLines(r.Output, maxOutputLines), "\n") {
					fmt.Fprintf(f.writer, "      %s\n", line)
				}
			}
		}
		fmt.Fprintln(f.writer)
	}

	fmt.Fprintf(f.writer, "Tests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", result.Total())
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())
	if result.Bailed {
		fmt.Fprintf(f.writer, "%s\n", yellow("Stopped after first failure (--bail)"))
	}
}

func (f *SummaryFormatter) FormatError(err error) {
	_, red, _, _, _ := f.colors()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *SummaryFormatter) FormatHeader(version string) {
	_, _, _, _, bold := f.colors()
	fmt.Fprintf(f.writer, "%s %s\n", bold("dotrun"), version)
}
