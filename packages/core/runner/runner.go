package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/dotrun/packages/events"
	"github.com/abdul-hamid-achik/dotrun/packages/listener"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultWaitDelay bounds how long Wait blocks on output pipes held open
	// by grandchildren after the test command was cancelled.
	DefaultWaitDelay = 2 * time.Second
)

var (
	// ErrEmptyCommand is returned when no test command is configured.
	ErrEmptyCommand = errors.New("no test command configured")
	// ErrCommandStart is returned when the test command cannot be started.
	ErrCommandStart = errors.New("cannot start test command")
	// ErrCommandFailed is returned when the test command exits non-zero
	// without reporting any failed test, e.g. on a build failure.
	ErrCommandFailed = errors.New("test command failed")
)

// errBail stops decoding after the first failure when Config.Bail is set.
var errBail = errors.New("bail")

type Runner struct {
	config *Config
	logger logrus.FieldLogger
}

type Config struct {
	Command []string
	Dir     string
	Env     map[string]string
	Format  events.Format
	Bail    bool

	// Stderr receives the test command's stderr. Defaults to os.Stderr.
	Stderr io.Writer
	// RawOutput receives stdout lines that are not part of the result
	// stream, such as compiler errors. Nil discards them.
	RawOutput io.Writer
}

type Option func(*Runner)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Format == "" {
		cfg.Format = events.FormatGo
	}

	r := &Runner{
		config: cfg,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunResult holds the tally of one run. The runner counts outcomes so that
// listeners do not have to.
type RunResult struct {
	Session  string
	Source   string
	Passed   int
	Failed   int
	Skipped  int
	Failures []*listener.Result
	Duration time.Duration
	ExitCode int
	Bailed   bool
}

// Total returns the number of finished tests.
func (r *RunResult) Total() int {
	return r.Passed + r.Failed + r.Skipped
}

func (r *RunResult) record(ev events.Event) {
	switch ev.Kind {
	case listener.KindFailure:
		r.Failed++
		r.Failures = append(r.Failures, ev.Result)
	case listener.KindSkipped:
		r.Skipped++
	default:
		r.Passed++
	}
}

func newRunResult(source string) *RunResult {
	return &RunResult{
		Session: uuid.NewString(),
		Source:  source,
	}
}

// Run starts the configured test command, decodes its stdout and reports
// every finished test to l, one callback at a time, in stream order.
func (r *Runner) Run(ctx context.Context, l listener.Listener) (*RunResult, error) {
	if len(r.config.Command) == 0 {
		return nil, ErrEmptyCommand
	}

	start := time.Now()
	result := newRunResult(strings.Join(r.config.Command, " "))
	log := r.logger.WithFields(logrus.Fields{
		"session": result.Session,
		"command": result.Source,
		"format":  string(r.config.Format),
	})

	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := r.buildCommand(cmdCtx)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommandStart, err)
	}

	log.Debug("starting test command")
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrCommandStart, result.Source, err)
	}

	decodeErr := r.dispatch(cmdCtx, stdout, l, result, log)
	if errors.Is(decodeErr, errBail) {
		result.Bailed = true
		decodeErr = nil
		log.Info("stopping test command after first failure")
	}
	if decodeErr != nil || result.Bailed {
		cancel()
	}

	waitErr := cmd.Wait()
	result.Duration = time.Since(start)
	result.ExitCode = exitCode(cmd, waitErr)

	log.WithFields(logrus.Fields{
		"passed":    result.Passed,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
		"exit_code": result.ExitCode,
		"duration":  result.Duration,
	}).Debug("test command finished")

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if decodeErr != nil {
		return result, fmt.Errorf("decoding %s stream: %w", r.config.Format, decodeErr)
	}
	if result.Bailed {
		return result, nil
	}
	if waitErr != nil && result.Failed == 0 {
		return result, fmt.Errorf("%w: %q exited with status %d", ErrCommandFailed, result.Source, result.ExitCode)
	}
	return result, nil
}

// Replay decodes a recorded result stream and reports it to l exactly as Run
// would for a live command.
func (r *Runner) Replay(ctx context.Context, in io.Reader, source string, l listener.Listener) (*RunResult, error) {
	start := time.Now()
	result := newRunResult(source)
	log := r.logger.WithFields(logrus.Fields{
		"session": result.Session,
		"source":  source,
		"format":  string(r.config.Format),
	})

	err := r.dispatch(ctx, in, l, result, log)
	result.Duration = time.Since(start)
	if errors.Is(err, errBail) {
		result.Bailed = true
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("decoding %s stream: %w", r.config.Format, err)
	}
	return result, nil
}

func (r *Runner) dispatch(ctx context.Context, in io.Reader, l listener.Listener, result *RunResult, log logrus.FieldLogger) error {
	dec, err := events.NewDecoder(r.config.Format, events.WithRawLineHandler(func(line string) {
		log.WithField("line", line).Trace("non-result output")
		if r.config.RawOutput != nil {
			fmt.Fprintln(r.config.RawOutput, line)
		}
	}))
	if err != nil {
		return err
	}

	return dec.Decode(ctx, in, func(ev events.Event) error {
		result.record(ev)
		log.WithFields(logrus.Fields{
			"test":    ev.Result.FullName(),
			"outcome": ev.Kind.String(),
		}).Debug("test finished")

		listener.Dispatch(l, ev.Kind, ev.Result)

		if r.config.Bail && ev.Kind == listener.KindFailure {
			return errBail
		}
		return nil
	})
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		if code := cmd.ProcessState.ExitCode(); code >= 0 {
			return code
		}
	}
	if waitErr != nil {
		return -1
	}
	return 0
}

// stderr returns the writer for the test command's stderr.
func (r *Runner) stderr() io.Writer {
	if r.config.Stderr != nil {
		return r.config.Stderr
	}
	return os.Stderr
}
