package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/abdul-hamid-achik/dotrun/packages/core/config"
	"github.com/abdul-hamid-achik/dotrun/packages/core/env"
	"github.com/abdul-hamid-achik/dotrun/packages/core/runner"
	"github.com/abdul-hamid-achik/dotrun/packages/events"
	"github.com/abdul-hamid-achik/dotrun/packages/output"
	"github.com/abdul-hamid-achik/dotrun/packages/watch"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [-- command [args...]]",
	Short: "Run a test command and show one symbol per test",
	Long: `Run a test command and print "." for every passed test, "F" for every
failure and "S" for every skipped test, wrapping after 40 symbols.

Without a command the one from dotrun.yaml is used, or "go test -json ./...".

Examples:
  dotrun run
  dotrun run -- go test -json -race ./internal/...
  dotrun run --format tap -- npx tap --reporter=tap
  dotrun run --bail --env-file .env.test
  dotrun run --watch`,
	RunE: runCommand,
}

var (
	formatFlag   string
	configFlag   string
	envFileFlag  string
	dirFlag      string
	bailFlag     bool
	quietFlag    bool
	verboseFlag  int // 0=off, 1=-v (failure output), 2=-vv (debug logging)
	watchFlag    bool
	maxRunsFlag  int
	debounceFlag string
)

func init() {
	runCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Result stream format: go, tap, junit (env: DOTRUN_FORMAT)")
	runCmd.Flags().StringVar(&configFlag, "config", "", "Path to config file (env: DOTRUN_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", "", "Path to .env file passed to the test command (env: DOTRUN_ENV_FILE)")
	runCmd.Flags().StringVarP(&dirFlag, "dir", "C", "", "Working directory for the test command")

	runCmd.Flags().BoolVar(&bailFlag, "bail", false, "Stop on first failure (env: DOTRUN_BAIL)")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Only print progress symbols (env: DOTRUN_QUIET)")
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v shows failure output, -vv enables debug logging)")

	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run tests")
	runCmd.Flags().IntVar(&maxRunsFlag, "max-runs-per-minute", 0, "Limit watch re-runs per minute (env: DOTRUN_MAX_RUNS_PER_MINUTE)")
	runCmd.Flags().StringVar(&debounceFlag, "debounce", "", "Quiet period before a watch re-run (e.g. 300ms)")
}

// stringOverride returns value when flag name was given on the command line,
// else the flag's environment variable, else "".
func stringOverride(cmd *cobra.Command, name, value, envKey string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return getEnvString(envKey, "")
}

// boolOverride returns a bool flag given on the command line or through its
// environment variable, or nil when neither is set.
func boolOverride(cmd *cobra.Command, name string, value bool, envKey string) *bool {
	if cmd.Flags().Changed(name) {
		return config.BoolPtr(value)
	}
	if envKey != "" && os.Getenv(envKey) != "" {
		return config.BoolPtr(getEnvBool(envKey, false))
	}
	return nil
}

// loadRunConfig loads the config file and applies overrides. Command line
// flags win over DOTRUN_* variables, which win over the file.
func loadRunConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	fileConfig, err := config.LoadConfig(stringOverride(cmd, "config", configFlag, "DOTRUN_CONFIG"))
	if err != nil {
		return nil, err
	}
	if fileConfig.IsDefault() {
		log.Debug("no config file settings, using defaults")
	}

	overrides := &config.Config{
		Command: args,
		Format:  stringOverride(cmd, "format", formatFlag, "DOTRUN_FORMAT"),
		Dir:     dirFlag,
		EnvFile: stringOverride(cmd, "env-file", envFileFlag, "DOTRUN_ENV_FILE"),
		Bail:    boolOverride(cmd, "bail", bailFlag, "DOTRUN_BAIL"),
		Quiet:   boolOverride(cmd, "quiet", quietFlag, "DOTRUN_QUIET"),
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}

	merged := fileConfig.Merge(overrides)

	maxRuns := getEnvInt("DOTRUN_MAX_RUNS_PER_MINUTE", 0)
	if cmd.Flags().Changed("max-runs-per-minute") {
		maxRuns = maxRunsFlag
	}
	if maxRuns > 0 || debounceFlag != "" {
		w := *merged.GetWatch()
		if maxRuns > 0 {
			w.MaxRunsPerMinute = maxRuns
		}
		if debounceFlag != "" {
			w.Debounce = debounceFlag
		}
		merged.Watch = &w
	}
	return merged, nil
}

// session holds everything needed to run the test command once.
type session struct {
	cfg    *config.Config
	runner *runner.Runner
	out    io.Writer
	logger log.FieldLogger
}

// run executes the test command with a fresh progress reporter, so every
// run starts counting at zero.
func (s *session) run(ctx context.Context) (*runner.RunResult, error) {
	dots := output.NewDotReporter(
		output.DotWithWriter(s.out),
		output.DotWithNoColor(s.cfg.GetNoColor()),
	)

	result, err := s.runner.Run(ctx, dots)
	if result != nil && !s.cfg.GetQuiet() {
		summary := output.NewSummaryFormatter(
			output.WithWriter(s.out),
			output.WithVerbose(verboseFlag > 0),
			output.WithNoColor(s.cfg.GetNoColor()),
			output.WithProgress(dots),
		)
		summary.FormatResult(result)
	} else if dots.Pending() {
		fmt.Fprintln(s.out)
	}
	return result, err
}

func runCommand(cmd *cobra.Command, args []string) error {
	if verboseFlag > 1 && !cmd.Flags().Changed("log-level") {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	format, err := events.ParseFormat(cfg.Format)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	logger := log.WithField("cmd", "run")
	warn := func(format string, args ...any) {
		logger.Warnf(format, args...)
	}

	vars, err := env.Load(cfg.EnvFile, cfg.Env, warn)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	resolver := env.NewResolver()
	resolver.SetVariables(vars)

	var unresolved []string
	for _, arg := range cfg.Command {
		unresolved = append(unresolved, resolver.Unresolved(arg)...)
	}
	if len(unresolved) > 0 {
		logger.WithField("variables", unresolved).Warn("test command references unset variables")
	}

	runnerCfg := &runner.Config{
		Command: resolver.ResolveArgs(cfg.Command),
		Dir:     cfg.Dir,
		Env:     vars,
		Format:  format,
		Bail:    cfg.GetBail(),
		Stderr:  cmd.ErrOrStderr(),
	}
	if !cfg.GetQuiet() {
		runnerCfg.RawOutput = cmd.ErrOrStderr()
	}

	s := &session{
		cfg:    cfg,
		runner: runner.NewRunner(runnerCfg, runner.WithLogger(logger)),
		out:    cmd.OutOrStdout(),
		logger: logger,
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	result, err := s.run(ctx)
	if !watchFlag {
		return exitFor(result, err)
	}
	if errors.Is(err, runner.ErrCommandStart) {
		return exitFor(result, err)
	}
	if err != nil {
		logger.WithError(err).Warn("run failed")
	}

	return watchAndRerun(ctx, s)
}

func watchAndRerun(ctx context.Context, s *session) error {
	wcfg := s.cfg.GetWatch()
	debounce, err := wcfg.DebounceDuration()
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	paths := wcfg.Paths
	if s.cfg.Dir != "" && (s.cfg.Watch == nil || len(s.cfg.Watch.Paths) == 0) {
		paths = []string{s.cfg.Dir}
	}

	w := watch.New(
		watch.WithPaths(paths...),
		watch.WithExtensions(wcfg.Extensions...),
		watch.WithDebounce(debounce),
		watch.WithMaxRunsPerMinute(wcfg.MaxRunsPerMinute),
		watch.WithLogger(s.logger),
	)

	fmt.Fprintln(s.out)
	output.NewSummaryFormatter(
		output.WithWriter(s.out),
		output.WithNoColor(s.cfg.GetNoColor()),
	).FormatHeader(version)
	fmt.Fprintf(s.out, "Watching for changes... (press Ctrl+C to stop)\n\n")

	err = w.Run(ctx, func(ctx context.Context, changed string) {
		fmt.Fprintf(s.out, "\nFile changed: %s\nRe-running tests...\n\n", changed)
		if _, err := s.run(ctx); err != nil && ctx.Err() == nil {
			s.logger.WithError(err).Warn("run failed")
		}
		fmt.Fprintf(s.out, "\nWatching for changes... (press Ctrl+C to stop)\n")
	})
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	return nil
}

// exitFor maps a run outcome to the process exit code.
func exitFor(result *runner.RunResult, err error) error {
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		return withExitCode(ExitInterrupted, nil)
	case errors.Is(err, runner.ErrCommandStart), errors.Is(err, runner.ErrCommandFailed), errors.Is(err, runner.ErrEmptyCommand):
		return withExitCode(ExitCommandError, err)
	default:
		return withExitCode(ExitParseError, err)
	}

	if result != nil && result.Failed > 0 {
		return withExitCode(ExitTestFailure, nil)
	}
	return nil
}
