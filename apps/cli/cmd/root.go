package cmd

import (
	"errors"
	"os"
	"strconv"

	"github.com/abdul-hamid-achik/dotrun/packages/output"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	logLevelFlag string
	noColorFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "dotrun",
	Short: "One dot per test.",
	Long: `dotrun runs a test command and shows its progress as one character
per finished test: "." passed, "F" failed, "S" skipped, forty to a line.

It understands go test -json, TAP and JUnit XML result streams, and can
replay recorded streams or re-run tests when files change.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevelFlag)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		log.SetLevel(level)
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
		log.SetOutput(cmd.ErrOrStderr())

		if noColorFlag {
			color.NoColor = true
		}
		return nil
	},
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.err != nil {
			output.NewSummaryFormatter(
				output.WithWriter(os.Stderr),
				output.WithNoColor(noColorFlag),
			).FormatError(err)
		}
		os.Exit(exitCodeOf(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", getEnvString("DOTRUN_LOG_LEVEL", "warn"), "Log level: trace, debug, info, warn, error (env: DOTRUN_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("DOTRUN_NO_COLOR", os.Getenv("NO_COLOR") != ""), "Disable colored output (env: DOTRUN_NO_COLOR, NO_COLOR)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
