package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/abdul-hamid-achik/dotrun/packages/core/runner"
	"github.com/abdul-hamid-achik/dotrun/packages/events"
	"github.com/abdul-hamid-achik/dotrun/packages/output"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file|->",
	Short: "Show progress for a recorded result stream",
	Long: `Replay a recorded result stream as if the tests were running now.

Examples:
  go test -json ./... > results.json && dotrun replay results.json
  go test -json ./... | dotrun replay -
  dotrun replay --format junit report.xml
  dotrun replay --format tap results.tap`,
	Args: cobra.ExactArgs(1),
	RunE: replayCommand,
}

var (
	replayFormatFlag string
	replayBailFlag   bool
	replayQuietFlag  bool
	replayVerbose    bool
)

func init() {
	replayCmd.Flags().StringVarP(&replayFormatFlag, "format", "f", getEnvString("DOTRUN_FORMAT", "go"), "Result stream format: go, tap, junit (env: DOTRUN_FORMAT)")
	replayCmd.Flags().BoolVar(&replayBailFlag, "bail", false, "Stop at the first failure")
	replayCmd.Flags().BoolVarP(&replayQuietFlag, "quiet", "q", false, "Only print progress symbols")
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "Show captured output of failed tests")
}

// openInput opens path for reading; "-" is stdin.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot open %s: %w", path, err)
	}
	return f, path, nil
}

func replayCommand(cmd *cobra.Command, args []string) error {
	format, err := events.ParseFormat(replayFormatFlag)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	in, source, err := openInput(cmd, args[0])
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	defer in.Close()

	out := cmd.OutOrStdout()
	dots := output.NewDotReporter(
		output.DotWithWriter(out),
		output.DotWithNoColor(noColorFlag),
	)

	r := runner.NewRunner(&runner.Config{
		Format: format,
		Bail:   replayBailFlag,
	}, runner.WithLogger(log.WithField("cmd", "replay")))

	result, err := r.Replay(cmd.Context(), in, source, dots)
	if result != nil && !replayQuietFlag {
		output.NewSummaryFormatter(
			output.WithWriter(out),
			output.WithVerbose(replayVerbose),
			output.WithNoColor(noColorFlag),
			output.WithProgress(dots),
		).FormatResult(result)
	} else if dots.Pending() {
		fmt.Fprintln(out)
	}

	return exitFor(result, err)
}
