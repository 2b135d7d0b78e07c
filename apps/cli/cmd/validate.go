package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/dotrun/packages/events"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Validate a go test -json stream",
	Long: `Validate that every line of a recorded go test -json stream is a
well-formed test2json event.

Examples:
  dotrun validate results.json
  go test -json ./... | dotrun validate -`,
	Args: cobra.ExactArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	in, source, err := openInput(cmd, args[0])
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	defer in.Close()

	issues, err := events.ValidateStream(in)
	if err != nil {
		return withExitCode(ExitParseError, err)
	}

	if len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", source, issue)
		}
		return withExitCode(ExitParseError, fmt.Errorf("validation failed: %d invalid lines", len(issues)))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", source)
	return nil
}
