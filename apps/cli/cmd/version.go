package cmd

import (
	"fmt"
	"runtime"

	"github.com/abdul-hamid-achik/dotrun/packages/events"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "dotrun version %s\n", version)
		fmt.Fprintf(out, "Built:   %s\n", buildTime)
		fmt.Fprintf(out, "Go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Formats: %s\n", formatNames())
	},
}

func formatNames() string {
	names := ""
	for i, f := range events.Formats {
		if i > 0 {
			names += ", "
		}
		names += string(f)
	}
	return names
}
