package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/cback/cmd"
	"github.com/thoreinstein/cback/internal/process"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

// versionTools are reported by the version command.
var versionTools = []string{"cdrecord", "growisofs", "mkisofs", "eject"}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long: `Print the version, commit, and build date of cback, and where each
external burning tool resolves to.`,
	Run: func(c *cobra.Command, _ []string) {
		out := c.OutOrStdout()
		fmt.Fprintf(out, "cback version %s\n", cmd.Version)
		fmt.Fprintf(out, "  commit:    %s\n", cmd.Commit)
		fmt.Fprintf(out, "  built:     %s\n", cmd.Date)
		fmt.Fprintf(out, "  go:        %s\n", runtime.Version())
		fmt.Fprintln(out, "  tools:")

		var overrides map[string]string
		if loadedConfig != nil {
			overrides = loadedConfig.Commands
		}
		resolver := process.NewExecutor(process.WithOverrides(overrides))
		for _, tool := range versionTools {
			path, err := resolver.Resolve(tool)
			if err != nil {
				path = "not found"
			}
			fmt.Fprintf(out, "    %-10s %s\n", tool+":", path)
		}
	},
}
