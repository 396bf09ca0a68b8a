package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karlding/canbittiming/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cmd.Root().Name(), version.VERSION)
	},
}
