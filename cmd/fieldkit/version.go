package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thewpsquad/fieldkit"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fieldkit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fieldkit version %s\n", strings.TrimSpace(fieldkit.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
