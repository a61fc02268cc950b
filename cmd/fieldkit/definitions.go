package main

import (
	"github.com/spf13/cobra"
)

var definitionsCmd = &cobra.Command{
	Use:   "definitions <field-type>",
	Short: "Print the control schema of a field type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ft, err := parseFieldType(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		schema, err := a.registry.Definitions(ctx, ft)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), schema)
	},
}

func init() {
	rootCmd.AddCommand(definitionsCmd)
}
