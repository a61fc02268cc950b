package main

import (
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields <field-type> <id>",
	Short: "Print the custom fields of an entity",
	Long:  `Print the filtered custom fields of an entity as JSON. field-type is native or structured.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ft, err := parseFieldType(args[0])
		if err != nil {
			return err
		}
		id, err := parseEntityID(args[1])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		fields, err := a.registry.Fields(ctx, ft, id)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), fields)
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
