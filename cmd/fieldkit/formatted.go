package main

import (
	"github.com/spf13/cobra"
)

var formattedTypes bool

var formattedCmd = &cobra.Command{
	Use:   "formatted <field-type>",
	Short: "List selectable field keys per post type",
	Long:  `List the discovered field keys and their labels per post type. With --types, group the keys by field type instead.`,
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

		p, err := a.registry.Processor(ft)
		if err != nil {
			return err
		}
		if formattedTypes {
			return writeJSON(cmd.OutOrStdout(), p.FieldTypes(ctx))
		}
		return writeJSON(cmd.OutOrStdout(), p.FormattedFields(ctx))
	},
}

func init() {
	rootCmd.AddCommand(formattedCmd)
	formattedCmd.Flags().BoolVar(&formattedTypes, "types", false, "Group field keys by field type")
}
