package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the example dataset and print the assigned ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			res, err := a.svc.Seed(cmd.Context(), reset)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "delete every person and relationship first")
	return cmd
}
