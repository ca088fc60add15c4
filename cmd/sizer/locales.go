package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLocalesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "locales",
		Short: "List the supported locales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			for i, set := range engine.Registry().Sets() {
				marker := ""
				if i == 0 {
					marker = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s%s\n", set.Locale, set.Currency, marker)
			}
			return nil
		},
	}
}
