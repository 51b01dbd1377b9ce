package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kestrel/internal/selftest"
)

func newSelftestCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the built-in container checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return instrumented(cmd, func(ctx context.Context) error {
				if verbose {
					for _, c := range selftest.Checks() {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", c.Name)
					}
				}
				if err := selftest.Run(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Passed")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list the checks before running them")
	return cmd
}
