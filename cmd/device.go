package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTestCmd(opts *rootOptions) *cobra.Command {
	var flags printerFlags
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Open and close the printer transport without printing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			printer, err := opts.app.printing.ResolvePrinter(ctx, flags.config())
			if err != nil {
				return err
			}
			ok, err := opts.app.printing.TestConnection(ctx, printer)
			if !ok {
				return fmt.Errorf("printer %s is unreachable: %w", printer.Label(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "printer %s is reachable\n", printer.Label())
			return nil
		},
	}
	flags.register(cmd.Flags(), true)
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var flags printerFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query the printer's real-time status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			printer, err := opts.app.printing.ResolvePrinter(ctx, flags.config())
			if err != nil {
				return err
			}
			report, err := opts.app.printing.QueryStatus(ctx, printer)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", printer.Label(), report.Status, report.Message)
			return nil
		},
	}
	flags.register(cmd.Flags(), true)
	return cmd
}
