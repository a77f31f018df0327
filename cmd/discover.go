package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

func newDiscoverCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List serial and USB ports that may have a printer attached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := opts.app.discoverer.Discover(cmd.Context())
			if err != nil {
				return err
			}
			printPorts(cmd.OutOrStdout(), ports)
			return nil
		},
	}
}

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		subnet string
		port   int
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Sweep the local /24 for hosts accepting raw print connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := opts.app.scan(cmd.Context(), subnet, port)
			if err != nil {
				return err
			}
			printPorts(cmd.OutOrStdout(), ports)
			return nil
		},
	}
	cmd.Flags().StringVar(&subnet, "subnet", "", "address or prefix of the /24 to scan (default: this machine's)")
	cmd.Flags().IntVar(&port, "port", model.DefaultNetworkPort, "TCP port to probe")
	return cmd
}

func printPorts(w io.Writer, ports []model.PortDescriptor) {
	if len(ports) == 0 {
		fmt.Fprintln(w, "no ports found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tNAME\tTRANSPORT\tSOURCE")
	for _, p := range ports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Port, p.DisplayName, p.Transport, p.Source)
	}
	tw.Flush()
}
