package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

// printerFlags describes a printer on the command line, either by registry
// id or by address.
type printerFlags struct {
	id        string
	name      string
	transport string
	host      string
	port      int
	device    string
	baud      int
	model     string
}

func (f *printerFlags) register(fs *pflag.FlagSet, withID bool) {
	if withID {
		fs.StringVar(&f.id, "printer", "", "registered printer id (default: the default printer)")
	}
	fs.StringVar(&f.name, "name", "", "display name")
	fs.StringVar(&f.transport, "transport", "", "network or serial (inferred when empty)")
	fs.StringVar(&f.host, "host", "", "network printer host")
	fs.IntVar(&f.port, "port", 0, "network printer port (default 9100)")
	fs.StringVar(&f.device, "device", "", "serial or USB device path, e.g. COM3 or /dev/usb/lp0")
	fs.IntVar(&f.baud, "baud", 0, "serial baud rate (default 9600)")
	fs.StringVar(&f.model, "model", "", "printer model")
}

func (f *printerFlags) config() *model.PrinterConfig {
	if f.id == "" && f.host == "" && f.device == "" {
		return nil
	}
	return &model.PrinterConfig{
		ID:         f.id,
		Name:       f.name,
		Transport:  model.TransportKind(f.transport),
		Host:       f.host,
		Port:       f.port,
		DevicePath: f.device,
		BaudRate:   f.baud,
		Model:      f.model,
	}
}

func newPrintersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "printers",
		Short: "Manage the printer registry",
	}
	cmd.AddCommand(
		newPrintersListCmd(opts),
		newPrintersAddCmd(opts),
		newPrintersDeleteCmd(opts),
		newPrintersDefaultCmd(opts),
	)
	return cmd
}

func newPrintersListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered printers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printers, err := opts.app.printers.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(printers) == 0 {
				fmt.Fprintln(out, "no printers registered")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTRANSPORT\tTARGET\tSTATUS\tDEFAULT")
			for _, p := range printers {
				target := p.DevicePath
				if p.Transport == model.TransportNetwork {
					target = p.Address()
				}
				def := ""
				if p.IsDefault {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Transport, target, p.Status, def)
			}
			return tw.Flush()
		},
	}
}

func newPrintersAddCmd(opts *rootOptions) *cobra.Command {
	var (
		flags     printerFlags
		asDefault bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a printer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := flags.config()
			if cfg == nil {
				return &model.ConfigError{Field: "printer", Reason: "--host or --device is required"}
			}
			cfg.IsDefault = asDefault
			saved, err := opts.app.printers.Save(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added printer %s (%s)\n", saved.ID, saved.Label())
			return nil
		},
	}
	flags.register(cmd.Flags(), false)
	cmd.Flags().BoolVar(&asDefault, "default", false, "make this the default printer")
	return cmd
}

func newPrintersDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a printer from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := opts.app.printers.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("printer %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted printer %s\n", args[0])
			return nil
		},
	}
}

func newPrintersDefaultCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "default <id>",
		Short: "Make a registered printer the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := opts.app.printers.Get(ctx, args[0])
			if err != nil {
				return err
			}
			p.IsDefault = true
			if _, err := opts.app.printers.Save(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "default printer is now %s (%s)\n", p.ID, p.Label())
			return nil
		},
	}
}
