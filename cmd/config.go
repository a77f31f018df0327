package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Riboost-Studio/pos-device-bridge/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(opts), newConfigShowCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the resolved settings",
		Args:  cobra.NoArgs,
		// The target file may not exist yet, so it is only read when present.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			file := opts.configFile
			if _, err := os.Stat(file); err != nil {
				file = ""
			}
			return opts.wire(file)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configFile
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}
			if err := config.WriteFile(path, *opts.app.cfg, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Encode(*opts.app.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
