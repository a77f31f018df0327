package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Riboost-Studio/pos-device-bridge/internal/config"
)

type rootOptions struct {
	configFile string
	viper      *viper.Viper
	app        *app
}

// wire loads the configuration from file and builds the shared app.
func (o *rootOptions) wire(file string) error {
	cfg, err := config.Load(o.viper, file)
	if err != nil {
		return err
	}
	o.app = wireApp(cfg)
	return nil
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	opts := &rootOptions{viper: v}

	rootCmd := &cobra.Command{
		Use:           "posbridge",
		Short:         "POS device bridge: thermal printers and branding image cache",
		Long:          "posbridge renders receipts and kitchen tokens as ESC/POS, sends them to network or serial/USB printers, discovers and polls printers, and mirrors branding and product images for the point of sale.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return opts.wire(opts.configFile)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if opts.app != nil {
				opts.app.Close()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: posbridge.toml in the user config directory)")
	flags.String("data-dir", "", "directory for the printer registry and image caches")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(opts),
		newServeCmd(opts),
		newDiscoverCmd(opts),
		newScanCmd(opts),
		newPrintersCmd(opts),
		newTestCmd(opts),
		newStatusCmd(opts),
		newPrintCmd(opts),
		newAssetsCmd(opts),
		newImagesCmd(opts),
	)

	return rootCmd
}
