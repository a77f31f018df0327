package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Riboost-Studio/pos-device-bridge/internal/api"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API and, when configured, the order websocket agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := opts.app
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}

			g, ctx := errgroup.WithContext(cmd.Context())

			server := api.NewServer(addr, api.NewRouter(a.apiHandler(), a.logger), a.logger)
			g.Go(func() error { return server.Run(ctx) })

			if a.cfg.Agent.WSURL != "" {
				agent := a.agent()
				g.Go(func() error { return agent.Run(ctx) })
			} else {
				a.logger.Info("order websocket agent disabled", "reason", "agent.ws_url is empty")
			}

			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from http.addr)")
	return cmd
}
