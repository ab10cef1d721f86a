package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wiastat/internal/server"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run API and the report viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if port != "" {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	return cmd
}
