/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/bsfedit/pkg/api"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve <file>",
		Short: "Start the REST API server",
		Long: `Serve one file over the bsfedit REST API. Edits are kept in memory
until POST /api/v1/save writes them back to the file.

Bind address, port and API key default to the server section of the
config file. Requests must carry the key in the X-API-Key header when
one is set.

Examples:
  bsfedit serve strings.bsf
  bsfedit serve strings.bsf --port 9000 --api-key mysecretkey`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := container.Config()
			if cmd.Flags().Changed("bind") {
				cfg.Server.Bind, _ = cmd.Flags().GetString("bind")
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("api-key") {
				cfg.Server.APIKey, _ = cmd.Flags().GetString("api-key")
			}

			doc, err := openOrCreateDocument(args[0])
			if err != nil {
				return err
			}

			logger := container.Logger()
			opts := []api.Option{api.WithLogger(logger)}
			if cfg.History.Enabled {
				store, err := container.OpenHistory()
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, api.WithSnapshotter(store))
			}
			if cfg.Server.APIKey == "" {
				logger.Warn("No API key configured, the API is unauthenticated")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			starter := container.GetServerFactory().CreateServerStarter()
			return starter.StartServer(ctx, doc, api.ServerConfig{
				Bind:   cfg.Server.Bind,
				Port:   cfg.Server.Port,
				APIKey: cfg.Server.APIKey,
			}, opts...)
		},
	}

	serveCmd.Flags().String("bind", "", "Address to listen on")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("api-key", "", "API key for authentication")
	return serveCmd
}
