package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wgfold/wgfold/internal/api"
	"github.com/wgfold/wgfold/internal/log"
)

func serveCmd(app *AppContext) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				app.Config.Server.ListenAddr = listen
			}
			log.Infof("Starting wgfold API server %s", app.Version)
			log.Infof("Configuration: %s", app.Config.Path())
			log.Infof("Base directory: %s", app.Config.WireGuard.BaseDir)
			if len(app.Config.Access.AllowedIPs) > 0 {
				log.Infof("Access restricted to: %v", app.Config.Access.AllowedIPs)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return api.NewServer(app.Config, app.Manager, app.Metrics, app.Version).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Override server.listen_addr")
	return cmd
}
