package commands

import (
	"github.com/spf13/cobra"

	"github.com/wgfold/wgfold/internal/config"
)

// NewRootCommand builds the wgfold command tree.
func NewRootCommand(version string) *cobra.Command {
	app := &AppContext{Version: version}

	cmd := &cobra.Command{
		Use:           "wgfold",
		Short:         "Manage WireGuard configs as one file per peer",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", config.DefaultPath, "Path to configuration file")
	cmd.PersistentFlags().BoolVar(&app.Verbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print results as JSON")

	cmd.AddCommand(
		serveCmd(app),
		syncCmd(app),
		resetCmd(app),
		diffCmd(app),
		applyCmd(app),
		stateCmd(app),
		interfacesCmd(app),
		peersCmd(app),
	)
	return cmd
}
