package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func syncCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <interface>",
		Short: "Regenerate the canonical config from the interface folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Manager.Sync(args[0])
			if err != nil {
				return err
			}
			if app.JSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d peer(s)\n", res.Path, res.Peers)
			return nil
		},
	}
}

func resetCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <interface>",
		Short: "Rebuild the interface folder from the canonical config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Manager.Reset(args[0])
			if err != nil {
				return err
			}
			if app.JSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rebuilt %s with %d peer(s)\n", res.Interface, len(res.Peers))
			for _, p := range res.Peers {
				fmt.Fprintf(out, "  %-24s %s (%s)\n", p.Name, p.PublicKey, p.Source)
			}
			return nil
		},
	}
}

func diffCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <interface>",
		Short: "Compare the canonical config with the interface folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Manager.Diff(args[0])
			if err != nil {
				return err
			}
			if app.JSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			if res.InSync {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is in sync\n", res.Interface)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Diff)
			return nil
		},
	}
}

func applyCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <interface>",
		Short: "Push the canonical config to the running interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Manager.Apply(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if app.JSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printWarnings(cmd.ErrOrStderr(), res.Warnings)
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s via %s\n", res.Interface, res.Method)
			return nil
		},
	}
}
