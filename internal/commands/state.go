package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func stateCmd(app *AppContext) *cobra.Command {
	var diff bool

	cmd := &cobra.Command{
		Use:   "state <interface>",
		Short: "Show the live state of an interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if diff {
				res, err := app.Manager.StateDiff(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if app.JSON {
					return printJSON(out, res)
				}
				switch {
				case res.Config == nil:
					fmt.Fprintf(out, "%s is %s\n", res.Interface, res.Status)
				case res.Equal:
					fmt.Fprintf(out, "%s matches its config\n", res.Interface)
				default:
					fmt.Fprint(out, res.Diff)
				}
				return nil
			}

			res, err := app.Manager.State(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if app.JSON {
				return printJSON(out, res)
			}
			fmt.Fprintf(out, "interface: %s (%s)\n", res.Interface, res.Status)
			if res.State == nil {
				return nil
			}
			fmt.Fprintf(out, "  public key: %s\n  listening port: %s\n", res.State.PublicKey, res.State.ListenPort)
			for _, p := range res.State.Peers {
				fmt.Fprintf(out, "\npeer: %s\n", p.PublicKey)
				if p.Endpoint != "" {
					fmt.Fprintf(out, "  endpoint: %s\n", p.Endpoint)
				}
				fmt.Fprintf(out, "  allowed ips: %s\n", p.AllowedIPs)
				if p.LatestHandshake > 0 {
					fmt.Fprintf(out, "  latest handshake: %s\n", time.Unix(p.LatestHandshake, 0).Format(time.RFC3339))
				}
				fmt.Fprintf(out, "  transfer: %d B received, %d B sent\n", p.TransferRx, p.TransferTx)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&diff, "diff", false, "Compare the canonical config with the live state")
	return cmd
}
