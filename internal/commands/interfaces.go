package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func interfacesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interfaces",
		Short: "List managed interfaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := app.Manager.ListInterfaces()
			if err != nil {
				return err
			}
			if app.JSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tADDRESS\tPORT\tPEERS\tSYNCED")
			for _, i := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%v\n", i.Name, i.Address, i.ListenPort, i.Peers, i.Synced)
			}
			return tw.Flush()
		},
	}
}

func peersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "peers <interface>",
		Short: "List the peers of an interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peers, err := app.Manager.ListPeers(args[0])
			if err != nil {
				return err
			}
			if app.JSON {
				return printJSON(cmd.OutOrStdout(), peers)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPUBLIC KEY\tALLOWED IPS\tENDPOINT")
			for _, p := range peers {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.PublicKey, p.AllowedIPs, p.Endpoint)
			}
			return tw.Flush()
		},
	}
}
