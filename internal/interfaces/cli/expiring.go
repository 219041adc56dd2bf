package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newExpiringCommand(opts *RootOptions, open Opener) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "expiring",
		Short: "Lista los lotes con stock que vencen en los próximos N días",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), open, func(env *Env) error {
				rows, err := env.Services.Expiry.ListExpiring(cmd.Context(), days)
				if err != nil {
					return &ExitError{Code: ExitCommandError, Message: "consultar vencimientos", Err: err}
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), rows)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "LOTE\tPRODUCTO\tCANTIDAD\tVENCE\tDÍAS")
				for _, r := range rows {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", r.BatchID, r.ProductName, r.Quantity, r.ExpiryDate, r.DaysLeft)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "ventana en días")
	return cmd
}
