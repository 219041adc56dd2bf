package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
)

func newReconcileCommand(opts *RootOptions, open Opener) *cobra.Command {
	var productID string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Verifica agregado = suma de lotes = suma del libro, sin lotes negativos",
		Long: `Recorre los productos (o uno con --product) y reporta el estado de los invariantes.
Sale con código 1 si algún producto no cumple.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), open, func(env *Env) error {
				var reports []dto.ReconcileResponse
				if productID != "" {
					r, err := env.Services.Ledger.Reconcile(cmd.Context(), productID)
					if err != nil {
						return &ExitError{Code: ExitCommandError, Message: "conciliar", Err: err}
					}
					reports = []dto.ReconcileResponse{*r}
				} else {
					all, err := env.Services.Ledger.ReconcileAll(cmd.Context())
					if err != nil {
						return &ExitError{Code: ExitCommandError, Message: "conciliar", Err: err}
					}
					reports = all
				}

				if opts.Format == "json" {
					if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
						return err
					}
				} else {
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "PRODUCTO\tAGREGADO\tLOTES\tLIBRO\tNEGATIVOS\tESTADO")
					for _, r := range reports {
						status := "ok"
						if !r.OK {
							status = "VIOLACIÓN"
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
							r.ProductID, r.StockQuantity, r.BatchSum, r.LedgerSum, len(r.NegativeBatches), status)
					}
					if err := tw.Flush(); err != nil {
						return err
					}
				}

				bad := 0
				for _, r := range reports {
					if !r.OK {
						bad++
					}
				}
				if bad > 0 {
					return &ExitError{Code: ExitViolation, Message: fmt.Sprintf("%d producto(s) con invariantes rotos", bad)}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&productID, "product", "", "ID del producto (vacío = todos)")
	return cmd
}
