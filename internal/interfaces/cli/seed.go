package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
	"github.com/jhoicas/inventario-fefo/internal/domain/entity"
)

// ReferenceInitialCount referencia de los movimientos de carga inicial.
const ReferenceInitialCount = "Initial count"

var seedColumns = []string{"sku", "name", "price", "quantity", "expiry_date"}

// SeedResult resumen de la carga.
type SeedResult struct {
	ProductsCreated int `json:"products_created"`
	BatchesCreated  int `json:"batches_created"`
	Rows            int `json:"rows"`
}

func newSeedCommand(opts *RootOptions, open Opener) *cobra.Command {
	var encoding string
	cmd := &cobra.Command{
		Use:   "seed <archivo.csv>",
		Short: "Carga inicial de productos y stock desde CSV",
		Long: `Crea los productos que no existan (por SKU) y registra el conteo inicial
como una entrada por fila: cada fila con cantidad > 0 abre un lote.

Columnas: sku,name,price,quantity,expiry_date (expiry_date YYYY-MM-DD, opcional).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "abrir CSV", Err: err}
			}
			defer f.Close()
			var r io.Reader = f
			switch strings.ToLower(encoding) {
			case "utf8", "utf-8":
			case "latin1", "iso-8859-1":
				// Exportaciones de planillas y sistemas POS antiguos.
				r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
			default:
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("encoding no soportado %q", encoding)}
			}
			return withEnv(cmd.Context(), open, func(env *Env) error {
				res, err := seed(cmd.Context(), env, r)
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "filas: %d, productos creados: %d, lotes creados: %d\n",
					res.Rows, res.ProductsCreated, res.BatchesCreated)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "utf8", "codificación del archivo (utf8|latin1)")
	return cmd
}

func seed(ctx context.Context, env *Env, r io.Reader) (*SeedResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "leer encabezado", Err: err}
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	res := &SeedResult{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("línea %d", line), Err: err}
		}
		res.Rows++
		if err := seedRow(ctx, env, idx, rec, res); err != nil {
			return res, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("línea %d", line), Err: err}
		}
	}
	return res, nil
}

func seedRow(ctx context.Context, env *Env, idx map[string]int, rec []string, res *SeedResult) error {
	get := func(col string) string { return strings.TrimSpace(rec[idx[col]]) }

	sku := get("sku")
	product, err := env.Storage.Products.GetBySKU(ctx, sku)
	if err != nil {
		return err
	}
	productID := ""
	if product != nil {
		productID = product.ID
	} else {
		price := decimal.Zero
		if s := get("price"); s != "" {
			if price, err = decimal.NewFromString(s); err != nil {
				return fmt.Errorf("price %q: %w", s, err)
			}
		}
		created, err := env.Services.Products.Create(ctx, dto.CreateProductRequest{SKU: sku, Name: get("name"), Price: price})
		if err != nil {
			return err
		}
		productID = created.ID
		res.ProductsCreated++
	}

	qtyRaw := get("quantity")
	if qtyRaw == "" {
		return nil
	}
	qty, err := decimal.NewFromString(qtyRaw)
	if err != nil {
		return fmt.Errorf("quantity %q: %w", qtyRaw, err)
	}
	if !qty.IsPositive() {
		return nil
	}
	var expiryRaw *string
	if s := get("expiry_date"); s != "" {
		expiryRaw = &s
	}
	expiry, err := dto.ParseDate(expiryRaw)
	if err != nil {
		return err
	}
	if _, err := env.Services.Movements.Replenish(ctx, inventory.ReplenishInput{
		ProductID:  productID,
		Quantity:   qty,
		ExpiryDate: expiry,
		MoveType:   entity.MoveTypeAdjustmentIn,
		Reference:  ReferenceInitialCount,
	}); err != nil {
		return err
	}
	res.BatchesCreated++
	return nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	for _, c := range seedColumns {
		if _, ok := idx[c]; !ok {
			return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("falta la columna %q", c)}
		}
	}
	return idx, nil
}
