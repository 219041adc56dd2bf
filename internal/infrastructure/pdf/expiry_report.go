// Package pdf genera el reporte de vencimientos en PDF (A4) con Maroto v2.
//
// Layout:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + ventana de días │ Fecha de generación     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Lote | Producto | Cantidad | Vence | Días            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: lotes / vencidos / cantidad total                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-fefo/internal/application/dto"
	"github.com/jhoicas/inventario-fefo/internal/application/inventory"
)

var _ inventory.ExpiryReportGenerator = (*ExpiryReportGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorDanger  = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ExpiryReportGenerator implementa inventory.ExpiryReportGenerator usando Maroto v2.
type ExpiryReportGenerator struct {
	title string
}

// NewExpiryReportGenerator construye el generador. appName aparece como autor del documento.
func NewExpiryReportGenerator(appName string) *ExpiryReportGenerator {
	return &ExpiryReportGenerator{title: appName}
}

// GenerateExpiryReport genera el PDF y devuelve sus bytes.
func (g *ExpiryReportGenerator) GenerateExpiryReport(
	_ context.Context,
	generatedAt time.Time,
	days int,
	rows []dto.ExpiringBatchDTO,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de vencimientos", true).
		WithAuthor(g.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(generatedAt, days))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	if len(rows) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("No hay lotes con stock dentro de la ventana.", props.Text{
				Size: 9, Align: align.Center, Color: colorGray, Top: 3,
			}),
		)))
	}
	for _, r := range tableDetailRows(rows) {
		m.AddRows(r)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(rows))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: título y ventana (izq), fecha de generación (der).
func headerRow(generatedAt time.Time, days int) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("REPORTE DE VENCIMIENTOS", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Lotes con stock que vencen en los próximos %d días (incluye vencidos)", days), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+generatedAt.UTC().Format("02/01/2006 15:04")+" UTC", props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Lote", 1, align.Center),
		h("Producto", 5, align.Left),
		h("Cantidad", 2, align.Right),
		h("Vence", 2, align.Center),
		h("Días", 2, align.Right),
	)
}

// tableDetailRows: una fila por lote; los vencidos en rojo.
func tableDetailRows(rows []dto.ExpiringBatchDTO) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		c := (*props.Color)(nil)
		if r.DaysLeft < 0 {
			c = colorDanger
		}
		cell := func(s string, a align.Type) core.Component {
			return text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1, Color: c})
		}
		result = append(result, row.New(6).Add(
			col.New(1).Add(cell(strconv.FormatInt(r.BatchID, 10), align.Center)),
			col.New(5).Add(cell(r.ProductName, align.Left)),
			col.New(2).Add(cell(r.Quantity.String(), align.Right)),
			col.New(2).Add(cell(r.ExpiryDate, align.Center)),
			col.New(2).Add(cell(daysLabel(r.DaysLeft), align.Right)),
		))
	}
	return result
}

func summaryRow(rows []dto.ExpiringBatchDTO) core.Row {
	total := decimal.Zero
	expired := 0
	for _, r := range rows {
		total = total.Add(r.Quantity)
		if r.DaysLeft < 0 {
			expired++
		}
	}
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(18).Add(
		col.New(6),
		col.New(3).Add(label("Lotes:"), label("Vencidos:"), label("Cantidad total:")),
		col.New(3).Add(
			value(strconv.Itoa(len(rows))),
			value(strconv.Itoa(expired)),
			value(total.String()),
		),
	)
}

func daysLabel(d int) string {
	switch {
	case d < 0:
		return fmt.Sprintf("vencido (%d)", d)
	case d == 0:
		return "hoy"
	default:
		return strconv.Itoa(d)
	}
}
