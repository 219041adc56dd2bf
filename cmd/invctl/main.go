// invctl herramientas de operador: carga inicial desde CSV, conciliación y vencimientos.
//
// Uso:
//
//	invctl seed productos.csv --encoding latin1
//	invctl reconcile [--product <id>]
//	invctl expiring --days 7
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/inventario-fefo/internal/interfaces/cli"
)

func main() {
	cmd := cli.NewRootCommand(cli.OpenFromConfig)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
