// Package cli implementa invctl, la herramienta de operadores (carga inicial, conciliación, vencimientos).
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-fefo/internal/bootstrap"
	"github.com/jhoicas/inventario-fefo/pkg/config"
	"github.com/jhoicas/inventario-fefo/pkg/logger"
)

// Códigos de salida.
const (
	ExitSuccess      = 0
	ExitViolation    = 1 // la conciliación encontró invariantes rotos
	ExitCommandError = 2
)

// ExitError error con código de salida propio.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// GetExitCode código de salida para err; errores sin código son errores de comando.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Env almacenamiento y casos de uso sobre los que corre cada comando.
type Env struct {
	Storage  *bootstrap.Storage
	Services *bootstrap.Services
}

// Opener abre el entorno; el CLI lo cierra al terminar el comando.
type Opener func(ctx context.Context) (*Env, error)

// OpenFromConfig abre el entorno según las variables de entorno (igual que la API).
func OpenFromConfig(ctx context.Context) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	st, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Env{Storage: st, Services: bootstrap.NewServices(cfg, st, log)}, nil
}

// RootOptions flags globales.
type RootOptions struct {
	Format string // text | json
}

// NewRootCommand crea el comando raíz de invctl.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{}
	cmd := &cobra.Command{
		Use:           "invctl",
		Short:         "Herramientas de operador para el inventario FEFO",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("formato inválido %q: use text o json", opts.Format)}
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (text|json)")

	cmd.AddCommand(newSeedCommand(opts, open))
	cmd.AddCommand(newReconcileCommand(opts, open))
	cmd.AddCommand(newExpiringCommand(opts, open))
	return cmd
}

// withEnv abre el entorno, ejecuta fn y lo cierra.
func withEnv(ctx context.Context, open Opener, fn func(env *Env) error) error {
	env, err := open(ctx)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "abrir almacenamiento", Err: err}
	}
	defer env.Storage.Close()
	return fn(env)
}
