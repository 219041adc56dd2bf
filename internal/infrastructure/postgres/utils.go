package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-fefo/internal/domain"
)

// Querier lo que los repositorios necesitan de *pgxpool.Pool o pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isConcurrencyFailure serialization_failure (40001) o deadlock_detected (40P01).
func isConcurrencyFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// isForeignKeyViolation 23503: p. ej. borrar un producto referenciado por movimientos.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// isInvalidText 22P02 invalid_text_representation: p. ej. un id que no es UUID.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

// wrap traduce errores de PostgreSQL a errores de dominio, conservando la causa.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isConcurrencyFailure(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrConcurrencyConflict, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrConflict, err)
	case isInvalidText(err):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidInput, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
