package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")

	// ErrConsistencyViolation indica que el agregado del producto y la suma de sus lotes
	// no coinciden, o que un commit quedó en estado desconocido. Es fatal: nunca se reintenta
	// y debe revisarlo un operador.
	ErrConsistencyViolation = errors.New("violación de consistencia de inventario")

	// ErrConcurrencyConflict fallo de serialización/deadlock reportado por la BD.
	// El caller puede reintentar la operación completa desde una lectura nueva.
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia")
)
