package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrItemNotFound      = errors.New("ítem no encontrado")
	ErrAlertNotFound     = errors.New("alerta no encontrada")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrLockTimeout fallo de almacenamiento: se agotó la espera por el bloqueo del ítem. No se reintenta.
	ErrLockTimeout = errors.New("tiempo de espera de bloqueo agotado")
)

// InsufficientStockError se produce cuando el ajuste dejaría la cantidad en negativo.
// Lleva el delta solicitado y la cantidad disponible al momento del bloqueo.
type InsufficientStockError struct {
	ItemID    string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: requested=%d available=%d", e.ItemID, e.Requested, e.Available)
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ItemNotFoundError lista los ítems inexistentes referenciados por un ajuste o lote.
type ItemNotFoundError struct {
	IDs []string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("ítems no encontrados: %s", strings.Join(e.IDs, ", "))
}

// Unwrap permite errors.Is(err, ErrItemNotFound).
func (e *ItemNotFoundError) Unwrap() error { return ErrItemNotFound }

// IsDomainError indica si err es un fallo de validación de dominio (no de almacenamiento).
func IsDomainError(err error) bool {
	return errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrAlertNotFound) ||
		errors.Is(err, ErrDuplicate)
}

// IsStorageFailure indica si err proviene de la capa de persistencia (timeout de lock, I/O, constraint).
// El ledger no reintenta; la decisión queda en el llamador.
func IsStorageFailure(err error) bool {
	return err != nil && !IsDomainError(err)
}
