package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Límites de paginación para listados del ledger.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// TransactionFilter condiciones de lectura del log de transacciones.
type TransactionFilter struct {
	ItemID    string
	ActorID   string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
	Ascending bool // por defecto más recientes primero
}

// ClampLimit límite por defecto si no se indicó y tope en MaxListLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

// Normalize aplica el límite por defecto y el tope.
func (f *TransactionFilter) Normalize() {
	f.Limit = ClampLimit(f.Limit)
	f.Offset = max(f.Offset, 0)
}

// TransactionRepository puerto del log append-only. No expone update ni delete.
type TransactionRepository interface {
	Append(ctx context.Context, tx *entity.Transaction) error
	List(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, error)
	// SumByItem suma los deltas registrados de un ítem (conciliación con el snapshot).
	SumByItem(ctx context.Context, itemID string) (int64, error)
}
