package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// SnapshotRepository define el puerto para la cantidad actual por ítem.
// Usado dentro de transacciones para garantizar consistencia.
type SnapshotRepository interface {
	// Get devuelve nil, nil si el ítem aún no tiene snapshot.
	Get(ctx context.Context, itemID string) (*entity.Snapshot, error)
	// GetOrCreateForUpdate crea el snapshot con cantidad 0 si no existe y toma el bloqueo exclusivo
	// del ítem hasta el fin de la transacción. Otros llamadores del mismo ítem esperan;
	// ítems distintos no compiten.
	GetOrCreateForUpdate(ctx context.Context, itemID string) (*entity.Snapshot, error)
	Update(ctx context.Context, snapshot *entity.Snapshot) error
}
