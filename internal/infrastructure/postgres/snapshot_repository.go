package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo implementación de SnapshotRepository sobre PostgreSQL (usable con pool o tx).
type SnapshotRepo struct {
	q Querier
}

// NewSnapshotRepository construye el adaptador de snapshots. Pasar pool o tx (Querier).
func NewSnapshotRepository(q Querier) *SnapshotRepo {
	return &SnapshotRepo{q: q}
}

// Get obtiene el snapshot de un ítem sin bloquear. nil, nil si nunca tuvo ajustes.
func (r *SnapshotRepo) Get(ctx context.Context, itemID string) (*entity.Snapshot, error) {
	query := `SELECT item_id, quantity, updated_at FROM stock_snapshots WHERE item_id = $1`
	var s entity.Snapshot
	err := r.q.QueryRow(ctx, query, itemID).Scan(&s.ItemID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &s, nil
}

// GetOrCreateForUpdate crea la fila en 0 si no existe y la bloquea (SELECT FOR UPDATE) hasta el fin de la tx.
// El INSERT ... ON CONFLICT DO NOTHING evita la carrera entre dos primeras escrituras del mismo ítem.
func (r *SnapshotRepo) GetOrCreateForUpdate(ctx context.Context, itemID string) (*entity.Snapshot, error) {
	insert := `
		INSERT INTO stock_snapshots (item_id, quantity, updated_at)
		VALUES ($1, 0, now())
		ON CONFLICT (item_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, itemID); err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	query := `
		SELECT item_id, quantity, updated_at
		FROM stock_snapshots WHERE item_id = $1
		FOR UPDATE`
	var s entity.Snapshot
	if err := r.q.QueryRow(ctx, query, itemID).Scan(&s.ItemID, &s.Quantity, &s.UpdatedAt); err != nil {
		return nil, fmt.Errorf("get snapshot for update: %w", err)
	}
	return &s, nil
}

// Update guarda la nueva cantidad. La constraint CHECK (quantity >= 0) es la última línea de defensa.
func (r *SnapshotRepo) Update(ctx context.Context, snapshot *entity.Snapshot) error {
	query := `UPDATE stock_snapshots SET quantity = $2, updated_at = $3 WHERE item_id = $1`
	tag, err := r.q.Exec(ctx, query, snapshot.ItemID, snapshot.Quantity, snapshot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update snapshot: fila inexistente para %s", snapshot.ItemID)
	}
	return nil
}
