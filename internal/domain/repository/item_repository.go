package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia del catálogo (DIP).
// Para el ledger es de solo lectura: existencia del ítem y umbral de stock bajo.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	// GetByID devuelve nil, nil si el ítem no existe.
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// ListByIDs devuelve los ítems existentes entre ids (el orden no está garantizado).
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Item, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Item, error)
}
