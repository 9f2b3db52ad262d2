package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AlertFilter condiciones de listado de alertas.
type AlertFilter struct {
	ItemID   string
	Type     string
	OpenOnly bool
	Limit    int
	Offset   int
}

// Normalize aplica el límite por defecto y el tope.
func (f *AlertFilter) Normalize() {
	f.Limit = ClampLimit(f.Limit)
	f.Offset = max(f.Offset, 0)
}

// AlertRepository puerto de persistencia de alertas.
type AlertRepository interface {
	Create(ctx context.Context, alert *entity.Alert) error
	GetByID(ctx context.Context, id string) (*entity.Alert, error)
	// FindOpen devuelve la alerta abierta del ítem y tipo, o nil, nil.
	FindOpen(ctx context.Context, itemID, alertType string) (*entity.Alert, error)
	// Resolve marca la alerta como resuelta solo si sigue abierta; devuelve false si ya lo estaba.
	Resolve(ctx context.Context, id string, at time.Time) (bool, error)
	List(ctx context.Context, filter AlertFilter) ([]*entity.Alert, error)
}
