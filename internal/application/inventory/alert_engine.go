package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// AlertEngine deriva aperturas y resoluciones de alertas de stock bajo a partir de cruces de umbral.
// Se ejecuta dentro de la transacción del ledger, con el snapshot del ítem ya bloqueado, por lo que
// la comprobación "existe alerta abierta" no compite con otro ajuste del mismo ítem.
type AlertEngine struct{}

// NewAlertEngine construye el motor de alertas.
func NewAlertEngine() *AlertEngine {
	return &AlertEngine{}
}

// Evaluate aplica la transición correspondiente a (old, new) y devuelve la alerta afectada, si hubo.
func (e *AlertEngine) Evaluate(
	ctx context.Context,
	alertRepo repository.AlertRepository,
	item *entity.Item,
	oldQty, newQty int64,
	now time.Time,
) (*entity.Alert, domaininv.AlertTransition, error) {
	open, err := alertRepo.FindOpen(ctx, item.ID, entity.AlertTypeLowStock)
	if err != nil {
		return nil, domaininv.AlertNone, err
	}

	switch domaininv.EvaluateLowStock(item.LowStockThreshold, oldQty, newQty, open != nil) {
	case domaininv.AlertOpen:
		alert := &entity.Alert{
			ID:          uuid.New().String(),
			ItemID:      item.ID,
			Type:        entity.AlertTypeLowStock,
			Message:     domaininv.LowStockMessage(item.Name, newQty),
			TriggeredAt: now,
		}
		if err := alertRepo.Create(ctx, alert); err != nil {
			return nil, domaininv.AlertNone, err
		}
		return alert, domaininv.AlertOpen, nil
	case domaininv.AlertResolve:
		if _, err := alertRepo.Resolve(ctx, open.ID, now); err != nil {
			return nil, domaininv.AlertNone, err
		}
		resolvedAt := now
		open.ResolvedAt = &resolvedAt
		return open, domaininv.AlertResolve, nil
	}
	return nil, domaininv.AlertNone, nil
}
