package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// AlertUseCase consulta y resolución manual de alertas.
type AlertUseCase struct {
	txRunner  TxRunner
	alertRepo repository.AlertRepository
	audit     AuditNotifier
	now       func() time.Time
}

// NewAlertUseCase construye el caso de uso.
func NewAlertUseCase(txRunner TxRunner, alertRepo repository.AlertRepository, audit AuditNotifier) *AlertUseCase {
	return &AlertUseCase{txRunner: txRunner, alertRepo: alertRepo, audit: audit, now: time.Now}
}

// List lista alertas, más recientes primero.
func (uc *AlertUseCase) List(ctx context.Context, filter repository.AlertFilter) ([]*entity.Alert, error) {
	filter.Normalize()
	return uc.alertRepo.List(ctx, filter)
}

// Resolve marca una alerta como resuelta. Sobre una alerta ya resuelta no hace nada (idempotente).
// Toma el bloqueo del snapshot del ítem para no cruzarse con un ajuste en curso.
func (uc *AlertUseCase) Resolve(ctx context.Context, alertID string, actorID *string) (*entity.Alert, error) {
	if alertID == "" {
		return nil, domain.ErrInvalidInput
	}
	var (
		alert   *entity.Alert
		changed bool
	)
	err := uc.txRunner.Run(ctx, func(
		_ repository.ItemRepository,
		snapshotRepo repository.SnapshotRepository,
		_ repository.TransactionRepository,
		alertRepo repository.AlertRepository,
	) error {
		var err error
		alert, err = alertRepo.GetByID(ctx, alertID)
		if err != nil {
			return err
		}
		if alert == nil {
			return domain.ErrAlertNotFound
		}
		if !alert.IsOpen() {
			return nil
		}
		if _, err := snapshotRepo.GetOrCreateForUpdate(ctx, alert.ItemID); err != nil {
			return err
		}
		now := uc.now()
		changed, err = alertRepo.Resolve(ctx, alert.ID, now)
		if err != nil {
			return err
		}
		if changed {
			alert.ResolvedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed && uc.audit != nil {
		uc.audit.Notify(entity.AuditEvent{
			ID:         uuid.New().String(),
			ActorID:    actorID,
			Action:     entity.AuditActionAlertResolve,
			ObjectType: entity.AuditObjectAlert,
			ObjectID:   alert.ID,
			Before:     map[string]any{"resolved_at": nil},
			After:      map[string]any{"resolved_at": alert.ResolvedAt.UTC().Format(time.RFC3339Nano)},
			Context:    map[string]any{"item_id": alert.ItemID},
			CreatedAt:  *alert.ResolvedAt,
		})
	}
	return alert, nil
}
