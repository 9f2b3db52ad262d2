package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const cacheWriteTimeout = 2 * time.Second

// LedgerUseCase aplica ajustes de stock de forma transaccional: bloquea el snapshot del ítem,
// valida que la cantidad no quede negativa, actualiza el snapshot, agrega la transacción y evalúa
// la alerta de stock bajo, todo en una sola unidad atómica. La auditoría se agenda después del commit.
type LedgerUseCase struct {
	txRunner TxRunner
	alerts   *AlertEngine
	audit    AuditNotifier
	cache    StockCache
	log      *logger.Logger
	now      func() time.Time
}

// LedgerOption configura dependencias opcionales del ledger.
type LedgerOption func(*LedgerUseCase)

// WithStockCache habilita la escritura post-commit en la caché de snapshots.
func WithStockCache(c StockCache) LedgerOption {
	return func(uc *LedgerUseCase) { uc.cache = c }
}

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) LedgerOption {
	return func(uc *LedgerUseCase) { uc.now = now }
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(txRunner TxRunner, audit AuditNotifier, log *logger.Logger, opts ...LedgerOption) *LedgerUseCase {
	uc := &LedgerUseCase{
		txRunner: txRunner,
		alerts:   NewAlertEngine(),
		audit:    audit,
		log:      log.Named("ledger"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// AdjustmentInput entrada de ApplyDelta. Reason vacío equivale a "manual".
type AdjustmentInput struct {
	ItemID  string
	Delta   int64
	Reason  string
	ActorID *string
	Note    string
}

// BulkAdjustment un renglón de ApplyBulk. Reason vacío equivale a "csv".
type BulkAdjustment struct {
	ItemID string
	Delta  int64
	Reason string
	Note   string
}

// AppliedAdjustment resultado de un ajuste dentro de la transacción; se publica con AfterCommit.
type AppliedAdjustment struct {
	Transaction *entity.Transaction
	Item        *entity.Item
	Before      int64
	After       int64
	Snapshot    entity.Snapshot
}

// ApplyDelta aplica un delta a un ítem y devuelve la transacción creada.
// Errores: *domain.ItemNotFoundError, *domain.InsufficientStockError, domain.ErrInvalidInput o
// el error de almacenamiento tal cual (sin reintentos).
func (uc *LedgerUseCase) ApplyDelta(ctx context.Context, in AdjustmentInput) (*entity.Transaction, error) {
	if in.Reason == "" {
		in.Reason = entity.ReasonManual
	}
	if in.ItemID == "" || !entity.ValidReason(in.Reason) {
		return nil, domain.ErrInvalidInput
	}

	var applied *AppliedAdjustment
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		snapshotRepo repository.SnapshotRepository,
		transactionRepo repository.TransactionRepository,
		alertRepo repository.AlertRepository,
	) error {
		item, err := itemRepo.GetByID(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return &domain.ItemNotFoundError{IDs: []string{in.ItemID}}
		}
		applied, err = uc.ApplyInTx(ctx, snapshotRepo, transactionRepo, alertRepo, item, in)
		return err
	})
	if err != nil {
		uc.logRejected(err, in.ItemID, in.Delta)
		return nil, err
	}

	uc.AfterCommit(ctx, applied)
	return applied.Transaction, nil
}

// ApplyBulk aplica los ajustes en orden dentro de una sola transacción (todo o nada).
// Todos los ítems se validan antes de aplicar el primero; si falta alguno se devuelve
// *domain.ItemNotFoundError con los IDs faltantes. Nunca recorta deltas negativos.
func (uc *LedgerUseCase) ApplyBulk(ctx context.Context, adjustments []BulkAdjustment, actorID *string) ([]*entity.Transaction, error) {
	if len(adjustments) == 0 {
		return nil, domain.ErrInvalidInput
	}
	inputs := make([]AdjustmentInput, len(adjustments))
	for i, adj := range adjustments {
		reason := adj.Reason
		if reason == "" {
			reason = entity.ReasonCSV
		}
		if adj.ItemID == "" || !entity.ValidReason(reason) {
			return nil, domain.ErrInvalidInput
		}
		inputs[i] = AdjustmentInput{ItemID: adj.ItemID, Delta: adj.Delta, Reason: reason, ActorID: actorID, Note: adj.Note}
	}
	ids := distinctSorted(inputs)

	applied := make([]*AppliedAdjustment, len(inputs))
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		snapshotRepo repository.SnapshotRepository,
		transactionRepo repository.TransactionRepository,
		alertRepo repository.AlertRepository,
	) error {
		found, err := itemRepo.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}
		items := make(map[string]*entity.Item, len(found))
		for _, it := range found {
			items[it.ID] = it
		}
		var missing []string
		for _, id := range ids {
			if _, ok := items[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return &domain.ItemNotFoundError{IDs: missing}
		}

		// Bloqueos en orden de ID para que lotes concurrentes con ítems en común no se crucen.
		for _, id := range ids {
			if _, err := snapshotRepo.GetOrCreateForUpdate(ctx, id); err != nil {
				return err
			}
		}

		for i, in := range inputs {
			a, err := uc.ApplyInTx(ctx, snapshotRepo, transactionRepo, alertRepo, items[in.ItemID], in)
			if err != nil {
				return err
			}
			applied[i] = a
		}
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Int("adjustments", len(inputs)).Msg("lote de ajustes abortado")
		return nil, err
	}

	uc.AfterCommit(ctx, applied...)
	out := make([]*entity.Transaction, len(applied))
	for i, a := range applied {
		out[i] = a.Transaction
	}
	return out, nil
}

// ApplyInTx ejecuta los pasos del ajuste con repositorios atados a una transacción del caller.
// No publica nada: el caller debe invocar AfterCommit solo si su transacción confirma.
func (uc *LedgerUseCase) ApplyInTx(
	ctx context.Context,
	snapshotRepo repository.SnapshotRepository,
	transactionRepo repository.TransactionRepository,
	alertRepo repository.AlertRepository,
	item *entity.Item,
	in AdjustmentInput,
) (*AppliedAdjustment, error) {
	// Bloquea la fila del snapshot (la crea en 0 si no existe) hasta el fin de la transacción
	snap, err := snapshotRepo.GetOrCreateForUpdate(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	oldQty := snap.Quantity
	if in.Delta > 0 && oldQty > math.MaxInt64-in.Delta {
		return nil, fmt.Errorf("%w: delta %d desborda la cantidad de %s", domain.ErrInvalidInput, in.Delta, item.ID)
	}
	newQty := oldQty + in.Delta
	if newQty < 0 {
		return nil, &domain.InsufficientStockError{ItemID: item.ID, Requested: in.Delta, Available: oldQty}
	}

	now := uc.now()
	snap.Quantity = newQty
	snap.UpdatedAt = now
	if err := snapshotRepo.Update(ctx, snap); err != nil {
		return nil, err
	}

	tx := &entity.Transaction{
		ID:        uuid.New().String(),
		ItemID:    item.ID,
		Delta:     in.Delta,
		Reason:    in.Reason,
		ActorID:   in.ActorID,
		Note:      in.Note,
		CreatedAt: now,
	}
	if err := transactionRepo.Append(ctx, tx); err != nil {
		return nil, err
	}

	if _, _, err := uc.alerts.Evaluate(ctx, alertRepo, item, oldQty, newQty, now); err != nil {
		return nil, err
	}

	return &AppliedAdjustment{
		Transaction: tx,
		Item:        item,
		Before:      oldQty,
		After:       newQty,
		Snapshot:    *snap,
	}, nil
}

// AfterCommit publica los efectos posteriores al commit: caché de snapshots y auditoría.
// Ninguno de los dos puede fallar el ajuste ya confirmado.
func (uc *LedgerUseCase) AfterCommit(ctx context.Context, applied ...*AppliedAdjustment) {
	for _, a := range applied {
		if a == nil {
			continue
		}
		if uc.cache != nil {
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
			if err := uc.cache.Set(cctx, a.Snapshot); err != nil {
				uc.log.Warn().Err(err).Str("item_id", a.Item.ID).Msg("no se pudo actualizar la caché de stock")
				// la entrada previa quedó vieja: se descarta para que la lectura vaya al repositorio
				if err := uc.cache.Invalidate(cctx, a.Item.ID); err != nil {
					uc.log.Warn().Err(err).Str("item_id", a.Item.ID).Msg("no se pudo invalidar la caché de stock")
				}
			}
			cancel()
		}
		if uc.audit != nil {
			uc.audit.Notify(stockAdjustEvent(a))
		}
		uc.log.Debug().
			Str("item_id", a.Item.ID).
			Str("transaction_id", a.Transaction.ID).
			Int64("before", a.Before).
			Int64("after", a.After).
			Msg("ajuste de stock confirmado")
	}
}

func (uc *LedgerUseCase) logRejected(err error, itemID string, delta int64) {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		uc.log.Info().Str("item_id", itemID).Int64("delta", delta).Int64("available", insufficient.Available).Msg("ajuste rechazado: stock insuficiente")
	case domain.IsDomainError(err):
		uc.log.Info().Err(err).Str("item_id", itemID).Msg("ajuste rechazado")
	default:
		uc.log.Error().Err(err).Str("item_id", itemID).Msg("ajuste abortado por error de almacenamiento")
	}
}

func stockAdjustEvent(a *AppliedAdjustment) entity.AuditEvent {
	return entity.AuditEvent{
		ID:         uuid.New().String(),
		ActorID:    a.Transaction.ActorID,
		Action:     entity.AuditActionStockAdjust,
		ObjectType: entity.AuditObjectItem,
		ObjectID:   a.Item.ID,
		Before:     map[string]any{"quantity": a.Before},
		After:      map[string]any{"quantity": a.After},
		Context: map[string]any{
			"delta":          a.Transaction.Delta,
			"reason":         a.Transaction.Reason,
			"note":           a.Transaction.Note,
			"correlation_id": a.Transaction.ID,
		},
		CreatedAt: a.Transaction.CreatedAt,
	}
}

func distinctSorted(inputs []AdjustmentInput) []string {
	seen := make(map[string]struct{}, len(inputs))
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if _, ok := seen[in.ItemID]; ok {
			continue
		}
		seen[in.ItemID] = struct{}{}
		ids = append(ids, in.ItemID)
	}
	sort.Strings(ids)
	return ids
}
