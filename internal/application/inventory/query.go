package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// StockQueryUseCase lecturas del ledger: cantidad actual, historial y conciliación.
type StockQueryUseCase struct {
	itemRepo        repository.ItemRepository
	snapshotRepo    repository.SnapshotRepository
	transactionRepo repository.TransactionRepository
	cache           StockCache
	log             *logger.Logger
}

// NewStockQueryUseCase construye el caso de uso. cache puede ser nil.
func NewStockQueryUseCase(
	itemRepo repository.ItemRepository,
	snapshotRepo repository.SnapshotRepository,
	transactionRepo repository.TransactionRepository,
	cache StockCache,
	log *logger.Logger,
) *StockQueryUseCase {
	return &StockQueryUseCase{
		itemRepo:        itemRepo,
		snapshotRepo:    snapshotRepo,
		transactionRepo: transactionRepo,
		cache:           cache,
		log:             log.Named("stock-query"),
	}
}

// GetStock devuelve el snapshot del ítem (cantidad 0 si nunca tuvo ajustes).
// Lee primero la caché; ante un fallo de caché cae al repositorio.
func (uc *StockQueryUseCase) GetStock(ctx context.Context, itemID string) (*entity.Snapshot, error) {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &domain.ItemNotFoundError{IDs: []string{itemID}}
	}

	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, itemID)
		if err != nil {
			uc.log.Warn().Err(err).Str("item_id", itemID).Msg("lectura de caché fallida")
		} else if cached != nil {
			return cached, nil
		}
	}

	snap, err := uc.snapshotRepo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return &entity.Snapshot{ItemID: itemID, Quantity: 0}, nil
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, *snap); err != nil {
			uc.log.Warn().Err(err).Str("item_id", itemID).Msg("no se pudo poblar la caché de stock")
		}
	}
	return snap, nil
}

// ListTransactions lista el historial con filtros por ítem, actor y rango de fechas.
func (uc *StockQueryUseCase) ListTransactions(ctx context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, domain.ErrInvalidInput
	}
	filter.Normalize()
	return uc.transactionRepo.List(ctx, filter)
}

// ReconcileResult compara el snapshot con la suma del log de transacciones.
type ReconcileResult struct {
	ItemID           string `json:"item_id"`
	SnapshotQuantity int64  `json:"snapshot_quantity"`
	LedgerSum        int64  `json:"ledger_sum"`
	Drift            int64  `json:"drift"`
}

// Consistent indica si el snapshot coincide con la suma de deltas.
func (r ReconcileResult) Consistent() bool { return r.Drift == 0 }

// Reconcile verifica la conservación (snapshot = suma de deltas). Solo lectura: no corrige nada.
func (uc *StockQueryUseCase) Reconcile(ctx context.Context, itemID string) (*ReconcileResult, error) {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &domain.ItemNotFoundError{IDs: []string{itemID}}
	}
	snap, err := uc.snapshotRepo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	sum, err := uc.transactionRepo.SumByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	res := &ReconcileResult{ItemID: itemID, LedgerSum: sum}
	if snap != nil {
		res.SnapshotQuantity = snap.Quantity
	}
	res.Drift = res.SnapshotQuantity - res.LedgerSum
	if !res.Consistent() {
		uc.log.Error().Str("item_id", itemID).Int64("drift", res.Drift).Msg("snapshot y ledger no coinciden")
	}
	return res, nil
}
