package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ItemUseCase alta y consulta del catálogo. La cantidad en stock no se edita aquí: se maneja vía el ledger.
type ItemUseCase struct {
	txRunner inventory.TxRunner
	repo     repository.ItemRepository
	ledger   *inventory.LedgerUseCase
	audit    inventory.AuditNotifier
	log      *logger.Logger
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(
	txRunner inventory.TxRunner,
	repo repository.ItemRepository,
	ledger *inventory.LedgerUseCase,
	audit inventory.AuditNotifier,
	log *logger.Logger,
) *ItemUseCase {
	return &ItemUseCase{txRunner: txRunner, repo: repo, ledger: ledger, audit: audit, log: log.Named("items")}
}

// Create crea un ítem. Si InitialStock > 0 registra la carga inicial (motivo init) en la misma transacción.
func (uc *ItemUseCase) Create(ctx context.Context, in dto.CreateItemRequest, actorID *string) (*dto.ItemResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.LowStockThreshold < 0 || in.InitialStock < 0 || in.Price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	item := &entity.Item{
		ID:                uuid.New().String(),
		Name:              in.Name,
		Category:          in.Category,
		Price:             in.Price,
		LowStockThreshold: in.LowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var applied *inventory.AppliedAdjustment
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.ItemRepository,
		snapshotRepo repository.SnapshotRepository,
		transactionRepo repository.TransactionRepository,
		alertRepo repository.AlertRepository,
	) error {
		if err := itemRepo.Create(ctx, item); err != nil {
			return err
		}
		if in.InitialStock == 0 {
			return nil
		}
		var err error
		applied, err = uc.ledger.ApplyInTx(ctx, snapshotRepo, transactionRepo, alertRepo, item, inventory.AdjustmentInput{
			ItemID:  item.ID,
			Delta:   in.InitialStock,
			Reason:  entity.ReasonInit,
			ActorID: actorID,
			Note:    "stock inicial",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if applied != nil {
		uc.ledger.AfterCommit(ctx, applied)
	}
	if uc.audit != nil {
		uc.audit.Notify(entity.AuditEvent{
			ID:         uuid.New().String(),
			ActorID:    actorID,
			Action:     entity.AuditActionCreate,
			ObjectType: entity.AuditObjectItem,
			ObjectID:   item.ID,
			After: map[string]any{
				"name":                item.Name,
				"category":            item.Category,
				"price":               item.Price.String(),
				"low_stock_threshold": item.LowStockThreshold,
				"initial_stock":       in.InitialStock,
			},
			CreatedAt: now,
		})
	}
	uc.log.Info().Str("item_id", item.ID).Str("name", item.Name).Int64("initial_stock", in.InitialStock).Msg("ítem creado")
	return dto.ToItemResponse(item), nil
}

// GetByID obtiene un ítem por ID. Devuelve nil, nil si no existe.
func (uc *ItemUseCase) GetByID(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.ToItemResponse(item), nil
}

// List lista ítems con paginación.
func (uc *ItemUseCase) List(ctx context.Context, limit, offset int) (*dto.ItemListResponse, error) {
	page := dto.PageRequest{Limit: limit, Offset: offset}
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		items = append(items, *dto.ToItemResponse(it))
	}
	return &dto.ItemListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}
