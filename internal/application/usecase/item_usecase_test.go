package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditRecorder struct {
	mu     sync.Mutex
	events []entity.AuditEvent
}

func (a *auditRecorder) Notify(e entity.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *auditRecorder) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.Action
	}
	return out
}

func newItemUseCase() (*usecase.ItemUseCase, *memory.Store, *auditRecorder) {
	store := memory.New()
	rec := &auditRecorder{}
	ledger := inventory.NewLedgerUseCase(store, rec, logger.Nop())
	return usecase.NewItemUseCase(store, store.Items(), ledger, rec, logger.Nop()), store, rec
}

func TestItemUseCase_CreateConStockInicial(t *testing.T) {
	uc, store, rec := newItemUseCase()
	actor := "admin-1"

	out, err := uc.Create(context.Background(), dto.CreateItemRequest{
		Name:              "  Tornillo  ",
		Category:          "ferretería",
		Price:             decimal.RequireFromString("1.50"),
		LowStockThreshold: 5,
		InitialStock:      12,
	}, &actor)
	require.NoError(t, err)

	assert.Equal(t, "Tornillo", out.Name)
	snap, err := store.Snapshots().Get(context.Background(), out.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(12), snap.Quantity)

	txs, err := store.Transactions().List(context.Background(), repository.TransactionFilter{ItemID: out.ID})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, entity.ReasonInit, txs[0].Reason)
	assert.Equal(t, []string{entity.AuditActionStockAdjust, entity.AuditActionCreate}, rec.actions())
}

func TestItemUseCase_CreateSinStockNoCreaSnapshot(t *testing.T) {
	uc, store, rec := newItemUseCase()

	out, err := uc.Create(context.Background(), dto.CreateItemRequest{Name: "Tuerca"}, nil)
	require.NoError(t, err)

	snap, err := store.Snapshots().Get(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Equal(t, []string{entity.AuditActionCreate}, rec.actions())
}

func TestItemUseCase_CreateValidaciones(t *testing.T) {
	uc, _, _ := newItemUseCase()
	cases := []dto.CreateItemRequest{
		{Name: " "},
		{Name: "x", LowStockThreshold: -1},
		{Name: "x", InitialStock: -1},
		{Name: "x", Price: decimal.NewFromInt(-1)},
	}
	for _, in := range cases {
		_, err := uc.Create(context.Background(), in, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", in)
	}
}

func TestItemUseCase_NombreDuplicado(t *testing.T) {
	uc, _, _ := newItemUseCase()
	_, err := uc.Create(context.Background(), dto.CreateItemRequest{Name: "Tornillo"}, nil)
	require.NoError(t, err)

	_, err = uc.Create(context.Background(), dto.CreateItemRequest{Name: "Tornillo", InitialStock: 3}, nil)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestItemUseCase_GetByIDYList(t *testing.T) {
	uc, _, _ := newItemUseCase()
	created, err := uc.Create(context.Background(), dto.CreateItemRequest{Name: "Tornillo"}, nil)
	require.NoError(t, err)

	got, err := uc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	missing, err := uc.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := uc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, repository.DefaultListLimit, list.Page.Limit)
}

func TestItemUseCase_ListTopeDeLimite(t *testing.T) {
	uc, store, _ := newItemUseCase()
	base := time.Now()
	for i := 0; i < repository.MaxListLimit+5; i++ {
		require.NoError(t, store.Items().Create(context.Background(), &entity.Item{
			ID: fmt.Sprintf("i%03d", i), Name: fmt.Sprintf("item-%03d", i), CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	list, err := uc.List(context.Background(), 10000000, 0)
	require.NoError(t, err)
	assert.Equal(t, repository.MaxListLimit, list.Page.Limit)
	assert.Len(t, list.Items, repository.MaxListLimit)

	rest, err := uc.List(context.Background(), 10000000, repository.MaxListLimit)
	require.NoError(t, err)
	assert.Len(t, rest.Items, 5)

	neg, err := uc.List(context.Background(), 3, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, neg.Page.Offset)
	assert.Len(t, neg.Items, 3)
}
