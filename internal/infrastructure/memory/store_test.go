package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repos struct {
	items        repository.ItemRepository
	snapshots    repository.SnapshotRepository
	transactions repository.TransactionRepository
	alerts       repository.AlertRepository
}

func run(t *testing.T, s *Store, fn func(r repos) error) error {
	t.Helper()
	return s.Run(context.Background(), func(
		itemRepo repository.ItemRepository,
		snapshotRepo repository.SnapshotRepository,
		transactionRepo repository.TransactionRepository,
		alertRepo repository.AlertRepository,
	) error {
		return fn(repos{itemRepo, snapshotRepo, transactionRepo, alertRepo})
	})
}

func seedItem(t *testing.T, s *Store, id, name string) {
	t.Helper()
	require.NoError(t, s.Items().Create(context.Background(), &entity.Item{ID: id, Name: name, CreatedAt: time.Now()}))
}

func TestStore_CommitAplicaEscrituras(t *testing.T) {
	s := New()
	seedItem(t, s, "i1", "Tornillo")
	ctx := context.Background()

	err := run(t, s, func(r repos) error {
		snap, err := r.snapshots.GetOrCreateForUpdate(ctx, "i1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), snap.Quantity)
		snap.Quantity = 7
		require.NoError(t, r.snapshots.Update(ctx, snap))
		require.NoError(t, r.transactions.Append(ctx, &entity.Transaction{ID: "t1", ItemID: "i1", Delta: 7, CreatedAt: time.Now()}))

		// Lecturas dentro de la tx ven sus escrituras pendientes
		got, err := r.snapshots.Get(ctx, "i1")
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.Quantity)
		sum, err := r.transactions.SumByItem(ctx, "i1")
		require.NoError(t, err)
		assert.Equal(t, int64(7), sum)
		return nil
	})
	require.NoError(t, err)

	snap, err := s.Snapshots().Get(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.Quantity)

	list, err := s.Transactions().List(ctx, repository.TransactionFilter{ItemID: "i1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].Seq)
}

func TestStore_RollbackDescartaTodo(t *testing.T) {
	s := New()
	seedItem(t, s, "i1", "Tornillo")
	ctx := context.Background()
	boom := errors.New("boom")

	err := run(t, s, func(r repos) error {
		snap, _ := r.snapshots.GetOrCreateForUpdate(ctx, "i1")
		snap.Quantity = 3
		_ = r.snapshots.Update(ctx, snap)
		_ = r.transactions.Append(ctx, &entity.Transaction{ID: "t1", ItemID: "i1", Delta: 3})
		_ = r.alerts.Create(ctx, &entity.Alert{ID: "a1", ItemID: "i1", Type: entity.AlertTypeLowStock})
		return boom
	})
	assert.ErrorIs(t, err, boom)

	snap, err := s.Snapshots().Get(ctx, "i1")
	require.NoError(t, err)
	assert.Nil(t, snap)
	sum, _ := s.Transactions().SumByItem(ctx, "i1")
	assert.Zero(t, sum)
	a, _ := s.Alerts().GetByID(ctx, "a1")
	assert.Nil(t, a)

	// El bloqueo quedó liberado
	ctxT, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Run(ctxT, func(_ repository.ItemRepository, sr repository.SnapshotRepository, _ repository.TransactionRepository, _ repository.AlertRepository) error {
		_, err := sr.GetOrCreateForUpdate(ctxT, "i1")
		return err
	}))
}

func TestStore_BloqueoPorItemSerializa(t *testing.T) {
	s := New()
	seedItem(t, s, "i1", "Tornillo")
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- run(t, s, func(r repos) error {
			if _, err := r.snapshots.GetOrCreateForUpdate(ctx, "i1"); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	// Mientras la primera tx retiene el ítem, la segunda agota su contexto esperando
	ctxT, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := s.Run(ctxT, func(_ repository.ItemRepository, sr repository.SnapshotRepository, _ repository.TransactionRepository, _ repository.AlertRepository) error {
		_, err := sr.GetOrCreateForUpdate(ctxT, "i1")
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.True(t, domain.IsStorageFailure(err))

	// Otro ítem no compite
	seedItem(t, s, "i2", "Tuerca")
	require.NoError(t, run(t, s, func(r repos) error {
		_, err := r.snapshots.GetOrCreateForUpdate(ctx, "i2")
		return err
	}))

	close(release)
	require.NoError(t, <-done)
}

func TestStore_BloqueoReentranteEnLaMismaTx(t *testing.T) {
	s := New()
	seedItem(t, s, "i1", "Tornillo")
	ctx := context.Background()

	require.NoError(t, run(t, s, func(r repos) error {
		if _, err := r.snapshots.GetOrCreateForUpdate(ctx, "i1"); err != nil {
			return err
		}
		_, err := r.snapshots.GetOrCreateForUpdate(ctx, "i1")
		return err
	}))
}

func TestStore_NombreDuplicado(t *testing.T) {
	s := New()
	seedItem(t, s, "i1", "Tornillo")

	err := s.Items().Create(context.Background(), &entity.Item{ID: "i2", Name: "Tornillo"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	err = run(t, s, func(r repos) error {
		return r.items.Create(context.Background(), &entity.Item{ID: "i3", Name: "Tornillo"})
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestStore_AlertaAbiertaUnicaPorItemYTipo(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Alerts().Create(ctx, &entity.Alert{ID: "a1", ItemID: "i1", Type: entity.AlertTypeLowStock, TriggeredAt: time.Now()}))

	err := s.Alerts().Create(ctx, &entity.Alert{ID: "a2", ItemID: "i1", Type: entity.AlertTypeLowStock})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	ok, err := s.Alerts().Resolve(ctx, "a1", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Alerts().Resolve(ctx, "a1", time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "resolver dos veces no cambia nada")

	require.NoError(t, s.Alerts().Create(ctx, &entity.Alert{ID: "a2", ItemID: "i1", Type: entity.AlertTypeLowStock, TriggeredAt: time.Now()}))
	open, err := s.Alerts().List(ctx, repository.AlertFilter{ItemID: "i1", OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "a2", open[0].ID)
}

func TestStore_ResolveEnTxVisibleYConfirmado(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Alerts().Create(ctx, &entity.Alert{ID: "a1", ItemID: "i1", Type: entity.AlertTypeLowStock}))

	require.NoError(t, run(t, s, func(r repos) error {
		ok, err := r.alerts.Resolve(ctx, "a1", time.Now())
		require.NoError(t, err)
		assert.True(t, ok)
		open, err := r.alerts.FindOpen(ctx, "i1", entity.AlertTypeLowStock)
		require.NoError(t, err)
		assert.Nil(t, open)
		return nil
	}))

	a, err := s.Alerts().GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, a.IsOpen())
}

func TestStore_ListTransaccionesOrdenYFiltros(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	actor := "u1"
	tr := s.Transactions()
	require.NoError(t, tr.Append(ctx, &entity.Transaction{ID: "t1", ItemID: "i1", Delta: 1, CreatedAt: base}))
	require.NoError(t, tr.Append(ctx, &entity.Transaction{ID: "t2", ItemID: "i1", Delta: 2, CreatedAt: base, ActorID: &actor}))
	require.NoError(t, tr.Append(ctx, &entity.Transaction{ID: "t3", ItemID: "i2", Delta: 3, CreatedAt: base.Add(time.Hour)}))

	all, err := tr.List(ctx, repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t3", "t2", "t1"}, txIDs(all), "mismo timestamp: desempata la secuencia")

	asc, err := tr.List(ctx, repository.TransactionFilter{Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, txIDs(asc))

	byActor, err := tr.List(ctx, repository.TransactionFilter{ActorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, txIDs(byActor))

	from := base.Add(time.Minute)
	ranged, err := tr.List(ctx, repository.TransactionFilter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, txIDs(ranged))

	paged, err := tr.List(ctx, repository.TransactionFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, txIDs(paged))
}

func TestStore_Auditoria(t *testing.T) {
	s := New()
	require.NoError(t, s.Record(context.Background(), entity.AuditEvent{ID: "e1"}))
	events := s.AuditEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
}

func txIDs(list []*entity.Transaction) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}
