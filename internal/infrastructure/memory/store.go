// Package memory implementa los puertos del ledger en memoria (STORE_DRIVER=memory y tests).
// La exclusión por ítem usa un mutex por clave retenido por la transacción hasta commit/rollback;
// las escrituras se acumulan en la transacción y se aplican juntas al confirmar.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store almacenamiento en memoria de ítems, snapshots, transacciones, alertas y auditoría.
type Store struct {
	mu sync.RWMutex

	items     map[string]*entity.Item
	itemNames map[string]string

	snapshots map[string]*entity.Snapshot

	transactions []*entity.Transaction
	seq          int64

	alerts map[string]*entity.Alert

	auditLogs []entity.AuditEvent

	locks *keyLocks
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		items:     make(map[string]*entity.Item),
		itemNames: make(map[string]string),
		snapshots: make(map[string]*entity.Snapshot),
		alerts:    make(map[string]*entity.Alert),
		locks:     newKeyLocks(),
	}
}

// Run ejecuta fn con repositorios atados a una transacción en memoria.
// Si fn falla no se aplica nada; los bloqueos de ítem se liberan siempre al salir.
func (s *Store) Run(ctx context.Context, fn func(
	itemRepo repository.ItemRepository,
	snapshotRepo repository.SnapshotRepository,
	transactionRepo repository.TransactionRepository,
	alertRepo repository.AlertRepository,
) error) error {
	t := newTx(s)
	defer t.release()

	if err := fn(&ItemRepo{s: s, tx: t}, &SnapshotRepo{s: s, tx: t}, &TransactionRepo{s: s, tx: t}, &AlertRepo{s: s, tx: t}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return t.commit()
}

// Items devuelve el repositorio de ítems fuera de transacción.
func (s *Store) Items() *ItemRepo { return &ItemRepo{s: s} }

// Snapshots devuelve el repositorio de snapshots fuera de transacción.
func (s *Store) Snapshots() *SnapshotRepo { return &SnapshotRepo{s: s} }

// Transactions devuelve el log de transacciones fuera de transacción.
func (s *Store) Transactions() *TransactionRepo { return &TransactionRepo{s: s} }

// Alerts devuelve el repositorio de alertas fuera de transacción.
func (s *Store) Alerts() *AlertRepo { return &AlertRepo{s: s} }

// Record implementa audit.Sink.
func (s *Store) Record(_ context.Context, event entity.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs = append(s.auditLogs, event)
	return nil
}

// AuditEvents copia de los eventos de auditoría registrados.
func (s *Store) AuditEvents() []entity.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.AuditEvent, len(s.auditLogs))
	copy(out, s.auditLogs)
	return out
}

// tx escrituras pendientes y bloqueos retenidos de una transacción.
type tx struct {
	s    *Store
	held []string
	own  map[string]struct{}

	items        []*entity.Item
	snapshots    map[string]*entity.Snapshot
	transactions []*entity.Transaction
	alerts       []*entity.Alert
	resolved     map[string]time.Time
	done         bool
}

func newTx(s *Store) *tx {
	return &tx{
		s:         s,
		own:       make(map[string]struct{}),
		snapshots: make(map[string]*entity.Snapshot),
		resolved:  make(map[string]time.Time),
	}
}

// lock toma el bloqueo del ítem una sola vez por transacción (reentrante).
func (t *tx) lock(ctx context.Context, itemID string) error {
	if _, ok := t.own[itemID]; ok {
		return nil
	}
	if err := t.s.locks.lock(ctx, itemID); err != nil {
		return fmt.Errorf("lock snapshot %s: %w: %w", itemID, domain.ErrLockTimeout, err)
	}
	t.own[itemID] = struct{}{}
	t.held = append(t.held, itemID)
	return nil
}

func (t *tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.unlock(t.held[i])
	}
	t.held = nil
	t.own = map[string]struct{}{}
	t.done = true
}

func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range t.items {
		if _, dup := s.itemNames[it.Name]; dup {
			return domain.ErrDuplicate
		}
	}
	for _, it := range t.items {
		s.items[it.ID] = it
		s.itemNames[it.Name] = it.ID
	}
	for id, snap := range t.snapshots {
		s.snapshots[id] = snap
	}
	for _, tr := range t.transactions {
		s.seq++
		tr.Seq = s.seq
		s.transactions = append(s.transactions, tr)
	}
	for _, a := range t.alerts {
		s.alerts[a.ID] = a
	}
	for id, at := range t.resolved {
		if a, ok := s.alerts[id]; ok && a.ResolvedAt == nil {
			resolvedAt := at
			a.ResolvedAt = &resolvedAt
		}
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Ítems
// ──────────────────────────────────────────────────────────────────────────────

// ItemRepo implementa repository.ItemRepository.
type ItemRepo struct {
	s  *Store
	tx *tx
}

var _ repository.ItemRepository = (*ItemRepo)(nil)

func (r *ItemRepo) Create(_ context.Context, item *entity.Item) error {
	if r.tx != nil {
		r.s.mu.RLock()
		_, dup := r.s.itemNames[item.Name]
		r.s.mu.RUnlock()
		for _, staged := range r.tx.items {
			if staged.Name == item.Name {
				dup = true
			}
		}
		if dup {
			return domain.ErrDuplicate
		}
		cp := *item
		r.tx.items = append(r.tx.items, &cp)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, dup := r.s.itemNames[item.Name]; dup {
		return domain.ErrDuplicate
	}
	cp := *item
	r.s.items[item.ID] = &cp
	r.s.itemNames[item.Name] = item.ID
	return nil
}

func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.Item, error) {
	if r.tx != nil {
		for _, it := range r.tx.items {
			if it.ID == id {
				cp := *it
				return &cp, nil
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *ItemRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.Item, error) {
	var out []*entity.Item
	for _, id := range ids {
		it, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if it != nil {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *ItemRepo) List(_ context.Context, limit, offset int) ([]*entity.Item, error) {
	r.s.mu.RLock()
	list := make([]*entity.Item, 0, len(r.s.items))
	for _, it := range r.s.items {
		cp := *it
		list = append(list, &cp)
	}
	r.s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].Name < list[j].Name
	})
	return page(list, repository.ClampLimit(limit), max(offset, 0)), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Snapshots
// ──────────────────────────────────────────────────────────────────────────────

// SnapshotRepo implementa repository.SnapshotRepository.
type SnapshotRepo struct {
	s  *Store
	tx *tx
}

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

func (r *SnapshotRepo) Get(_ context.Context, itemID string) (*entity.Snapshot, error) {
	if r.tx != nil {
		if snap, ok := r.tx.snapshots[itemID]; ok {
			cp := *snap
			return &cp, nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	snap, ok := r.s.snapshots[itemID]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

func (r *SnapshotRepo) GetOrCreateForUpdate(ctx context.Context, itemID string) (*entity.Snapshot, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, itemID); err != nil {
			return nil, err
		}
	}
	snap, err := r.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap, nil
	}
	snap = &entity.Snapshot{ItemID: itemID, Quantity: 0, UpdatedAt: time.Now()}
	if err := r.Update(ctx, snap); err != nil {
		return nil, err
	}
	cp := *snap
	return &cp, nil
}

func (r *SnapshotRepo) Update(_ context.Context, snapshot *entity.Snapshot) error {
	if snapshot.Quantity < 0 {
		return fmt.Errorf("update snapshot: cantidad negativa %d", snapshot.Quantity)
	}
	cp := *snapshot
	if r.tx != nil {
		r.tx.snapshots[snapshot.ItemID] = &cp
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.snapshots[snapshot.ItemID] = &cp
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones
// ──────────────────────────────────────────────────────────────────────────────

// TransactionRepo implementa repository.TransactionRepository (append-only).
type TransactionRepo struct {
	s  *Store
	tx *tx
}

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

func (r *TransactionRepo) Append(_ context.Context, t *entity.Transaction) error {
	cp := *t
	if r.tx != nil {
		r.tx.transactions = append(r.tx.transactions, &cp)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	cp.Seq = r.s.seq
	t.Seq = cp.Seq
	r.s.transactions = append(r.s.transactions, &cp)
	return nil
}

func (r *TransactionRepo) List(_ context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, error) {
	filter.Normalize()
	var list []*entity.Transaction
	for _, t := range r.all() {
		if filter.ItemID != "" && t.ItemID != filter.ItemID {
			continue
		}
		if filter.ActorID != "" && (t.ActorID == nil || *t.ActorID != filter.ActorID) {
			continue
		}
		if filter.From != nil && t.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.CreatedAt.After(*filter.To) {
			continue
		}
		list = append(list, t)
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filter.Ascending {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if filter.Ascending {
			return a.Seq < b.Seq
		}
		return a.Seq > b.Seq
	})
	return page(list, filter.Limit, filter.Offset), nil
}

func (r *TransactionRepo) SumByItem(_ context.Context, itemID string) (int64, error) {
	var sum int64
	for _, t := range r.all() {
		if t.ItemID == itemID {
			sum += t.Delta
		}
	}
	return sum, nil
}

// all copia confirmadas más las pendientes de la transacción propia.
func (r *TransactionRepo) all() []*entity.Transaction {
	r.s.mu.RLock()
	out := make([]*entity.Transaction, 0, len(r.s.transactions))
	for _, t := range r.s.transactions {
		cp := *t
		out = append(out, &cp)
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, t := range r.tx.transactions {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Alertas
// ──────────────────────────────────────────────────────────────────────────────

// AlertRepo implementa repository.AlertRepository.
type AlertRepo struct {
	s  *Store
	tx *tx
}

var _ repository.AlertRepository = (*AlertRepo)(nil)

func (r *AlertRepo) Create(ctx context.Context, alert *entity.Alert) error {
	if alert.ResolvedAt == nil {
		open, err := r.FindOpen(ctx, alert.ItemID, alert.Type)
		if err != nil {
			return err
		}
		if open != nil {
			return domain.ErrDuplicate
		}
	}
	cp := *alert
	if r.tx != nil {
		r.tx.alerts = append(r.tx.alerts, &cp)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.alerts[alert.ID] = &cp
	return nil
}

func (r *AlertRepo) GetByID(_ context.Context, id string) (*entity.Alert, error) {
	for _, a := range r.all() {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (r *AlertRepo) FindOpen(_ context.Context, itemID, alertType string) (*entity.Alert, error) {
	for _, a := range r.all() {
		if a.ItemID == itemID && a.Type == alertType && a.IsOpen() {
			return a, nil
		}
	}
	return nil, nil
}

func (r *AlertRepo) Resolve(ctx context.Context, id string, at time.Time) (bool, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if a == nil || !a.IsOpen() {
		return false, nil
	}
	if r.tx != nil {
		for _, staged := range r.tx.alerts {
			if staged.ID == id {
				resolvedAt := at
				staged.ResolvedAt = &resolvedAt
				return true, nil
			}
		}
		r.tx.resolved[id] = at
		return true, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.alerts[id]
	if !ok || stored.ResolvedAt != nil {
		return false, nil
	}
	resolvedAt := at
	stored.ResolvedAt = &resolvedAt
	return true, nil
}

func (r *AlertRepo) List(_ context.Context, filter repository.AlertFilter) ([]*entity.Alert, error) {
	var list []*entity.Alert
	for _, a := range r.all() {
		if filter.ItemID != "" && a.ItemID != filter.ItemID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.OpenOnly && !a.IsOpen() {
			continue
		}
		list = append(list, a)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].TriggeredAt.After(list[j].TriggeredAt)
	})
	filter.Normalize()
	return page(list, filter.Limit, filter.Offset), nil
}

// all copia de las alertas confirmadas con las escrituras pendientes de la transacción aplicadas.
func (r *AlertRepo) all() []*entity.Alert {
	r.s.mu.RLock()
	out := make([]*entity.Alert, 0, len(r.s.alerts))
	for _, a := range r.s.alerts {
		cp := *a
		out = append(out, &cp)
	}
	r.s.mu.RUnlock()
	if r.tx == nil {
		return out
	}
	for _, a := range out {
		if at, ok := r.tx.resolved[a.ID]; ok && a.ResolvedAt == nil {
			resolvedAt := at
			a.ResolvedAt = &resolvedAt
		}
	}
	for _, a := range r.tx.alerts {
		cp := *a
		out = append(out, &cp)
	}
	return out
}

func page[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
