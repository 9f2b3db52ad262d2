package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo log append-only de stock_transactions (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Append inserta el asiento y completa Seq con la secuencia asignada por la BD.
func (r *TransactionRepo) Append(ctx context.Context, t *entity.Transaction) error {
	query := `
		INSERT INTO stock_transactions (id, item_id, delta, reason, actor_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		t.ID, t.ItemID, t.Delta, t.Reason, t.ActorID, t.Note, t.CreatedAt,
	).Scan(&t.Seq)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// List lista asientos con filtros opcionales; por defecto más recientes primero (created_at, seq).
func (r *TransactionRepo) List(ctx context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, error) {
	filter.Normalize()
	query := `
		SELECT seq, id, item_id, delta, reason, actor_id, note, created_at
		FROM stock_transactions WHERE 1=1`
	args := []any{}
	pos := 1
	if filter.ItemID != "" {
		query += fmt.Sprintf(" AND item_id = $%d", pos)
		args = append(args, filter.ItemID)
		pos++
	}
	if filter.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id = $%d", pos)
		args = append(args, filter.ActorID)
		pos++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *filter.To)
		pos++
	}
	if filter.Ascending {
		query += " ORDER BY created_at ASC, seq ASC"
	} else {
		query += " ORDER BY created_at DESC, seq DESC"
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		if err := rows.Scan(&t.Seq, &t.ID, &t.ItemID, &t.Delta, &t.Reason, &t.ActorID, &t.Note, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// SumByItem suma los deltas de un ítem.
func (r *TransactionRepo) SumByItem(ctx context.Context, itemID string) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(delta), 0)::bigint FROM stock_transactions WHERE item_id = $1`
	if err := r.q.QueryRow(ctx, query, itemID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return sum, nil
}
