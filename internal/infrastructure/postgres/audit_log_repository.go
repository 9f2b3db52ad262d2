package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo sink de auditoría sobre la tabla audit_logs. Se usa fuera de la tx del ledger.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Record inserta el evento. Reintentos del notificador con el mismo ID no duplican filas.
func (r *AuditLogRepo) Record(ctx context.Context, e entity.AuditEvent) error {
	before, err := marshalJSONB(e.Before)
	if err != nil {
		return err
	}
	after, err := marshalJSONB(e.After)
	if err != nil {
		return err
	}
	meta, err := marshalJSONB(e.Context)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO audit_logs (id, actor_id, action, object_type, object_id, before, after, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`
	_, err = r.q.Exec(ctx, query, e.ID, e.ActorID, e.Action, e.ObjectType, e.ObjectID, before, after, meta, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record audit log: %w", err)
	}
	return nil
}

func marshalJSONB(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return b, nil
}
