package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AuditLogRepository persiste eventos de auditoría (sink fuera de la transacción del ledger).
type AuditLogRepository interface {
	Record(ctx context.Context, event entity.AuditEvent) error
}
