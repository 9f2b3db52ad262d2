package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error no se persiste nada; si devuelve nil, Run retorna solo después del commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.ItemRepository,
		snapshotRepo repository.SnapshotRepository,
		transactionRepo repository.TransactionRepository,
		alertRepo repository.AlertRepository,
	) error) error
}

// AuditNotifier recibe eventos después del commit. Notify no debe bloquear ni fallar.
type AuditNotifier interface {
	Notify(event entity.AuditEvent)
}

// StockCache caché de lectura de snapshots (opcional). Set solo reemplaza valores más antiguos.
// Invalidate descarta la entrada cuando no se pudo escribir el valor confirmado.
type StockCache interface {
	Get(ctx context.Context, itemID string) (*entity.Snapshot, error)
	Set(ctx context.Context, snapshot entity.Snapshot) error
	Invalidate(ctx context.Context, itemID string) error
}
