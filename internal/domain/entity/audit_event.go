package entity

import "time"

// Acciones de auditoría emitidas por el servicio.
const (
	AuditActionStockAdjust  = "STOCK_ADJUST"
	AuditActionAlertResolve = "ALERT_RESOLVE"
	AuditActionCreate       = "CREATE"
)

// Tipos de objeto auditado.
const (
	AuditObjectItem  = "item"
	AuditObjectAlert = "alert"
)

// AuditEvent notificación best-effort enviada al sink de auditoría después del commit.
// Context incluye correlation_id (ID de la transacción de stock cuando aplica).
type AuditEvent struct {
	ID         string
	ActorID    *string
	Action     string
	ObjectType string
	ObjectID   string
	Before     map[string]any
	After      map[string]any
	Context    map[string]any
	CreatedAt  time.Time
}
