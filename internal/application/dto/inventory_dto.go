package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AdjustStockRequest body para POST /api/items/:id/adjust-stock.
type AdjustStockRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason,omitempty"` // manual (default) | csv | adjustment | init
	Note   string `json:"note,omitempty"`
}

// BulkAdjustmentRow un renglón del lote.
type BulkAdjustmentRow struct {
	ItemID string `json:"item_id"`
	Delta  int64  `json:"delta"`
	Reason string `json:"reason,omitempty"`
	Note   string `json:"note,omitempty"`
}

// BulkAdjustStockRequest body para POST /api/items/bulk-adjust-stock.
// Reason es el motivo por defecto de los renglones sin motivo (csv si también falta).
// ClampNegative recorta en el handler los deltas negativos que excedan el stock disponible.
type BulkAdjustStockRequest struct {
	Adjustments   []BulkAdjustmentRow `json:"adjustments"`
	Reason        string              `json:"reason,omitempty"`
	ClampNegative bool                `json:"clamp_negative"`
}

// ClampedAdjustment renglón cuyo delta fue recortado antes de enviarlo al ledger.
type ClampedAdjustment struct {
	Index     int    `json:"index"`
	ItemID    string `json:"item_id"`
	Requested int64  `json:"requested"`
	Applied   int64  `json:"applied"`
}

// BulkAdjustStockResponse transacciones creadas, en el orden del lote.
type BulkAdjustStockResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Clamped      []ClampedAdjustment   `json:"clamped,omitempty"`
}

// TransactionResponse asiento del ledger.
type TransactionResponse struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	ActorID   *string   `json:"actor_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionListResponse lista paginada del historial.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// StockResponse cantidad actual de un ítem.
type StockResponse struct {
	ItemID    string     `json:"item_id"`
	Quantity  int64      `json:"quantity"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ReconcileResponse resultado de comparar snapshot con la suma del ledger.
type ReconcileResponse struct {
	ItemID           string `json:"item_id"`
	SnapshotQuantity int64  `json:"snapshot_quantity"`
	LedgerSum        int64  `json:"ledger_sum"`
	Drift            int64  `json:"drift"`
	Consistent       bool   `json:"consistent"`
}

// AlertResponse alerta de stock bajo.
type AlertResponse struct {
	ID          string     `json:"id"`
	ItemID      string     `json:"item_id"`
	Type        string     `json:"type"`
	Message     string     `json:"message"`
	TriggeredAt time.Time  `json:"triggered_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// AlertListResponse lista paginada de alertas.
type AlertListResponse struct {
	Items []AlertResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// InsufficientStockResponse cuerpo 409 con el delta pedido y lo disponible.
type InsufficientStockResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	ItemID    string `json:"item_id"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// NotFoundResponse cuerpo 404 con los IDs inexistentes.
type NotFoundResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	IDs     []string `json:"ids,omitempty"`
}

// ToTransactionResponse convierte un asiento del ledger.
func ToTransactionResponse(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        t.ID,
		ItemID:    t.ItemID,
		Delta:     t.Delta,
		Reason:    t.Reason,
		ActorID:   t.ActorID,
		Note:      t.Note,
		CreatedAt: t.CreatedAt,
	}
}

// ToTransactionResponses convierte una lista preservando el orden.
func ToTransactionResponses(list []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, ToTransactionResponse(t))
	}
	return out
}

// ToAlertResponse convierte una alerta.
func ToAlertResponse(a *entity.Alert) AlertResponse {
	return AlertResponse{
		ID:          a.ID,
		ItemID:      a.ItemID,
		Type:        a.Type,
		Message:     a.Message,
		TriggeredAt: a.TriggeredAt,
		ResolvedAt:  a.ResolvedAt,
	}
}

// ToStockResponse convierte un snapshot; UpdatedAt se omite si nunca hubo ajustes.
func ToStockResponse(s *entity.Snapshot) StockResponse {
	out := StockResponse{ItemID: s.ItemID, Quantity: s.Quantity}
	if !s.UpdatedAt.IsZero() {
		at := s.UpdatedAt
		out.UpdatedAt = &at
	}
	return out
}
