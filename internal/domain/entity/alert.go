package entity

import "time"

// AlertTypeLowStock es por ahora el único tipo de alerta.
const AlertTypeLowStock = "low_stock"

// Alert representa una alerta derivada de un cruce de umbral. ResolvedAt nil = abierta.
// Invariante: a lo sumo una alerta abierta por (ítem, tipo).
type Alert struct {
	ID          string
	ItemID      string
	Type        string
	Message     string
	TriggeredAt time.Time
	ResolvedAt  *time.Time
}

// IsOpen indica si la alerta sigue sin resolver.
func (a *Alert) IsOpen() bool { return a.ResolvedAt == nil }
