package entity

import "time"

// Snapshot es la cantidad actual materializada de un ítem (un registro por ítem).
// Quantity es la suma acumulada de los deltas confirmados; nunca es negativa.
type Snapshot struct {
	ItemID    string
	Quantity  int64
	UpdatedAt time.Time
}
