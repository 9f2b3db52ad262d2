package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un ítem del catálogo. El ledger solo lee su existencia y su umbral de stock bajo;
// la cantidad vive en Snapshot.
type Item struct {
	ID                string
	Name              string // único en el catálogo
	Category          string
	Price             decimal.Decimal
	LowStockThreshold int64 // cantidad igual o inferior abre alerta de stock bajo (default 0)
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
