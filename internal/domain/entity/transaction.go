package entity

import "time"

// Motivos válidos de un ajuste de stock.
const (
	ReasonManual     = "manual"
	ReasonCSV        = "csv"
	ReasonAdjustment = "adjustment"
	ReasonInit       = "init"
)

// ValidReason indica si r es uno de los motivos enumerados.
func ValidReason(r string) bool {
	switch r {
	case ReasonManual, ReasonCSV, ReasonAdjustment, ReasonInit:
		return true
	}
	return false
}

// Transaction es un asiento inmutable del ledger de stock. Se crea exactamente una vez por ajuste
// confirmado y nunca se modifica ni se borra. El orden autoritativo es (CreatedAt, Seq).
type Transaction struct {
	ID        string
	Seq       int64 // secuencia monotónica asignada por el almacenamiento
	ItemID    string
	Delta     int64
	Reason    string
	ActorID   *string // referencia débil: nil si el actor fue eliminado o no hubo actor
	Note      string
	CreatedAt time.Time
}
