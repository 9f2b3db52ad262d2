package inventory

import "fmt"

// AlertTransition resultado de evaluar un cambio de cantidad contra el umbral.
type AlertTransition int

const (
	AlertNone    AlertTransition = iota // sin cambios
	AlertOpen                           // abrir alerta de stock bajo
	AlertResolve                        // resolver la alerta abierta
)

// EvaluateLowStock implementa la máquina de estados de la alerta de stock bajo (servicio de dominio).
//   - Abrir: new <= umbral y no hay alerta abierta.
//   - Resolver: old <= umbral, new > umbral y hay alerta abierta.
//   - Cualquier otro caso no cambia nada (histéresis por lado del umbral).
func EvaluateLowStock(threshold, oldQty, newQty int64, hasOpen bool) AlertTransition {
	if newQty <= threshold {
		if !hasOpen {
			return AlertOpen
		}
		return AlertNone
	}
	if oldQty <= threshold && hasOpen {
		return AlertResolve
	}
	return AlertNone
}

// LowStockMessage mensaje generado al abrir la alerta.
func LowStockMessage(itemName string, qty int64) string {
	return fmt.Sprintf("Low stock alert: %s (%d remaining)", itemName, qty)
}
