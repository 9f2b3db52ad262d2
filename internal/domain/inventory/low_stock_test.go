package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateLowStock(t *testing.T) {
	cases := []struct {
		name      string
		threshold int64
		old, new  int64
		hasOpen   bool
		want      AlertTransition
	}{
		{"cruza hacia abajo sin alerta abre", 5, 6, 4, false, AlertOpen},
		{"llega justo al umbral abre", 5, 6, 5, false, AlertOpen},
		{"sigue abajo con alerta abierta no cambia", 5, 4, 2, true, AlertNone},
		{"sigue abajo sin alerta abre (resuelta a mano)", 5, 4, 2, false, AlertOpen},
		{"cruza hacia arriba con alerta resuelve", 5, 2, 6, true, AlertResolve},
		{"cruza hacia arriba sin alerta no cambia", 5, 2, 6, false, AlertNone},
		{"sigue arriba no cambia", 5, 10, 6, false, AlertNone},
		{"sigue arriba con alerta huérfana no resuelve", 5, 8, 9, true, AlertNone},
		{"umbral cero y cantidad cero abre", 0, 1, 0, false, AlertOpen},
		{"umbral cero y cantidad positiva no abre", 0, 0, 10, false, AlertNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateLowStock(tc.threshold, tc.old, tc.new, tc.hasOpen))
		})
	}
}

// Evaluar dos veces el mismo par arriba del umbral sin alerta abierta es no-op ambas veces.
func TestEvaluateLowStock_Idempotente(t *testing.T) {
	assert.Equal(t, AlertNone, EvaluateLowStock(5, 7, 9, false))
	assert.Equal(t, AlertNone, EvaluateLowStock(5, 7, 9, false))
}

func TestLowStockMessage(t *testing.T) {
	assert.Equal(t, "Low stock alert: Tornillo (2 remaining)", LowStockMessage("Tornillo", 2))
}
