package dto

import "github.com/jhoicas/stock-ledger/internal/domain/repository"

// PageRequest paginación de listados (ítems, transacciones, alertas).
type PageRequest struct {
	Limit  int
	Offset int
}

// DefaultPage normaliza la página: límite por defecto si falta y tope en MaxListLimit.
func (p *PageRequest) DefaultPage() {
	p.Limit = repository.ClampLimit(p.Limit)
	p.Offset = max(p.Offset, 0)
}

// PageResponse límite y desplazamiento efectivamente aplicados.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
