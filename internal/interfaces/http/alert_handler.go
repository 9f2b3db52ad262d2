package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// AlertHandler consulta y resolución de alertas de stock bajo (protegido).
type AlertHandler struct {
	uc  *inventory.AlertUseCase
	log *logger.Logger
}

// NewAlertHandler construye el handler.
func NewAlertHandler(uc *inventory.AlertUseCase, log *logger.Logger) *AlertHandler {
	return &AlertHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar alertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        item_id  query  string  false  "Filtrar por ítem"
// @Param        open     query  bool    false  "Solo abiertas"
// @Param        limit    query  int     false  "Límite (default 50, máx 200)"
// @Param        offset   query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.AlertListResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	filter := repository.AlertFilter{
		ItemID:   c.Query("item_id"),
		OpenOnly: c.QueryBool("open", false),
		Limit:    c.QueryInt("limit", repository.DefaultListLimit),
		Offset:   c.QueryInt("offset", 0),
	}
	list, err := h.uc.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	items := make([]dto.AlertResponse, 0, len(list))
	for _, a := range list {
		items = append(items, dto.ToAlertResponse(a))
	}
	filter.Normalize()
	return c.JSON(dto.AlertListResponse{Items: items, Page: dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset}})
}

// Resolve godoc
// @Summary      Resolver alerta manualmente
// @Description  Idempotente: resolver una alerta ya resuelta la devuelve sin cambios.
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la alerta"
// @Success      200  {object}  dto.AlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	alert, err := h.uc.Resolve(c.Context(), c.Params("id"), actorID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToAlertResponse(alert))
}
