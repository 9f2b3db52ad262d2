package http

import (
	"errors"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// maxBulkRows tope de renglones por lote.
const maxBulkRows = 1000

// StockHandler ajustes de stock, consulta de cantidad, historial y conciliación (protegido).
type StockHandler struct {
	ledger *inventory.LedgerUseCase
	query  *inventory.StockQueryUseCase
	log    *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.LedgerUseCase, query *inventory.StockQueryUseCase, log *logger.Logger) *StockHandler {
	return &StockHandler{ledger: ledger, query: query, log: log}
}

// AdjustStock godoc
// @Summary      Ajustar stock de un ítem
// @Description  Aplica un delta con signo. Nunca deja la cantidad en negativo.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del ítem"
// @Param        body  body  dto.AdjustStockRequest  true  "delta, reason (manual|csv|adjustment|init), note"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.NotFoundResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/items/{id}/adjust-stock [post]
func (h *StockHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	tx, err := h.ledger.ApplyDelta(c.Context(), inventory.AdjustmentInput{
		ItemID:  c.Params("id"),
		Delta:   in.Delta,
		Reason:  in.Reason,
		ActorID: actorID(c),
		Note:    in.Note,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTransactionResponse(tx))
}

// BulkAdjustStock godoc
// @Summary      Ajuste masivo de stock (todo o nada)
// @Description  Aplica los renglones en orden dentro de una sola transacción. Con clamp_negative=true los
// @Description  deltas negativos que excedan el stock leído se recortan antes de enviarlos al ledger.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkAdjustStockRequest  true  "Renglones del lote"
// @Success      201   {object}  dto.BulkAdjustStockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.NotFoundResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/items/bulk-adjust-stock [post]
func (h *StockHandler) BulkAdjustStock(c *fiber.Ctx) error {
	var in dto.BulkAdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if len(in.Adjustments) == 0 {
		return badRequest(c, "VALIDATION", "adjustments no puede estar vacío")
	}
	if len(in.Adjustments) > maxBulkRows {
		return badRequest(c, "VALIDATION", "demasiados renglones en el lote")
	}

	rows := make([]inventory.BulkAdjustment, len(in.Adjustments))
	for i, r := range in.Adjustments {
		reason := r.Reason
		if reason == "" {
			reason = in.Reason
		}
		rows[i] = inventory.BulkAdjustment{ItemID: r.ItemID, Delta: r.Delta, Reason: reason, Note: r.Note}
	}

	var clamped []dto.ClampedAdjustment
	if in.ClampNegative {
		var err error
		clamped, err = h.clampNegative(c, rows)
		if err != nil {
			return respondError(c, h.log, err)
		}
	}

	txs, err := h.ledger.ApplyBulk(c.Context(), rows, actorID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.BulkAdjustStockResponse{
		Transactions: dto.ToTransactionResponses(txs),
		Clamped:      clamped,
	})
}

// clampNegative recorta en sitio los deltas negativos que dejarían al ítem por debajo de 0 según
// la cantidad leída ahora. Es best-effort: entre la lectura y el ledger otro ajuste puede ganar,
// y en ese caso el ledger igualmente rechaza el lote.
func (h *StockHandler) clampNegative(c *fiber.Ctx, rows []inventory.BulkAdjustment) ([]dto.ClampedAdjustment, error) {
	running := make(map[string]int64)
	var clamped []dto.ClampedAdjustment
	for i := range rows {
		r := &rows[i]
		qty, ok := running[r.ItemID]
		if !ok {
			snap, err := h.query.GetStock(c.Context(), r.ItemID)
			if errors.Is(err, domain.ErrItemNotFound) {
				// el ledger reporta todos los faltantes juntos
				continue
			}
			if err != nil {
				return nil, err
			}
			qty = snap.Quantity
		}
		if r.Delta > 0 && qty > math.MaxInt64-r.Delta {
			// el ledger rechaza el desborde
			continue
		}
		if qty+r.Delta < 0 {
			clamped = append(clamped, dto.ClampedAdjustment{Index: i, ItemID: r.ItemID, Requested: r.Delta, Applied: -qty})
			r.Delta = -qty
		}
		running[r.ItemID] = qty + r.Delta
	}
	return clamped, nil
}

// GetStock godoc
// @Summary      Cantidad actual de un ítem
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.NotFoundResponse
// @Router       /api/items/{id}/stock [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	snap, err := h.query.GetStock(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToStockResponse(snap))
}

// Reconcile godoc
// @Summary      Conciliar snapshot con el historial
// @Description  Compara la cantidad materializada con la suma de deltas. Solo lectura.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      404  {object}  dto.NotFoundResponse
// @Router       /api/items/{id}/reconcile [get]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	res, err := h.query.Reconcile(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ReconcileResponse{
		ItemID:           res.ItemID,
		SnapshotQuantity: res.SnapshotQuantity,
		LedgerSum:        res.LedgerSum,
		Drift:            res.Drift,
		Consistent:       res.Consistent(),
	})
}

// ListTransactions godoc
// @Summary      Historial de transacciones
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        item_id   query  string  false  "Filtrar por ítem"
// @Param        actor_id  query  string  false  "Filtrar por actor"
// @Param        from      query  string  false  "Desde (RFC3339)"
// @Param        to        query  string  false  "Hasta (RFC3339)"
// @Param        order     query  string  false  "asc | desc (default desc)"
// @Param        limit     query  int     false  "Límite (default 50, máx 200)"
// @Param        offset    query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.TransactionListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transactions [get]
func (h *StockHandler) ListTransactions(c *fiber.Ctx) error {
	filter := repository.TransactionFilter{
		ItemID:    c.Query("item_id"),
		ActorID:   c.Query("actor_id"),
		Limit:     c.QueryInt("limit", repository.DefaultListLimit),
		Offset:    c.QueryInt("offset", 0),
		Ascending: c.Query("order") == "asc",
	}
	var err error
	if filter.From, err = parseTimeQuery(c, "from"); err != nil {
		return badRequest(c, "VALIDATION", "from debe ser RFC3339")
	}
	if filter.To, err = parseTimeQuery(c, "to"); err != nil {
		return badRequest(c, "VALIDATION", "to debe ser RFC3339")
	}
	list, err := h.query.ListTransactions(c.Context(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	filter.Normalize()
	return c.JSON(dto.TransactionListResponse{
		Items: dto.ToTransactionResponses(list),
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	})
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
