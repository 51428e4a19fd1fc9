package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	"github.com/jhoicas/Traslados-api/internal/application/transfer"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// TransferHandler maneja las peticiones HTTP de traslados entre tiendas (protegido).
type TransferHandler struct {
	uc  *transfer.TransferUseCase
	log zerolog.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transfer.TransferUseCase, log zerolog.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, log: log.With().Str("component", "http.transfer").Logger()}
}

// Create godoc
// @Summary      Solicitar traslado
// @Description  Crea un traslado en estado pending. No mueve stock; valida que el origen tenga existencias.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTransferRequest  true  "from_store_id, to_store_id, items"
// @Success      201   {object}  dto.TransferResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if fields := validateStruct(in); fields != nil {
		return validationFailed(c, fields)
	}

	items := make([]transfer.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, transfer.ItemInput{ProductVariantID: it.ProductVariantID, Quantity: it.Quantity, Notes: it.Notes})
	}
	out, err := h.uc.Create(c.Context(), transfer.CreateInput{
		OrganizationID:      companyID,
		RequestedBy:         userID,
		FromStoreID:         in.FromStoreID,
		ToStoreID:           in.ToStoreID,
		Reference:           in.Reference,
		Notes:               in.Notes,
		ExpectedArrivalDate: in.ExpectedArrivalDate,
		Items:               items,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Approve godoc
// @Summary      Aprobar traslado
// @Description  pending → in_transit. Descuenta del origen la cantidad enviada (por defecto la solicitada).
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true   "ID del traslado"
// @Param        body  body      dto.ApproveTransferRequest  false  "cantidades enviadas por línea"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ApproveTransferRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	out, err := h.uc.Approve(c.Context(), transfer.ApproveInput{
		OrganizationID: companyID,
		TransferID:     c.Params("id"),
		ApproverID:     userID,
		QuantitiesSent: in.Quantities,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Receive godoc
// @Summary      Recibir traslado
// @Description  in_transit → completed. Ingresa al destino lo recibido; el faltante no vuelve al origen.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true  "ID del traslado"
// @Param        body  body      dto.ReceiveTransferRequest  true  "quantities: item_id → cantidad recibida"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ReceiveTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if fields := validateStruct(in); fields != nil {
		return validationFailed(c, fields)
	}
	out, err := h.uc.Receive(c.Context(), transfer.ReceiveInput{
		OrganizationID: companyID,
		TransferID:     c.Params("id"),
		ReceiverID:     userID,
		Quantities:     in.Quantities,
		Notes:          in.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar traslado
// @Description  pending|in_transit → cancelled. Si ya estaba en tránsito, devuelve al origen lo enviado.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "ID del traslado"
// @Param        body  body      dto.CancelTransferRequest  true  "reason"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CancelTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if fields := validateStruct(in); fields != nil {
		return validationFailed(c, fields)
	}
	out, err := h.uc.Cancel(c.Context(), transfer.CancelInput{
		OrganizationID: companyID,
		TransferID:     c.Params("id"),
		CancellerID:    userID,
		Reason:         in.Reason,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Detalle de traslado
// @Description  Los usuarios que no son admin solo ven traslados de su tienda activa.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	scope := GetStoreID(c)
	if GetRole(c) == entity.RoleAdmin {
		scope = ""
	}
	out, err := h.uc.Find(c.Context(), companyID, c.Params("id"), scope)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        page            query  int     false  "Página (base 1)"
// @Param        per_page        query  int     false  "Tamaño de página"
// @Param        search          query  string  false  "Número, referencia o notas"
// @Param        status          query  string  false  "pending | in_transit | completed | cancelled"
// @Param        direction       query  string  false  "outgoing | incoming | all (relativo a la tienda activa)"
// @Param        store_id        query  string  false  "Origen o destino"
// @Param        from_store_id   query  string  false  "Tienda origen"
// @Param        to_store_id     query  string  false  "Tienda destino"
// @Param        date_from       query  string  false  "YYYY-MM-DD"
// @Param        date_to         query  string  false  "YYYY-MM-DD (inclusive)"
// @Param        sort_by         query  string  false  "created_at | transfer_number | status | transfer_date | received_at"
// @Param        sort_direction  query  string  false  "asc | desc"
// @Success      200  {object}  dto.TransferListResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var req dto.ListTransfersRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	fields := map[string]string{}
	if d, ok := parseDateQuery(c, "date_from", fields); ok {
		req.DateFrom = d
	}
	if d, ok := parseDateQuery(c, "date_to", fields); ok {
		req.DateTo = d
	}
	if len(fields) > 0 {
		return validationFailed(c, fields)
	}
	if verrs := validateStruct(req); verrs != nil {
		return validationFailed(c, verrs)
	}

	out, err := h.uc.List(c.Context(), companyID, GetStoreID(c), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Statistics godoc
// @Summary      Estadísticas de traslados de la tienda activa
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.TransferStatistics
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transfers/statistics [get]
func (h *TransferHandler) Statistics(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	storeID := GetStoreID(c)
	if storeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "NO_ACTIVE_STORE", Message: "el usuario no tiene una tienda activa"})
	}
	out, err := h.uc.Statistics(c.Context(), companyID, storeID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// parseDateQuery lee un parámetro YYYY-MM-DD. ok=false si no viene o es inválido (registrado en fields).
func parseDateQuery(c *fiber.Ctx, key string, fields map[string]string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, false
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		fields[key] = "formato esperado YYYY-MM-DD"
		return nil, false
	}
	return &d, true
}
