package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
	"github.com/jhoicas/facturacion-arg/internal/application/dto"
)

// SettlementHandler pagos y cobros.
type SettlementHandler struct {
	uc  *billing.SettlementUseCase
	log zerolog.Logger
}

// NewSettlementHandler construye el handler.
func NewSettlementHandler(uc *billing.SettlementUseCase, log zerolog.Logger) *SettlementHandler {
	return &SettlementHandler{uc: uc, log: log}
}

// Declare registra un pago/cobro sin impactar el saldo.
// POST /api/documents/:id/settlements
func (h *SettlementHandler) Declare(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.DeclareSettlementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Declare(c.Context(), companyID, userID, c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListByDocument GET /api/documents/:id/settlements
func (h *SettlementHandler) ListByDocument(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.ListByDocument(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Confirm imputa el pago contra el saldo.
// POST /api/settlements/:id/confirm
func (h *SettlementHandler) Confirm(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Confirm(c.Context(), companyID, userID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Reject POST /api/settlements/:id/reject {"reason": "..."}
func (h *SettlementHandler) Reject(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.ReasonRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Reject(c.Context(), companyID, c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete DELETE /api/settlements/:id
func (h *SettlementHandler) Delete(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Delete(c.Context(), companyID, c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
