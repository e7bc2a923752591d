package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain"
)

// DocumentHandler comprobantes fiscales: alta, consulta, aprobaciones, estados y CAE.
type DocumentHandler struct {
	docs       *billing.DocumentUseCase
	approvals  *billing.ApprovalUseCase
	status     *billing.StatusUseCase
	authorizer *billing.AuthorizationOrchestrator
	log        zerolog.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(
	docs *billing.DocumentUseCase,
	approvals *billing.ApprovalUseCase,
	status *billing.StatusUseCase,
	authorizer *billing.AuthorizationOrchestrator,
	log zerolog.Logger,
) *DocumentHandler {
	return &DocumentHandler{docs: docs, approvals: approvals, status: status, authorizer: authorizer, log: log}
}

// Create registra un comprobante (o NC/ND, que impacta el saldo del original).
// POST /api/documents
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.docs.CreateDocument(c.Context(), companyID, userID, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID cabecera, ítems y percepciones.
// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.docs.GetDocument(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List comprobantes de la empresa del token.
// GET /api/documents?direction=&type=&status=&limit=&offset=
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.ListDocumentsRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "BAD_QUERY", Message: "parámetros de consulta inválidos"})
	}
	out, err := h.docs.ListDocuments(c.Context(), companyID, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Approve registra la aprobación del usuario del token.
// POST /api/documents/:id/approvals
func (h *DocumentHandler) Approve(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ApprovalRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.approvals.RecordApproval(c.Context(), companyID, c.Params("id"), userID, in.Note)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Reject POST /api/documents/:id/reject {"reason": "..."}
func (h *DocumentHandler) Reject(c *fiber.Ctx) error {
	return h.withReason(c, h.status.Reject)
}

// Correct POST /api/documents/:id/correct {"reason": "..."} (notas de corrección)
func (h *DocumentHandler) Correct(c *fiber.Ctx) error {
	return h.withReason(c, h.status.StartCorrection)
}

// Resubmit POST /api/documents/:id/resubmit
func (h *DocumentHandler) Resubmit(c *fiber.Ctx) error {
	return h.simple(c, h.status.Resubmit)
}

// Issue POST /api/documents/:id/issue (comprobantes manuales)
func (h *DocumentHandler) Issue(c *fiber.Ctx) error {
	return h.simple(c, h.status.Issue)
}

// PendingAcceptance POST /api/documents/:id/pending-acceptance (FCE)
func (h *DocumentHandler) PendingAcceptance(c *fiber.Ctx) error {
	return h.simple(c, h.status.MarkPendingAcceptance)
}

// Accept POST /api/documents/:id/accept (FCE aceptada por el receptor)
func (h *DocumentHandler) Accept(c *fiber.Ctx) error {
	return h.simple(c, h.status.RecordAcceptance)
}

// Cancel POST /api/documents/:id/cancel
func (h *DocumentHandler) Cancel(c *fiber.Ctx) error {
	return h.simple(c, h.status.Cancel)
}

// Archive POST /api/documents/:id/archive
func (h *DocumentHandler) Archive(c *fiber.Ctx) error {
	return h.simple(c, h.status.Archive)
}

// MarkOverdue POST /api/documents/:id/overdue?as_of=2026-10-17
func (h *DocumentHandler) MarkOverdue(c *fiber.Ctx) error {
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return writeError(c, h.log, domain.NewValidationError("as_of", raw, "formato AAAA-MM-DD", nil))
		}
		asOf = t
	}
	return h.simple(c, func(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
		return h.status.MarkOverdue(ctx, companyID, id, asOf)
	})
}

// Authorize solicita el CAE. Con ?async=true responde 202 y procesa en segundo plano.
// POST /api/documents/:id/authorize
func (h *DocumentHandler) Authorize(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	id := c.Params("id")
	if c.QueryBool("async") {
		// La empresa se valida antes de desacoplar: el worker no la controla.
		if _, err := h.docs.GetDocument(c.Context(), companyID, id); err != nil {
			return writeError(c, h.log, err)
		}
		h.authorizer.ProcessAsync(id)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"document_id": id, "status": "processing"})
	}
	out, err := h.authorizer.RequestAuthorization(c.Context(), companyID, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

func (h *DocumentHandler) simple(c *fiber.Ctx, op func(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error)) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := op(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

func (h *DocumentHandler) withReason(c *fiber.Ctx, op func(ctx context.Context, companyID, id, reason string) (*dto.DocumentResponse, error)) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.ReasonRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := op(c.Context(), companyID, c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
