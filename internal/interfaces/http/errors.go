package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain"
)

// errorMapping orden de evaluación: el primer sentinel que coincide gana.
// TransitionError coincide siempre con ErrInvalidTransition, así que las causas concretas que
// puede envolver van antes. ErrAuthorizationFailed solo llega como guarda de emisión sin CAE vigente.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrMissingReason, fiber.StatusBadRequest, "MISSING_REASON"},
	{domain.ErrAuthorizationFailed, fiber.StatusConflict, "AUTHORIZATION_REQUIRED"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrRelatedDocumentNotFound, fiber.StatusUnprocessableEntity, "RELATED_DOCUMENT_NOT_FOUND"},
	{domain.ErrDuplicateApproval, fiber.StatusConflict, "DUPLICATE_APPROVAL"},
	{domain.ErrAlreadyApproved, fiber.StatusConflict, "ALREADY_APPROVED"},
	{domain.ErrDuplicateVoucherNumber, fiber.StatusConflict, "DUPLICATE_VOUCHER_NUMBER"},
	{domain.ErrImmutableSettlement, fiber.StatusConflict, "IMMUTABLE_SETTLEMENT"},
	{domain.ErrConflictRetryable, fiber.StatusConflict, "RETRY"},
	{domain.ErrInvalidTaxRate, fiber.StatusBadRequest, "INVALID_TAX_RATE"},
	{domain.ErrEmptyItemSet, fiber.StatusBadRequest, "EMPTY_ITEM_SET"},
	{domain.ErrInvalidExchangeRate, fiber.StatusBadRequest, "INVALID_EXCHANGE_RATE"},
	{domain.ErrRelatedDocumentRequired, fiber.StatusBadRequest, "RELATED_DOCUMENT_REQUIRED"},
	{domain.ErrInvalidCounterparty, fiber.StatusBadRequest, "INVALID_COUNTERPARTY"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
}

// StatusFromError traduce un error de los casos de uso a status HTTP y código.
func StatusFromError(err error) (int, string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest, "VALIDATION"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := StatusFromError(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error no mapeado")
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
