package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents   *billing.DocumentUseCase
	Approvals   *billing.ApprovalUseCase
	Status      *billing.StatusUseCase
	Settlements *billing.SettlementUseCase
	Authorizer  *billing.AuthorizationOrchestrator
	Tokens      TokenVerifier
	Log         zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token; las escrituras además un rol.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.Tokens))

	operators := RequireRole(RoleAdmin, RoleOperator)
	approvers := RequireRole(RoleAdmin, RoleApprover)
	treasury := RequireRole(RoleAdmin, RoleTreasurer)
	admins := RequireRole(RoleAdmin)

	docs := api.Group("/documents")
	dh := NewDocumentHandler(deps.Documents, deps.Approvals, deps.Status, deps.Authorizer, deps.Log.With().Str("handler", "documents").Logger())
	docs.Post("/", operators, dh.Create)
	docs.Get("/", dh.List)
	docs.Get("/:id", dh.GetByID)
	docs.Post("/:id/approvals", approvers, dh.Approve)
	docs.Post("/:id/reject", approvers, dh.Reject)
	docs.Post("/:id/correct", operators, dh.Correct)
	docs.Post("/:id/resubmit", operators, dh.Resubmit)
	docs.Post("/:id/issue", operators, dh.Issue)
	docs.Post("/:id/authorize", operators, dh.Authorize)
	docs.Post("/:id/pending-acceptance", operators, dh.PendingAcceptance)
	docs.Post("/:id/accept", operators, dh.Accept)
	docs.Post("/:id/overdue", treasury, dh.MarkOverdue)
	docs.Post("/:id/cancel", admins, dh.Cancel)
	docs.Post("/:id/archive", admins, dh.Archive)

	sh := NewSettlementHandler(deps.Settlements, deps.Log.With().Str("handler", "settlements").Logger())
	docs.Post("/:id/settlements", RequireRole(RoleAdmin, RoleTreasurer, RoleOperator), sh.Declare)
	docs.Get("/:id/settlements", sh.ListByDocument)

	settlements := api.Group("/settlements")
	settlements.Post("/:id/confirm", treasury, sh.Confirm)
	settlements.Post("/:id/reject", treasury, sh.Reject)
	settlements.Delete("/:id", treasury, sh.Delete)
}
