package billing

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/repository"
)

// FiscalRepos repositorios del núcleo fiscal. Dentro de RunFiscal están atados a la misma transacción.
type FiscalRepos struct {
	Documents   repository.FiscalDocumentRepository
	Sequences   repository.SequenceRepository
	Settlements repository.SettlementRepository
	Approvals   repository.ApprovalRepository
}

// FiscalTxRunner ejecuta fn dentro de una transacción. Si fn devuelve error se hace rollback
// y ningún cambio queda persistido.
type FiscalTxRunner interface {
	RunFiscal(ctx context.Context, fn func(repos FiscalRepos) error) error
}

// AuthorizationRequest datos que viajan a AFIP para solicitar CAE.
type AuthorizationRequest struct {
	Document    *entity.FiscalDocument
	Items       []*entity.LineItem
	Perceptions []*entity.Perception
	// Related comprobante asociado (CbtesAsoc) para NC/ND.
	Related *entity.FiscalDocument
}

// AuthorizationResult resultado terminal de AFIP: CAE + vencimiento, o código y mensaje de rechazo.
type AuthorizationResult struct {
	Code         string
	Expiry       time.Time
	ErrorCode    string
	ErrorMessage string
}

// Approved indica si AFIP otorgó el CAE.
func (r *AuthorizationResult) Approved() bool {
	return r != nil && r.Code != "" && r.ErrorCode == "" && r.ErrorMessage == ""
}

// AuthorizationPort frontera con la autoridad fiscal.
// Un error devuelto es una falla de transporte (reintentable); un rechazo de AFIP viaja en el resultado.
type AuthorizationPort interface {
	RequestAuthorization(ctx context.Context, req AuthorizationRequest) (*AuthorizationResult, error)
}

// EventPublisher publica eventos de dominio sin bloquear al núcleo.
type EventPublisher interface {
	Publish(ctx context.Context, ev entity.DomainEvent)
}
