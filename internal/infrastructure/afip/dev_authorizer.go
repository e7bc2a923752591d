package afip

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
	afipcat "github.com/jhoicas/facturacion-arg/pkg/afip"
)

// devCAEValidity vigencia del CAE simulado.
const devCAEValidity = 10 * 24 * time.Hour

// DevAuthorizer simula AFIP en desarrollo: otorga un CAE determinístico de 14 dígitos
// para todo tipo autorizable y rechaza los que WSFE no admite.
type DevAuthorizer struct {
	log zerolog.Logger
	now func() time.Time
}

var _ billing.AuthorizationPort = (*DevAuthorizer)(nil)

func NewDevAuthorizer(log zerolog.Logger) *DevAuthorizer {
	return &DevAuthorizer{log: log, now: time.Now}
}

func (a *DevAuthorizer) RequestAuthorization(ctx context.Context, req billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d := req.Document
	if _, ok := afipcat.VoucherTypeCode(d.Type.String()); !ok {
		return &billing.AuthorizationResult{ErrorCode: "10015", ErrorMessage: fmt.Sprintf("tipo %s no autorizable", d.Type)}, nil
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%d", d.IssuerCompanyID, d.Type, d.SalesPoint, d.VoucherNumber)))
	n := new(big.Int).SetBytes(sum[:8])
	n.Mod(n, big.NewInt(1e13))
	cae := fmt.Sprintf("7%013d", n.Int64())

	a.log.Info().Str("document_id", d.ID).Str("cae", cae).Msg("CAE simulado (AFIP dev)")
	return &billing.AuthorizationResult{Code: cae, Expiry: a.now().Add(devCAEValidity)}, nil
}
