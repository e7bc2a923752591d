package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

func approveCAE(code string) func(context.Context, billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
	return func(context.Context, billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
		return &billing.AuthorizationResult{Code: code, Expiry: time.Now().Add(10 * 24 * time.Hour)}, nil
	}
}

func (h *harness) orchestrator(port billing.AuthorizationPort) *billing.AuthorizationOrchestrator {
	return billing.NewAuthorizationOrchestrator(h.store, h.store.repos(), port, h.events,
		billing.AuthorizationConfig{MaxRetries: 2, RetryBackoff: time.Millisecond}, zerolog.Nop())
}

// approvedInvoice factura propia sin aprobaciones: queda approved/draft lista para pedir CAE.
func (h *harness) approvedInvoice(t *testing.T) string {
	t.Helper()
	zero := 0
	req := invoiceRequest()
	req.ApprovalsRequired = &zero
	out, err := h.docs.CreateDocument(context.Background(), companyID, userID, req)
	require.NoError(t, err)
	return out.ID
}

func TestAuthorize_Exito(t *testing.T) {
	h := newHarness(t, 1)
	id := h.approvedInvoice(t)
	port := &fakeAuthorizer{AuthFunc: func(_ context.Context, req billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
		assert.Len(t, req.Items, 2)
		assert.Equal(t, "292.00", req.Document.Total.StringFixed(2))
		return approveCAE("75123456789012")(context.Background(), req)
	}}

	out, err := h.orchestrator(port).RequestAuthorization(context.Background(), companyID, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.AuthStatusAuthorized), out.AuthorizationStatus)
	assert.Equal(t, "75123456789012", out.AuthorizationCode)
	assert.Equal(t, string(entity.StatusIssued), out.BusinessStatus)
	assert.Contains(t, h.events.types(), entity.EventDocumentAuthorized)

	_, err = h.orchestrator(port).RequestAuthorization(context.Background(), companyID, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "un CAE no se pide dos veces")
	assert.Equal(t, 1, port.Calls())
}

func TestAuthorize_RechazoAFIP(t *testing.T) {
	h := newHarness(t, 1)
	id := h.approvedInvoice(t)
	port := &fakeAuthorizer{AuthFunc: func(context.Context, billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
		return &billing.AuthorizationResult{ErrorCode: "10016", ErrorMessage: "fecha fuera de rango"}, nil
	}}

	out, err := h.orchestrator(port).RequestAuthorization(context.Background(), companyID, id)
	require.NoError(t, err, "el rechazo no es un error del núcleo")
	assert.Equal(t, string(entity.AuthStatusRejected), out.AuthorizationStatus)
	assert.Equal(t, "10016: fecha fuera de rango", out.AuthorizationError)
	assert.Equal(t, string(entity.StatusApproved), out.BusinessStatus)
	assert.Equal(t, 1, port.Calls(), "un rechazo de negocio no se reintenta")
}

func TestAuthorize_ReintentaFallasDeTransporte(t *testing.T) {
	h := newHarness(t, 1)
	id := h.approvedInvoice(t)
	attempts := 0
	port := &fakeAuthorizer{AuthFunc: func(ctx context.Context, req billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection reset")
		}
		return approveCAE("75000000000001")(ctx, req)
	}}

	out, err := h.orchestrator(port).RequestAuthorization(context.Background(), companyID, id)
	require.NoError(t, err)
	assert.Equal(t, 2, port.Calls())
	assert.Equal(t, string(entity.AuthStatusAuthorized), out.AuthorizationStatus)
}

func TestAuthorize_ReintentosAgotados(t *testing.T) {
	h := newHarness(t, 1)
	id := h.approvedInvoice(t)
	port := &fakeAuthorizer{AuthFunc: func(context.Context, billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
		return nil, errors.New("timeout")
	}}

	out, err := h.orchestrator(port).RequestAuthorization(context.Background(), companyID, id)
	require.NoError(t, err)
	assert.Equal(t, 3, port.Calls())
	assert.Equal(t, string(entity.AuthStatusRejected), out.AuthorizationStatus)
	assert.Contains(t, out.AuthorizationError, "timeout")
}

func TestAuthorize_CAEVencidoSeRegistraComoRechazo(t *testing.T) {
	h := newHarness(t, 1)
	id := h.approvedInvoice(t)
	port := &fakeAuthorizer{AuthFunc: func(context.Context, billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
		return &billing.AuthorizationResult{Code: "75000000000002", Expiry: time.Now().Add(-time.Hour)}, nil
	}}

	out, err := h.orchestrator(port).RequestAuthorization(context.Background(), companyID, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.AuthStatusRejected), out.AuthorizationStatus)
	assert.Empty(t, out.AuthorizationCode)
}

func TestAuthorize_NoElegibles(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	port := &fakeAuthorizer{AuthFunc: approveCAE("75000000000003")}
	o := h.orchestrator(port)

	pending, err := h.docs.CreateDocument(ctx, companyID, userID, invoiceRequest())
	require.NoError(t, err)
	_, err = o.RequestAuthorization(ctx, companyID, pending.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	manual := h.issuedInvoice(t)
	_, err = o.RequestAuthorization(ctx, companyID, manual.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = o.RequestAuthorization(ctx, "otra-empresa", h.approvedInvoice(t))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, port.Calls())
}

// La NC copia los estados del original pero obtiene su propio CAE.
func TestAuthorize_NotaObtieneCAEPropio(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	parentID := h.approvedInvoice(t)
	o := h.orchestrator(&fakeAuthorizer{AuthFunc: approveCAE("75000000000010")})
	_, err := o.RequestAuthorization(ctx, companyID, parentID)
	require.NoError(t, err)

	note, err := h.docs.CreateDocument(ctx, companyID, userID, noteRequest("NCA", parentID, "20"))
	require.NoError(t, err)
	assert.Equal(t, string(entity.AuthStatusAuthorized), note.AuthorizationStatus)
	assert.Empty(t, note.AuthorizationCode)

	var related *entity.FiscalDocument
	port := &fakeAuthorizer{AuthFunc: func(ctx context.Context, req billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
		related = req.Related
		return approveCAE("75000000000011")(ctx, req)
	}}
	out, err := h.orchestrator(port).RequestAuthorization(ctx, companyID, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "75000000000011", out.AuthorizationCode)
	require.NotNil(t, related)
	assert.Equal(t, parentID, related.ID)
	assert.Equal(t, "75000000000010", h.store.doc(parentID).AuthorizationCode)
}

func TestAuthorize_NotaRechazadaQuedaEnRevision(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	parent := h.issuedInvoice(t)
	// el original es manual; la nota se pide igual contra un original emitido con CAE
	doc := h.store.doc(parent.ID)
	doc.AuthorizationStatus = entity.AuthStatusAuthorized
	doc.AuthorizationCode = "75000000000020"
	h.store.put(doc)

	note, err := h.docs.CreateDocument(ctx, companyID, userID, noteRequest("NDA", parent.ID, "5"))
	require.NoError(t, err)
	port := &fakeAuthorizer{AuthFunc: func(context.Context, billing.AuthorizationRequest) (*billing.AuthorizationResult, error) {
		return &billing.AuthorizationResult{ErrorMessage: "comprobante asociado inexistente"}, nil
	}}

	out, err := h.orchestrator(port).RequestAuthorization(ctx, companyID, note.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.AuthStatusAuthorized), out.AuthorizationStatus, "la nota conserva el estado del original")
	assert.Equal(t, "comprobante asociado inexistente", out.AuthorizationError)
	assert.True(t, h.store.doc(note.ID).NeedsReview)
}
