package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

const (
	companyID = "company-1"
	userID    = "user-1"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type harness struct {
	store       *memStore
	events      *recordingPublisher
	docs        *billing.DocumentUseCase
	approvals   *billing.ApprovalUseCase
	status      *billing.StatusUseCase
	settlements *billing.SettlementUseCase
	sweeps      *billing.SweepUseCase
}

func newHarness(t *testing.T, approvalsRequired int) *harness {
	t.Helper()
	store := newMemStore()
	events := &recordingPublisher{}
	log := zerolog.Nop()
	status := billing.NewStatusUseCase(store, events, log)
	return &harness{
		store:       store,
		events:      events,
		docs:        billing.NewDocumentUseCase(store, store.repos(), events, billing.Config{DefaultApprovalsRequired: approvalsRequired}, log),
		approvals:   billing.NewApprovalUseCase(store, events, log),
		status:      status,
		settlements: billing.NewSettlementUseCase(store, store.repos(), events, log),
		sweeps:      billing.NewSweepUseCase(store, store.repos(), status, 3, log),
	}
}

// invoiceRequest vector de referencia: 2 x 100 al 21% + 1 x 50 exento = 292.00.
func invoiceRequest() dto.CreateDocumentRequest {
	return dto.CreateDocumentRequest{
		Type:       "A",
		ClientID:   "client-1",
		SalesPoint: 1,
		IssueDate:  time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Items: []dto.LineItemRequest{
			{Description: "Servicio", Quantity: d("2"), UnitPrice: d("100"), TaxRate: d("21")},
			{Description: "Libro", Quantity: d("1"), UnitPrice: d("50"), TaxRate: d("-1")},
		},
	}
}

func noteRequest(docType, parentID, price string) dto.CreateDocumentRequest {
	return dto.CreateDocumentRequest{
		Type:              docType,
		ClientID:          "client-1",
		SalesPoint:        1,
		RelatedDocumentID: parentID,
		Items: []dto.LineItemRequest{
			{Description: "Ajuste", Quantity: d("1"), UnitPrice: d(price), TaxRate: d("-2")},
		},
	}
}

// issuedInvoice crea una factura manual sin aprobaciones y la emite.
func (h *harness) issuedInvoice(t *testing.T) *dto.DocumentResponse {
	t.Helper()
	ctx := context.Background()
	req := invoiceRequest()
	req.Manual = true
	zero := 0
	req.ApprovalsRequired = &zero
	created, err := h.docs.CreateDocument(ctx, companyID, userID, req)
	require.NoError(t, err)
	issued, err := h.status.Issue(ctx, companyID, created.ID)
	require.NoError(t, err)
	require.Equal(t, string(entity.StatusIssued), issued.BusinessStatus)
	return issued
}
