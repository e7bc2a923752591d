package billing_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

func TestCreateDocument_VectorReferencia(t *testing.T) {
	h := newHarness(t, 1)
	out, err := h.docs.CreateDocument(context.Background(), companyID, userID, invoiceRequest())
	require.NoError(t, err)

	assert.Equal(t, "00001-00000001", out.Number)
	assert.Equal(t, "250.00", out.Subtotal.StringFixed(2))
	assert.Equal(t, "42.00", out.TotalTaxes.StringFixed(2))
	assert.Equal(t, "292.00", out.Total.StringFixed(2))
	assert.True(t, out.BalancePending.Equal(out.Total))
	assert.Equal(t, string(entity.StatusPendingApproval), out.BusinessStatus)
	assert.Equal(t, string(entity.AuthStatusDraft), out.AuthorizationStatus)
	assert.Equal(t, "PES", out.Currency)
	assert.Equal(t, "1", out.ExchangeRate.String())
	require.Len(t, out.Items, 2)
	assert.Equal(t, entity.TaxCategoryExempt, out.Items[1].TaxCategory)
	assert.Equal(t, []string{entity.EventDocumentCreated}, h.events.types())

	got, err := h.docs.GetDocument(context.Background(), companyID, out.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	_, err = h.docs.GetDocument(context.Background(), "otra-empresa", out.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateDocument_EstadosIniciales(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	out, err := h.docs.CreateDocument(ctx, companyID, userID, invoiceRequest())
	require.NoError(t, err)
	assert.Equal(t, string(entity.StatusApproved), out.BusinessStatus)
	assert.Equal(t, string(entity.AuthStatusDraft), out.AuthorizationStatus)

	req := invoiceRequest()
	req.Manual = true
	out, err = h.docs.CreateDocument(ctx, companyID, userID, req)
	require.NoError(t, err)
	assert.Equal(t, string(entity.AuthStatusManual), out.AuthorizationStatus)

	// R no tiene código WSFE: siempre manual.
	req = invoiceRequest()
	req.Type = "R"
	req.Items = nil
	out, err = h.docs.CreateDocument(ctx, companyID, userID, req)
	require.NoError(t, err)
	assert.Equal(t, string(entity.AuthStatusManual), out.AuthorizationStatus)
}

func TestCreateDocument_ValidacionesNoPersisten(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	cases := map[string]struct {
		mutate func(*dto.CreateDocumentRequest)
		want   error
	}{
		"dos contrapartes": {func(r *dto.CreateDocumentRequest) { r.SupplierID = "sup-1" }, domain.ErrInvalidCounterparty},
		"sin contraparte":  {func(r *dto.CreateDocumentRequest) { r.ClientID = "" }, domain.ErrInvalidCounterparty},
		"NC sin original":  {func(r *dto.CreateDocumentRequest) { r.Type = "NCA" }, domain.ErrRelatedDocumentRequired},
		"cotización x10000": {func(r *dto.CreateDocumentRequest) {
			r.Currency = "DOL"
			r.ExchangeRate = d("10500000")
		}, domain.ErrInvalidExchangeRate},
		"alícuota inválida": {func(r *dto.CreateDocumentRequest) { r.Items[0].TaxRate = d("-3") }, domain.ErrInvalidTaxRate},
		"sin ítems":         {func(r *dto.CreateDocumentRequest) { r.Items = nil }, domain.ErrEmptyItemSet},
		"punto de venta":    {func(r *dto.CreateDocumentRequest) { r.SalesPoint = 10000 }, domain.ErrInvalidInput},
		"tipo desconocido":  {func(r *dto.CreateDocumentRequest) { r.Type = "Z" }, domain.ErrInvalidInput},
		"recibido sin nro":  {func(r *dto.CreateDocumentRequest) { r.Direction = "received"; r.ClientID = ""; r.SupplierID = "s" }, domain.ErrInvalidInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := invoiceRequest()
			tc.mutate(&req)
			_, err := h.docs.CreateDocument(ctx, companyID, userID, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, h.store.docs)
	assert.Empty(t, h.events.types())
}

func TestCreateDocument_NumeracionConcurrente(t *testing.T) {
	h := newHarness(t, 1)
	const n = 40
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[int64]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := h.docs.CreateDocument(context.Background(), companyID, userID, invoiceRequest())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers[out.VoucherNumber] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, numbers, n, "ningún número propio repetido")
	for i := int64(1); i <= n; i++ {
		assert.True(t, numbers[i], "falta el número %d", i)
	}
}

func TestCreateDocument_NumeracionPorScope(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	a, err := h.docs.CreateDocument(ctx, companyID, userID, invoiceRequest())
	require.NoError(t, err)
	req := invoiceRequest()
	req.SalesPoint = 2
	b, err := h.docs.CreateDocument(ctx, companyID, userID, req)
	require.NoError(t, err)
	req = invoiceRequest()
	req.Type = "B"
	c, err := h.docs.CreateDocument(ctx, companyID, userID, req)
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.VoucherNumber)
	assert.Equal(t, "00002-00000001", b.Number)
	assert.Equal(t, int64(1), c.VoucherNumber)
}

func TestCreateDocument_NumeroInformado(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	req := invoiceRequest()
	req.VoucherNumber = 10
	_, err := h.docs.CreateDocument(ctx, companyID, userID, req)
	require.NoError(t, err)

	_, err = h.docs.CreateDocument(ctx, companyID, userID, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateVoucherNumber)

	next, err := h.docs.CreateDocument(ctx, companyID, userID, invoiceRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(11), next.VoucherNumber, "la secuencia se adelanta al número informado")
}

// Los números de comprobantes recibidos los asigna la contraparte: pueden repetirse.
func TestCreateDocument_RecibidosPuedenRepetirNumero(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		req := invoiceRequest()
		req.Direction = "received"
		req.ClientID = ""
		req.SupplierID = fmt.Sprintf("proveedor-%d", i)
		req.VoucherNumber = 42
		out, err := h.docs.CreateDocument(ctx, companyID, userID, req)
		require.NoError(t, err)
		assert.Equal(t, "00001-00000042", out.Number)
		assert.Equal(t, string(entity.AuthStatusManual), out.AuthorizationStatus)
	}
}

func TestCreateDocument_NotaCredito(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	parent := h.issuedInvoice(t)

	note, err := h.docs.CreateDocument(ctx, companyID, userID, noteRequest("NCA", parent.ID, "92"))
	require.NoError(t, err)
	assert.Empty(t, note.Warnings)
	assert.Equal(t, parent.BusinessStatus, note.BusinessStatus, "la NC copia el estado del original")
	assert.Equal(t, parent.AuthorizationStatus, note.AuthorizationStatus)

	p := h.store.doc(parent.ID)
	assert.Equal(t, "200.00", p.BalancePending.StringFixed(2))
	assert.False(t, p.NeedsReview)
	assert.Contains(t, h.events.types(), entity.EventNoteApplied)
}

func TestCreateDocument_NotaDebito(t *testing.T) {
	h := newHarness(t, 1)
	parent := h.issuedInvoice(t)

	_, err := h.docs.CreateDocument(context.Background(), companyID, userID, noteRequest("NDA", parent.ID, "8"))
	require.NoError(t, err)
	assert.Equal(t, "300.00", h.store.doc(parent.ID).BalancePending.StringFixed(2))
}

func TestCreateDocument_NotaCreditoExcesiva(t *testing.T) {
	h := newHarness(t, 1)
	parent := h.issuedInvoice(t)

	note, err := h.docs.CreateDocument(context.Background(), companyID, userID, noteRequest("NCA", parent.ID, "300"))
	require.NoError(t, err, "una NC excesiva no falla")
	require.Len(t, note.Warnings, 1)
	assert.Contains(t, note.Warnings[0], domain.ErrExcessiveCreditNote.Error())

	p := h.store.doc(parent.ID)
	assert.True(t, p.BalancePending.IsZero())
	assert.True(t, p.NeedsReview)
}

func TestCreateDocument_NotaSinOriginalHaceRollback(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	_, err := h.docs.CreateDocument(ctx, companyID, userID, noteRequest("NCA", "no-existe", "10"))
	assert.ErrorIs(t, err, domain.ErrRelatedDocumentNotFound)
	assert.Empty(t, h.store.docs)
	assert.Empty(t, h.store.sequences)

	// Un original de otra empresa se trata como inexistente.
	parent := h.issuedInvoice(t)
	_, err = h.docs.CreateDocument(ctx, "otra-empresa", userID, noteRequest("NCA", parent.ID, "10"))
	assert.ErrorIs(t, err, domain.ErrRelatedDocumentNotFound)
	assert.Equal(t, "292.00", h.store.doc(parent.ID).BalancePending.StringFixed(2))
}
