package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

func TestListDocuments_FiltrosYPaginado(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := h.docs.CreateDocument(ctx, companyID, userID, invoiceRequest())
		require.NoError(t, err)
	}
	_, err := h.docs.CreateDocument(ctx, "otra-empresa", userID, invoiceRequest())
	require.NoError(t, err)
	parent := h.issuedInvoice(t)

	out, err := h.docs.ListDocuments(ctx, companyID, dto.ListDocumentsRequest{PageRequest: dto.PageRequest{Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Page.Total, "no incluye otras empresas")
	assert.Len(t, out.Items, 2)
	assert.Empty(t, out.Items[0].Items, "el listado no trae ítems")

	out, err = h.docs.ListDocuments(ctx, companyID, dto.ListDocumentsRequest{Status: "ISSUED"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, parent.ID, out.Items[0].ID)
	assert.Equal(t, 20, out.Page.Limit)

	out, err = h.docs.ListDocuments(ctx, companyID, dto.ListDocumentsRequest{Type: "b"})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.NotNil(t, out.Items)
}

func TestListDocuments_FiltrosInvalidos(t *testing.T) {
	h := newHarness(t, 1)
	for _, req := range []dto.ListDocumentsRequest{
		{Direction: "sideways"},
		{Type: "Z"},
		{Status: string(entity.AuthStatusAuthorized)},
	} {
		_, err := h.docs.ListDocuments(context.Background(), companyID, req)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}
