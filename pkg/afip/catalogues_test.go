package afip_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/pkg/afip"
)

func TestVoucherTypeCode(t *testing.T) {
	cases := map[string]int{"A": 1, "NCA": 3, "B": 6, "NDC": 12, "M": 51, "E": 19, "FCEA": 201, "NCFCEB": 208, "NDFCEC": 212}
	for typ, want := range cases {
		got, ok := afip.VoucherTypeCode(typ)
		require.True(t, ok, typ)
		assert.Equal(t, want, got, typ)
	}
	for _, typ := range []string{"R", "LBU", "CBUCF", "X"} {
		_, ok := afip.VoucherTypeCode(typ)
		assert.False(t, ok, typ)
	}
}

func TestIVAID(t *testing.T) {
	id, err := afip.IVAID(decimal.NewFromInt(21))
	require.NoError(t, err)
	assert.Equal(t, afip.IVAID21, id)

	id, err = afip.IVAID(decimal.RequireFromString("10.50"))
	require.NoError(t, err)
	assert.Equal(t, afip.IVAID10_5, id)

	_, err = afip.IVAID(decimal.NewFromInt(19))
	assert.Error(t, err)
}
