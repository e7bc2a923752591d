package fiscal_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/fiscal"
)

func TestNormalizeExchangeRate(t *testing.T) {
	r, err := fiscal.NormalizeExchangeRate("DOL", d("1050.123456"), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "1050.1235", r.StringFixed(4))

	r, err = fiscal.NormalizeExchangeRate("PES", decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.NewFromInt(1)))

	r, err = fiscal.NormalizeExchangeRate("", d("1"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.NewFromInt(1)))
}

func TestNormalizeExchangeRate_FueraDeRango(t *testing.T) {
	cases := []struct {
		currency string
		rate     string
	}{
		{"PES", "1050"},
		{"DOL", "-5"},
		{"DOL", "10500000"}, // cotización multiplicada por 10000
		{"DOL", "0.00001"},  // redondea a cero
	}
	for _, tc := range cases {
		_, err := fiscal.NormalizeExchangeRate(tc.currency, d(tc.rate), decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrInvalidExchangeRate, "%s %s", tc.currency, tc.rate)
	}
}
