package afip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/pkg/afip"
)

func TestValidateCUIT(t *testing.T) {
	tests := []struct {
		name    string
		cuit    string
		wantErr bool
	}{
		{"con guiones", "20-12345678-6", false},
		{"solo dígitos", "27000000006", false},
		{"verificador cuatro", "20333333334", false},
		{"verificador cero", "23000000000", false},
		{"verificador incorrecto", "20-12345678-5", true},
		{"corto", "2012345678", true},
		{"vacío", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := afip.ValidateCUIT(tt.cuit)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestComputeCUITCheckDigit(t *testing.T) {
	d, err := afip.ComputeCUITCheckDigit("20-12345678")
	require.NoError(t, err)
	assert.Equal(t, byte('6'), d)

	// Suma ponderada 142, resto 10: verificador 1.
	d, err = afip.ComputeCUITCheckDigit("3071234567")
	require.NoError(t, err)
	assert.Equal(t, byte('1'), d)

	// Suma ponderada 12, resto 1: no hay verificador posible.
	_, err = afip.ComputeCUITCheckDigit("2000000001")
	assert.Error(t, err, "resto 1 no tiene verificador")

	_, err = afip.ComputeCUITCheckDigit("123")
	assert.Error(t, err)
}

func TestNormalizeCUIT(t *testing.T) {
	assert.Equal(t, "20123456786", afip.NormalizeCUIT(" 20-12345678-6 "))
}
