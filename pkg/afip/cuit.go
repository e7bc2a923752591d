package afip

import (
	"fmt"
	"unicode"
)

// pesos del dígito verificador de CUIT/CUIL (módulo 11), aplicados a los 10 primeros dígitos.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidateCUIT valida un CUIT/CUIL de 11 dígitos ("20-12345678-6", "20123456786").
func ValidateCUIT(cuit string) error {
	digits := extractDigits(cuit)
	if len(digits) != 11 {
		return fmt.Errorf("afip: CUIT debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	expected, err := ComputeCUITCheckDigit(string(digits[:10]))
	if err != nil {
		return err
	}
	if digits[10] != expected {
		return fmt.Errorf("afip: dígito verificador del CUIT inválido: esperado %c, recibido %c", expected, digits[10])
	}
	return nil
}

// ComputeCUITCheckDigit calcula el dígito verificador para los 10 primeros dígitos.
// Un resto de 1 no tiene dígito válido: AFIP reasigna el prefijo (23/33).
func ComputeCUITCheckDigit(base string) (byte, error) {
	digits := extractDigits(base)
	if len(digits) < 10 {
		return 0, fmt.Errorf("afip: se requieren 10 dígitos para calcular el verificador, se encontraron %d", len(digits))
	}
	var sum int
	for i, d := range digits[:10] {
		sum += int(d-'0') * cuitWeights[i]
	}
	switch v := 11 - sum%11; v {
	case 11:
		return '0', nil
	case 10:
		return 0, fmt.Errorf("afip: el prefijo %s no admite dígito verificador", string(digits[:2]))
	default:
		return byte('0' + v), nil
	}
}

// NormalizeCUIT devuelve solo los dígitos.
func NormalizeCUIT(cuit string) string {
	return string(extractDigits(cuit))
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
