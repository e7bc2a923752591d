package entity

import "fmt"

// NumberingScope clave de numeración: (emisor, tipo, punto de venta).
type NumberingScope struct {
	IssuerCompanyID string
	Type            DocumentType
	SalesPoint      int
}

// Key representación estable para locks y logs.
func (s NumberingScope) Key() string {
	return fmt.Sprintf("%s|%s|%d", s.IssuerCompanyID, s.Type, s.SalesPoint)
}

// FormatVoucherNumber formato de visualización AFIP: PPPPP-NNNNNNNN.
func FormatVoucherNumber(salesPoint int, voucherNumber int64) string {
	return fmt.Sprintf("%05d-%08d", salesPoint, voucherNumber)
}
