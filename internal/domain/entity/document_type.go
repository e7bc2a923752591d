package entity

import (
	"fmt"
	"strings"
)

// DocumentType tipo de comprobante (letra + clase) según nomenclatura AFIP.
type DocumentType string

// Facturas.
const (
	DocTypeInvoiceA DocumentType = "A"
	DocTypeInvoiceB DocumentType = "B"
	DocTypeInvoiceC DocumentType = "C"
	DocTypeInvoiceM DocumentType = "M"
	DocTypeInvoiceE DocumentType = "E"
)

// Notas de crédito.
const (
	DocTypeCreditNoteA DocumentType = "NCA"
	DocTypeCreditNoteB DocumentType = "NCB"
	DocTypeCreditNoteC DocumentType = "NCC"
	DocTypeCreditNoteM DocumentType = "NCM"
	DocTypeCreditNoteE DocumentType = "NCE"
)

// Notas de débito.
const (
	DocTypeDebitNoteA DocumentType = "NDA"
	DocTypeDebitNoteB DocumentType = "NDB"
	DocTypeDebitNoteC DocumentType = "NDC"
	DocTypeDebitNoteM DocumentType = "NDM"
	DocTypeDebitNoteE DocumentType = "NDE"
)

// Recibos.
const (
	DocTypeReceipt  DocumentType = "R"
	DocTypeReceiptA DocumentType = "RA"
	DocTypeReceiptB DocumentType = "RB"
	DocTypeReceiptC DocumentType = "RC"
	DocTypeReceiptM DocumentType = "RM"
)

// Factura de Crédito Electrónica MiPyME y sus notas.
const (
	DocTypeFCEA   DocumentType = "FCEA"
	DocTypeFCEB   DocumentType = "FCEB"
	DocTypeFCEC   DocumentType = "FCEC"
	DocTypeNCFCEA DocumentType = "NCFCEA"
	DocTypeNCFCEB DocumentType = "NCFCEB"
	DocTypeNCFCEC DocumentType = "NCFCEC"
	DocTypeNDFCEA DocumentType = "NDFCEA"
	DocTypeNDFCEB DocumentType = "NDFCEB"
	DocTypeNDFCEC DocumentType = "NDFCEC"
)

// Liquidaciones / remitos (sin autorización WSFE).
const (
	DocTypeLBU   DocumentType = "LBU"
	DocTypeCBUCF DocumentType = "CBUCF"
)

var allDocumentTypes = []DocumentType{
	DocTypeInvoiceA, DocTypeInvoiceB, DocTypeInvoiceC, DocTypeInvoiceM, DocTypeInvoiceE,
	DocTypeCreditNoteA, DocTypeCreditNoteB, DocTypeCreditNoteC, DocTypeCreditNoteM, DocTypeCreditNoteE,
	DocTypeDebitNoteA, DocTypeDebitNoteB, DocTypeDebitNoteC, DocTypeDebitNoteM, DocTypeDebitNoteE,
	DocTypeReceipt, DocTypeReceiptA, DocTypeReceiptB, DocTypeReceiptC, DocTypeReceiptM,
	DocTypeFCEA, DocTypeFCEB, DocTypeFCEC,
	DocTypeNCFCEA, DocTypeNCFCEB, DocTypeNCFCEC,
	DocTypeNDFCEA, DocTypeNDFCEB, DocTypeNDFCEC,
	DocTypeLBU, DocTypeCBUCF,
}

// ParseDocumentType normaliza y valida un tipo de comprobante ("nca", " FCEA ").
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range allDocumentTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("tipo de comprobante desconocido: %q", s)
}

// IsCreditNote indica si el tipo es nota de crédito (incluye NC de FCE).
func (t DocumentType) IsCreditNote() bool {
	switch t {
	case DocTypeCreditNoteA, DocTypeCreditNoteB, DocTypeCreditNoteC, DocTypeCreditNoteM, DocTypeCreditNoteE,
		DocTypeNCFCEA, DocTypeNCFCEB, DocTypeNCFCEC:
		return true
	}
	return false
}

// IsDebitNote indica si el tipo es nota de débito (incluye ND de FCE).
func (t DocumentType) IsDebitNote() bool {
	switch t {
	case DocTypeDebitNoteA, DocTypeDebitNoteB, DocTypeDebitNoteC, DocTypeDebitNoteM, DocTypeDebitNoteE,
		DocTypeNDFCEA, DocTypeNDFCEB, DocTypeNDFCEC:
		return true
	}
	return false
}

// IsNote indica si el comprobante ajusta el saldo de otro.
func (t DocumentType) IsNote() bool {
	return t.IsCreditNote() || t.IsDebitNote()
}

// IsFCE indica si es Factura de Crédito Electrónica o una de sus notas (requiere aceptación).
func (t DocumentType) IsFCE() bool {
	switch t {
	case DocTypeFCEA, DocTypeFCEB, DocTypeFCEC,
		DocTypeNCFCEA, DocTypeNCFCEB, DocTypeNCFCEC,
		DocTypeNDFCEA, DocTypeNDFCEB, DocTypeNDFCEC:
		return true
	}
	return false
}

// IsReceipt indica si es un recibo.
func (t DocumentType) IsReceipt() bool {
	switch t {
	case DocTypeReceipt, DocTypeReceiptA, DocTypeReceiptB, DocTypeReceiptC, DocTypeReceiptM:
		return true
	}
	return false
}

// RequiresRelated indica si el comprobante debe referenciar un comprobante original.
func (t DocumentType) RequiresRelated() bool {
	return t.IsNote()
}

// RequiresItems indica si el comprobante debe tener al menos un ítem.
// Los recibos pueden registrarse solo con importes.
func (t DocumentType) RequiresItems() bool {
	return !t.IsReceipt()
}

// SupportsExternalAuthorization indica si el tipo se autoriza vía WSFE.
// R, LBU y CBUCF no tienen código de comprobante en WSFE y se registran siempre como manuales.
func (t DocumentType) SupportsExternalAuthorization() bool {
	switch t {
	case DocTypeReceipt, DocTypeLBU, DocTypeCBUCF:
		return false
	}
	return true
}

func (t DocumentType) String() string { return string(t) }
