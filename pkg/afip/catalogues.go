// Package afip contiene catálogos y validaciones de los web services de factura
// electrónica de AFIP (WSFEv1, RG 4291 y FCE MiPyME RG 4367).
package afip

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Tabla de tipos de comprobante (FEParamGetTiposCbte)
// =============================================================================

// voucherTypes código CbteTipo por tipo de comprobante. R, LBU y CBUCF no se autorizan por WSFE.
var voucherTypes = map[string]int{
	"A": 1, "NDA": 2, "NCA": 3, "RA": 4,
	"B": 6, "NDB": 7, "NCB": 8, "RB": 9,
	"C": 11, "NDC": 12, "NCC": 13, "RC": 15,
	"E": 19, "NDE": 20, "NCE": 21,
	"M": 51, "NDM": 52, "NCM": 53, "RM": 54,
	"FCEA": 201, "NDFCEA": 202, "NCFCEA": 203,
	"FCEB": 206, "NDFCEB": 207, "NCFCEB": 208,
	"FCEC": 211, "NDFCEC": 212, "NCFCEC": 213,
}

// VoucherTypeCode devuelve el CbteTipo de AFIP. ok=false si el tipo no se autoriza por WSFE.
func VoucherTypeCode(docType string) (code int, ok bool) {
	code, ok = voucherTypes[docType]
	return code, ok
}

// =============================================================================
// Alícuotas de IVA (FEParamGetTiposIva)
// =============================================================================

const (
	IVAID0    = 3
	IVAID10_5 = 4
	IVAID21   = 5
	IVAID27   = 6
	IVAID5    = 8
	IVAID2_5  = 9
)

var ivaIDs = []struct {
	rate decimal.Decimal
	id   int
}{
	{decimal.Zero, IVAID0},
	{decimal.RequireFromString("10.5"), IVAID10_5},
	{decimal.NewFromInt(21), IVAID21},
	{decimal.NewFromInt(27), IVAID27},
	{decimal.NewFromInt(5), IVAID5},
	{decimal.RequireFromString("2.5"), IVAID2_5},
}

// IVAID código de alícuota de AFIP para un porcentaje. Exento y no gravado no se informan en AlicIva.
func IVAID(rate decimal.Decimal) (int, error) {
	for _, r := range ivaIDs {
		if r.rate.Equal(rate) {
			return r.id, nil
		}
	}
	return 0, fmt.Errorf("afip: alícuota de IVA sin código: %s%%", rate.String())
}

// =============================================================================
// Conceptos, monedas y tipos de documento del receptor
// =============================================================================

const (
	ConceptProducts         = 1
	ConceptServices         = 2
	ConceptProductsServices = 3
)

// Tipos de documento del receptor (DocTipo).
const (
	DocTypeCUIT        = 80
	DocTypeCUIL        = 86
	DocTypeDNI         = 96
	DocTypeConsumerEnd = 99 // consumidor final sin identificar
)

// Monedas habituales (FEParamGetTiposMonedas).
const (
	CurrencyPesos   = "PES"
	CurrencyDollars = "DOL"
	CurrencyEuros   = "060"
)

// Tributos (FEParamGetTiposTributos) usados para percepciones.
const (
	TributeNational   = 1
	TributeProvincial = 2 // IIBB
	TributeMunicipal  = 3
	TributeInternal   = 4
	TributeOther      = 99
)

// Resultados de FECAESolicitar.
const (
	ResultApproved = "A"
	ResultRejected = "R"
	ResultPartial  = "P"
)

// CAEDateLayout formato de fechas en WSFE (AAAAMMDD).
const CAEDateLayout = "20060102"
