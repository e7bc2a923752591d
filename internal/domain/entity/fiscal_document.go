package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiscalDocument representa la cabecera de un comprobante fiscal (factura, NC, ND, recibo...).
// Es dueño de sus LineItems y Perceptions; Settlements y ApprovalRecords solo lo referencian.
type FiscalDocument struct {
	ID     string
	Number string // ej: "00003-00000042"
	Type   DocumentType

	IssuerCompanyID   string
	ReceiverCompanyID string // exactamente uno de ReceiverCompanyID, ClientID, SupplierID
	ClientID          string
	SupplierID        string
	Direction         Direction
	SalesPoint        int   // 1..9999
	VoucherNumber     int64 // > 0

	RelatedDocumentID string // obligatorio para NC/ND

	IssueDate time.Time
	DueDate   *time.Time

	Subtotal         decimal.Decimal
	TotalTaxes       decimal.Decimal
	TotalPerceptions decimal.Decimal
	Total            decimal.Decimal
	BalancePending   decimal.Decimal
	Currency         string          // "PES", "DOL", ...
	ExchangeRate     decimal.Decimal // moneda local por unidad de moneda extranjera, 4 decimales

	BusinessStatus      BusinessStatus
	AuthorizationStatus AuthorizationStatus
	AuthorizationCode   string // CAE
	AuthorizationExpiry *time.Time
	AuthorizationError  string // último mensaje de rechazo de AFIP

	ApprovalsRequired int
	ApprovalsReceived int

	RejectionReason string
	CorrectionNotes string
	NeedsReview     bool

	Version   int64 // concurrencia optimista
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CounterpartyID devuelve el ID de la contraparte que esté informada.
func (d *FiscalDocument) CounterpartyID() string {
	switch {
	case d.ReceiverCompanyID != "":
		return d.ReceiverCompanyID
	case d.ClientID != "":
		return d.ClientID
	default:
		return d.SupplierID
	}
}

// IsAuthorized indica si el comprobante tiene CAE vigente al instante now.
func (d *FiscalDocument) IsAuthorized(now time.Time) bool {
	return d.AuthorizationStatus == AuthStatusAuthorized &&
		d.AuthorizationCode != "" &&
		d.AuthorizationExpiry != nil &&
		d.AuthorizationExpiry.After(now)
}

// Scope devuelve la clave de numeración del comprobante.
func (d *FiscalDocument) Scope() NumberingScope {
	return NumberingScope{IssuerCompanyID: d.IssuerCompanyID, Type: d.Type, SalesPoint: d.SalesPoint}
}

// Clone copia superficial; los punteros a time se duplican para no compartir estado.
func (d *FiscalDocument) Clone() *FiscalDocument {
	if d == nil {
		return nil
	}
	c := *d
	if d.DueDate != nil {
		t := *d.DueDate
		c.DueDate = &t
	}
	if d.AuthorizationExpiry != nil {
		t := *d.AuthorizationExpiry
		c.AuthorizationExpiry = &t
	}
	return &c
}
