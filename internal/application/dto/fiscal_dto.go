package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateDocumentRequest body para POST /api/documents.
// Exactamente una contraparte: receiver_company_id, client_id o supplier_id.
type CreateDocumentRequest struct {
	Type              string              `json:"type"`
	Direction         string              `json:"direction"` // issued (default) | received
	ReceiverCompanyID string              `json:"receiver_company_id,omitempty"`
	ClientID          string              `json:"client_id,omitempty"`
	SupplierID        string              `json:"supplier_id,omitempty"`
	SalesPoint        int                 `json:"sales_point"`
	VoucherNumber     int64               `json:"voucher_number,omitempty"` // obligatorio en recibidos; opcional en propios
	RelatedDocumentID string              `json:"related_document_id,omitempty"`
	IssueDate         time.Time           `json:"issue_date"`
	DueDate           *time.Time          `json:"due_date,omitempty"`
	Currency          string              `json:"currency,omitempty"`
	ExchangeRate      decimal.Decimal     `json:"exchange_rate"`
	Manual            bool                `json:"manual,omitempty"`
	ApprovalsRequired *int                `json:"approvals_required,omitempty"`
	Items             []LineItemRequest   `json:"items"`
	Perceptions       []PerceptionRequest `json:"perceptions,omitempty"`
}

// LineItemRequest línea del comprobante. tax_rate -1 = exento, -2 = no gravado.
type LineItemRequest struct {
	Description        string          `json:"description"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
}

// PerceptionRequest percepción/retención; rate o amount.
type PerceptionRequest struct {
	Kind         string           `json:"kind"`
	Name         string           `json:"name"`
	Jurisdiction string           `json:"jurisdiction,omitempty"`
	BaseType     string           `json:"base_type"`
	Rate         *decimal.Decimal `json:"rate,omitempty"`
	Amount       decimal.Decimal  `json:"amount"`
}

// DocumentResponse comprobante con ítems y percepciones.
type DocumentResponse struct {
	ID                  string               `json:"id"`
	Number              string               `json:"number"`
	Type                string               `json:"type"`
	Direction           string               `json:"direction"`
	IssuerCompanyID     string               `json:"issuer_company_id"`
	CounterpartyID      string               `json:"counterparty_id"`
	SalesPoint          int                  `json:"sales_point"`
	VoucherNumber       int64                `json:"voucher_number"`
	RelatedDocumentID   string               `json:"related_document_id,omitempty"`
	IssueDate           string               `json:"issue_date"`
	DueDate             string               `json:"due_date,omitempty"`
	Subtotal            decimal.Decimal      `json:"subtotal"`
	TotalTaxes          decimal.Decimal      `json:"total_taxes"`
	TotalPerceptions    decimal.Decimal      `json:"total_perceptions"`
	Total               decimal.Decimal      `json:"total"`
	BalancePending      decimal.Decimal      `json:"balance_pending"`
	Currency            string               `json:"currency"`
	ExchangeRate        decimal.Decimal      `json:"exchange_rate"`
	BusinessStatus      string               `json:"business_status"`
	AuthorizationStatus string               `json:"authorization_status"`
	AuthorizationCode   string               `json:"authorization_code,omitempty"`
	AuthorizationExpiry string               `json:"authorization_expiry,omitempty"`
	AuthorizationError  string               `json:"authorization_error,omitempty"`
	ApprovalsRequired   int                  `json:"approvals_required"`
	ApprovalsReceived   int                  `json:"approvals_received"`
	NeedsReview         bool                 `json:"needs_review"`
	Items               []LineItemResponse   `json:"items,omitempty"`
	Perceptions         []PerceptionResponse `json:"perceptions,omitempty"`
	Warnings            []string             `json:"warnings,omitempty"`
}

// LineItemResponse línea calculada.
type LineItemResponse struct {
	ID                 string          `json:"id"`
	OrderIndex         int             `json:"order_index"`
	Description        string          `json:"description"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	TaxRate            decimal.Decimal `json:"tax_rate"`
	TaxCategory        string          `json:"tax_category"`
	LineSubtotal       decimal.Decimal `json:"line_subtotal"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
}

// PerceptionResponse percepción calculada.
type PerceptionResponse struct {
	ID           string           `json:"id"`
	Kind         string           `json:"kind"`
	Name         string           `json:"name"`
	Jurisdiction string           `json:"jurisdiction,omitempty"`
	BaseType     string           `json:"base_type"`
	Rate         *decimal.Decimal `json:"rate,omitempty"`
	BaseAmount   decimal.Decimal  `json:"base_amount"`
	Amount       decimal.Decimal  `json:"amount"`
}

// ReasonRequest body para reject/correct.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ApprovalRequest body para POST /api/documents/:id/approvals.
type ApprovalRequest struct {
	Note string `json:"note,omitempty"`
}

// ApprovalResponse resultado de registrar una aprobación.
type ApprovalResponse struct {
	DocumentID        string `json:"document_id"`
	ApprovalsRequired int    `json:"approvals_required"`
	ApprovalsReceived int    `json:"approvals_received"`
	BusinessStatus    string `json:"business_status"`
	Approved          bool   `json:"approved"`
}

// DeclareSettlementRequest body para POST /api/documents/:id/settlements.
type DeclareSettlementRequest struct {
	Amount     decimal.Decimal    `json:"amount"`
	Method     string             `json:"method"`
	Retentions []RetentionRequest `json:"retentions,omitempty"`
}

// RetentionRequest retención sobre el pago; amount o rate (+ base_amount opcional).
type RetentionRequest struct {
	Type       string          `json:"type"`
	Rate       decimal.Decimal `json:"rate"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Amount     decimal.Decimal `json:"amount"`
}

// SettlementResponse pago/cobro.
type SettlementResponse struct {
	ID              string             `json:"id"`
	DocumentID      string             `json:"document_id"`
	Amount          decimal.Decimal    `json:"amount"`
	NetAmount       decimal.Decimal    `json:"net_amount"`
	Method          string             `json:"method"`
	Status          string             `json:"status"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	Retentions      []RetentionRequest `json:"retentions,omitempty"`
	RegisteredBy    string             `json:"registered_by"`
	RegisteredAt    string             `json:"registered_at"`
	ConfirmedBy     string             `json:"confirmed_by,omitempty"`
	ConfirmedAt     string             `json:"confirmed_at,omitempty"`
	// Datos del comprobante tras confirmar.
	DocumentBalance decimal.Decimal `json:"document_balance"`
	DocumentStatus  string          `json:"document_status,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
}

// AuthorizationResponse resultado de solicitar CAE.
type AuthorizationResponse struct {
	DocumentID          string `json:"document_id"`
	AuthorizationStatus string `json:"authorization_status"`
	AuthorizationCode   string `json:"authorization_code,omitempty"`
	AuthorizationExpiry string `json:"authorization_expiry,omitempty"`
	AuthorizationError  string `json:"authorization_error,omitempty"`
	BusinessStatus      string `json:"business_status"`
}

// SweepResult resumen de un barrido batch.
type SweepResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// ListDocumentsRequest filtros de listado (query string).
type ListDocumentsRequest struct {
	PageRequest
	Direction string `query:"direction"`
	Type      string `query:"type"`
	Status    string `query:"status"`
}

// DocumentListResponse página de comprobantes (sin ítems ni percepciones).
type DocumentListResponse struct {
	Items []*DocumentResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}
