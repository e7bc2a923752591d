package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de eventos de dominio emitidos hacia notificaciones/auditoría.
const (
	EventDocumentCreated     = "document.created"
	EventDocumentApproved    = "document.approved"
	EventDocumentAuthorized  = "document.authorized"
	EventDocumentRejected    = "document.rejected"
	EventSettlementConfirmed = "settlement.confirmed"
	EventNoteApplied         = "note.applied"
)

// DomainEvent evento fire-and-forget; el núcleo no espera su entrega.
type DomainEvent struct {
	ID             string
	Type           string
	DocumentID     string
	CounterpartyID string
	Amounts        map[string]decimal.Decimal
	Attributes     map[string]string
	OccurredAt     time.Time
}
