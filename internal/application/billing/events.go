package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, entity.DomainEvent) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func documentEvent(typ string, doc *entity.FiscalDocument, now time.Time) entity.DomainEvent {
	return entity.DomainEvent{
		ID:             uuid.New().String(),
		Type:           typ,
		DocumentID:     doc.ID,
		CounterpartyID: doc.CounterpartyID(),
		Amounts: map[string]decimal.Decimal{
			"total":           doc.Total,
			"balance_pending": doc.BalancePending,
		},
		Attributes: map[string]string{
			"number":               doc.Number,
			"type":                 string(doc.Type),
			"business_status":      string(doc.BusinessStatus),
			"authorization_status": string(doc.AuthorizationStatus),
		},
		OccurredAt: now,
	}
}
