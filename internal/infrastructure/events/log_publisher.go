// Package events entrega los eventos de dominio fuera del camino transaccional.
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-arg/internal/application/billing"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

const defaultBuffer = 256

// Sink destino final de un evento (log, cola, webhook).
type Sink func(ctx context.Context, ev entity.DomainEvent) error

// LogPublisher encola eventos en un canal con buffer y los drena con una sola goroutine.
// Si el buffer está lleno el evento se descarta con un warning: Publish nunca bloquea.
type LogPublisher struct {
	ch     chan entity.DomainEvent
	sinks  []Sink
	log    zerolog.Logger
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

var _ billing.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher arranca el drenado. buffer <= 0 usa el valor por defecto.
// Sin sinks adicionales cada evento se escribe en el log estructurado.
func NewLogPublisher(log zerolog.Logger, buffer int, sinks ...Sink) *LogPublisher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	p := &LogPublisher{
		ch:    make(chan entity.DomainEvent, buffer),
		sinks: sinks,
		log:   log,
		done:  make(chan struct{}),
	}
	go p.drain()
	return p
}

func (p *LogPublisher) Publish(_ context.Context, ev entity.DomainEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn().Str("event", ev.Type).Str("document_id", ev.DocumentID).Msg("evento descartado: publicador cerrado")
		return
	}
	select {
	case p.ch <- ev:
	default:
		p.log.Warn().Str("event", ev.Type).Str("document_id", ev.DocumentID).Msg("evento descartado: buffer lleno")
	}
}

// Close deja de aceptar eventos y espera a que se entreguen los encolados o a que ctx expire.
func (p *LogPublisher) Close(ctx context.Context) error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.ch)
		p.mu.Unlock()
	})
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *LogPublisher) drain() {
	defer close(p.done)
	ctx := context.Background()
	for ev := range p.ch {
		p.logEvent(ev)
		for _, sink := range p.sinks {
			if err := sink(ctx, ev); err != nil {
				p.log.Error().Err(err).Str("event", ev.Type).Str("event_id", ev.ID).Msg("error entregando evento")
			}
		}
	}
}

func (p *LogPublisher) logEvent(ev entity.DomainEvent) {
	e := p.log.Info().
		Str("event", ev.Type).
		Str("event_id", ev.ID).
		Str("document_id", ev.DocumentID).
		Str("counterparty_id", ev.CounterpartyID).
		Time("occurred_at", ev.OccurredAt)
	if len(ev.Amounts) > 0 {
		amounts := zerolog.Dict()
		for k, v := range ev.Amounts {
			amounts.Str(k, v.StringFixed(2))
		}
		e = e.Dict("amounts", amounts)
	}
	if len(ev.Attributes) > 0 {
		attrs := zerolog.Dict()
		for k, v := range ev.Attributes {
			attrs.Str(k, v)
		}
		e = e.Dict("attributes", attrs)
	}
	e.Msg("evento de dominio")
}
