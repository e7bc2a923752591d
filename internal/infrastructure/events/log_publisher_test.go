package events_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/infrastructure/events"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogPublisher_EntregaYCierra(t *testing.T) {
	out := &syncBuffer{}
	var (
		mu  sync.Mutex
		got []string
	)
	p := events.NewLogPublisher(zerolog.New(out), 8, func(_ context.Context, ev entity.DomainEvent) error {
		mu.Lock()
		got = append(got, ev.Type)
		mu.Unlock()
		return nil
	})

	p.Publish(context.Background(), entity.DomainEvent{
		ID: "ev-1", Type: entity.EventDocumentAuthorized, DocumentID: "doc-1",
		Amounts:    map[string]decimal.Decimal{"total": decimal.NewFromInt(121)},
		OccurredAt: time.Now(),
	})
	p.Publish(context.Background(), entity.DomainEvent{ID: "ev-2", Type: entity.EventSettlementConfirmed})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))

	assert.Equal(t, []string{entity.EventDocumentAuthorized, entity.EventSettlementConfirmed}, got)
	assert.Contains(t, out.String(), `"total":"121.00"`)
	assert.Contains(t, out.String(), `"document_id":"doc-1"`)

	// después de cerrar se descarta sin bloquear ni entrar en pánico
	p.Publish(context.Background(), entity.DomainEvent{Type: entity.EventNoteApplied})
	assert.Contains(t, out.String(), "publicador cerrado")
	require.NoError(t, p.Close(ctx))
}

func TestLogPublisher_BufferLlenoDescarta(t *testing.T) {
	out := &syncBuffer{}
	release := make(chan struct{})
	p := events.NewLogPublisher(zerolog.New(out), 1, func(context.Context, entity.DomainEvent) error {
		<-release
		return nil
	})

	// el primero queda en el sink, el segundo en el buffer; el resto no entra
	for i := 0; i < 10; i++ {
		p.Publish(context.Background(), entity.DomainEvent{Type: entity.EventDocumentCreated})
	}
	close(release)
	require.NoError(t, p.Close(context.Background()))
	assert.Contains(t, out.String(), "buffer lleno")
}
