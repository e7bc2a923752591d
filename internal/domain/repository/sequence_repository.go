package repository

import (
	"context"

	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

// SequenceRepository numeración correlativa por (emisor, tipo, punto de venta).
type SequenceRepository interface {
	// Next reserva y devuelve el siguiente número. Dos llamadas concurrentes nunca obtienen el mismo.
	Next(ctx context.Context, scope entity.NumberingScope) (int64, error)
	// EnsureAtLeast adelanta el contador hasta n si está por debajo (numeración informada por el caller).
	EnsureAtLeast(ctx context.Context, scope entity.NumberingScope, n int64) error
}
