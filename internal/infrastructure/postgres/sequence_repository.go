package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contadores por (emisor, tipo, punto de venta) en voucher_sequences.
// El UPSERT toma el lock de la fila, así que dos transacciones concurrentes se serializan
// sobre el mismo scope y nunca leen el mismo valor.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next reserva el siguiente número del scope.
func (r *SequenceRepo) Next(ctx context.Context, scope entity.NumberingScope) (int64, error) {
	const query = `
		INSERT INTO voucher_sequences (issuer_company_id, type, sales_point, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (issuer_company_id, type, sales_point)
		DO UPDATE SET last_number = voucher_sequences.last_number + 1
		RETURNING last_number`
	var n int64
	if err := r.q.QueryRow(ctx, query, scope.IssuerCompanyID, string(scope.Type), scope.SalesPoint).Scan(&n); err != nil {
		return 0, fmt.Errorf("next voucher number %s: %w", scope.Key(), mapTxError(err))
	}
	return n, nil
}

// EnsureAtLeast adelanta el contador a n si está por debajo. Nunca lo retrocede.
func (r *SequenceRepo) EnsureAtLeast(ctx context.Context, scope entity.NumberingScope, n int64) error {
	const query = `
		INSERT INTO voucher_sequences (issuer_company_id, type, sales_point, last_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (issuer_company_id, type, sales_point)
		DO UPDATE SET last_number = GREATEST(voucher_sequences.last_number, EXCLUDED.last_number)`
	if _, err := r.q.Exec(ctx, query, scope.IssuerCompanyID, string(scope.Type), scope.SalesPoint, n); err != nil {
		return fmt.Errorf("advance voucher sequence %s: %w", scope.Key(), mapTxError(err))
	}
	return nil
}
