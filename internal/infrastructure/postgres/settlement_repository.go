package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/repository"
)

var _ repository.SettlementRepository = (*SettlementRepo)(nil)

// SettlementRepo pagos/cobros. Las retenciones se guardan como JSONB en la misma fila.
type SettlementRepo struct {
	q Querier
}

// NewSettlementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSettlementRepository(q Querier) *SettlementRepo {
	return &SettlementRepo{q: q}
}

// retentionRow forma persistida de entity.Retention.
type retentionRow struct {
	Type       string          `json:"type"`
	Rate       decimal.Decimal `json:"rate"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Amount     decimal.Decimal `json:"amount"`
}

func toRetentionRows(in []entity.Retention) []retentionRow {
	out := make([]retentionRow, len(in))
	for i, r := range in {
		out[i] = retentionRow(r)
	}
	return out
}

func fromRetentionRows(in []retentionRow) []entity.Retention {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity.Retention, len(in))
	for i, r := range in {
		out[i] = entity.Retention(r)
	}
	return out
}

const settlementColumns = `
	id, document_id, amount, retentions, net_amount, method, status, rejection_reason,
	registered_by, registered_at, confirmed_by, confirmed_at, updated_at`

// Create inserta un pago declarado.
func (r *SettlementRepo) Create(ctx context.Context, s *entity.Settlement) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	query := `INSERT INTO settlements (` + settlementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.DocumentID, s.Amount, toRetentionRows(s.Retentions), s.NetAmount, s.Method, s.Status,
		nullIfEmpty(s.RejectionReason), s.RegisteredBy, s.RegisteredAt, nullIfEmpty(s.ConfirmedBy), s.ConfirmedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

// GetByID obtiene un pago. (nil, nil) si no existe.
func (r *SettlementRepo) GetByID(ctx context.Context, id string) (*entity.Settlement, error) {
	return r.getOne(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, id)
}

// GetForUpdate obtiene y bloquea un pago.
func (r *SettlementRepo) GetForUpdate(ctx context.Context, id string) (*entity.Settlement, error) {
	return r.getOne(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = $1 FOR UPDATE`, id)
}

func (r *SettlementRepo) getOne(ctx context.Context, query, id string) (*entity.Settlement, error) {
	s, err := scanSettlement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settlement: %w", err)
	}
	return s, nil
}

// Update persiste estado y neto. Un pago confirmado no vuelve a escribirse (guarda en WHERE).
func (r *SettlementRepo) Update(ctx context.Context, s *entity.Settlement) error {
	query := `
		UPDATE settlements
		SET retentions       = $2,
		    net_amount       = $3,
		    status           = $4,
		    rejection_reason = $5,
		    confirmed_by     = $6,
		    confirmed_at     = $7,
		    updated_at       = $8
		WHERE id = $1 AND status <> 'confirmed'`
	tag, err := r.q.Exec(ctx, query,
		s.ID, toRetentionRows(s.Retentions), s.NetAmount, s.Status,
		nullIfEmpty(s.RejectionReason), nullIfEmpty(s.ConfirmedBy), s.ConfirmedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update settlement: %w", mapTxError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update settlement %s: fila inexistente o confirmada", s.ID)
	}
	return nil
}

// Delete elimina un pago no confirmado.
func (r *SettlementRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM settlements WHERE id = $1 AND status <> 'confirmed'`, id); err != nil {
		return fmt.Errorf("delete settlement: %w", err)
	}
	return nil
}

// ListByDocument pagos del comprobante en orden de registro.
func (r *SettlementRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE document_id = $1 ORDER BY registered_at, id`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanSettlement(row pgx.Row) (*entity.Settlement, error) {
	var (
		s                    entity.Settlement
		retentions           []retentionRow
		rejection, confirmBy *string
	)
	err := row.Scan(&s.ID, &s.DocumentID, &s.Amount, &retentions, &s.NetAmount, &s.Method, &s.Status, &rejection,
		&s.RegisteredBy, &s.RegisteredAt, &confirmBy, &s.ConfirmedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Retentions = fromRetentionRows(retentions)
	s.RejectionReason = derefStr(rejection)
	s.ConfirmedBy = derefStr(confirmBy)
	return &s, nil
}
