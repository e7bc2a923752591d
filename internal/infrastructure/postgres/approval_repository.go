package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/repository"
)

var _ repository.ApprovalRepository = (*ApprovalRepo)(nil)

// ApprovalRepo registro append-only de aprobaciones.
type ApprovalRepo struct {
	q Querier
}

// NewApprovalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewApprovalRepository(q Querier) *ApprovalRepo {
	return &ApprovalRepo{q: q}
}

// Create inserta la aprobación; la PK compuesta (document_id, approver_user_id) impide duplicados.
func (r *ApprovalRepo) Create(ctx context.Context, rec *entity.ApprovalRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := `
		INSERT INTO approval_records (id, document_id, approver_user_id, approved_at, note)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, rec.ID, rec.DocumentID, rec.ApproverUserID, rec.ApprovedAt, nullIfEmpty(rec.Note))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateApproval
		}
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

// Exists indica si el usuario ya aprobó el comprobante.
func (r *ApprovalRepo) Exists(ctx context.Context, documentID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM approval_records WHERE document_id = $1 AND approver_user_id = $2)`
	var ok bool
	if err := r.q.QueryRow(ctx, query, documentID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check approval: %w", err)
	}
	return ok, nil
}

// Count cantidad de aprobaciones registradas.
func (r *ApprovalRepo) Count(ctx context.Context, documentID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM approval_records WHERE document_id = $1`, documentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count approvals: %w", err)
	}
	return n, nil
}

// ListByDocument aprobaciones en orden cronológico.
func (r *ApprovalRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.ApprovalRecord, error) {
	query := `
		SELECT id, document_id, approver_user_id, approved_at, COALESCE(note, '')
		FROM approval_records WHERE document_id = $1 ORDER BY approved_at, id`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()
	var list []*entity.ApprovalRecord
	for rows.Next() {
		var a entity.ApprovalRecord
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.ApproverUserID, &a.ApprovedAt, &a.Note); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
