package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/repository"
)

var _ repository.FiscalDocumentRepository = (*FiscalDocumentRepo)(nil)

// FiscalDocumentRepo implementación de FiscalDocumentRepository (usable con pool o tx).
type FiscalDocumentRepo struct {
	q Querier
}

// NewFiscalDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalDocumentRepository(q Querier) *FiscalDocumentRepo {
	return &FiscalDocumentRepo{q: q}
}

const documentColumns = `
	id, number, type, issuer_company_id, receiver_company_id, client_id, supplier_id,
	direction, sales_point, voucher_number, related_document_id, issue_date, due_date,
	subtotal, total_taxes, total_perceptions, total, balance_pending, currency, exchange_rate,
	business_status, authorization_status, authorization_code, authorization_expiry, authorization_error,
	approvals_required, approvals_received, rejection_reason, correction_notes, needs_review,
	version, created_by, created_at, updated_at`

// Create persiste la cabecera. La unicidad de números propios la garantiza el índice parcial
// fiscal_documents_issued_number_uq.
func (r *FiscalDocumentRepo) Create(ctx context.Context, doc *entity.FiscalDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	query := `INSERT INTO fiscal_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.Number, string(doc.Type), doc.IssuerCompanyID,
		nullIfEmpty(doc.ReceiverCompanyID), nullIfEmpty(doc.ClientID), nullIfEmpty(doc.SupplierID),
		string(doc.Direction), doc.SalesPoint, doc.VoucherNumber, nullIfEmpty(doc.RelatedDocumentID),
		doc.IssueDate, doc.DueDate,
		doc.Subtotal, doc.TotalTaxes, doc.TotalPerceptions, doc.Total, doc.BalancePending,
		doc.Currency, doc.ExchangeRate,
		string(doc.BusinessStatus), string(doc.AuthorizationStatus),
		nullIfEmpty(doc.AuthorizationCode), doc.AuthorizationExpiry, nullIfEmpty(doc.AuthorizationError),
		doc.ApprovalsRequired, doc.ApprovalsReceived,
		nullIfEmpty(doc.RejectionReason), nullIfEmpty(doc.CorrectionNotes), doc.NeedsReview,
		doc.Version, doc.CreatedBy, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s", domain.ErrDuplicateVoucherNumber, doc.Type, doc.Number)
		}
		return fmt.Errorf("insert fiscal document: %w", err)
	}
	return nil
}

// CreateLineItem persiste una línea.
func (r *FiscalDocumentRepo) CreateLineItem(ctx context.Context, it *entity.LineItem) error {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	query := `
		INSERT INTO line_items (id, document_id, description, quantity, unit_price, discount_percentage,
		                                   tax_rate, tax_category, tax_amount, line_subtotal, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.DocumentID, it.Description, it.Quantity, it.UnitPrice, it.DiscountPercentage,
		it.TaxRate, it.TaxCategory, it.TaxAmount, it.LineSubtotal, it.OrderIndex,
	)
	if err != nil {
		return fmt.Errorf("insert line item: %w", err)
	}
	return nil
}

// CreatePerception persiste una percepción/retención del comprobante.
func (r *FiscalDocumentRepo) CreatePerception(ctx context.Context, p *entity.Perception) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO perceptions (id, document_id, kind, name, jurisdiction, base_type, rate, base_amount, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.DocumentID, p.Kind, p.Name, nullIfEmpty(p.Jurisdiction), p.BaseType, p.Rate, p.BaseAmount, p.Amount,
	)
	if err != nil {
		return fmt.Errorf("insert perception: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera. (nil, nil) si no existe.
func (r *FiscalDocumentRepo) GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM fiscal_documents WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero con bloqueo de fila hasta el fin de la transacción.
func (r *FiscalDocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM fiscal_documents WHERE id = $1 FOR UPDATE`, id)
}

func (r *FiscalDocumentRepo) getOne(ctx context.Context, query, id string) (*entity.FiscalDocument, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal document: %w", err)
	}
	return doc, nil
}

// Update persiste estados, saldo y autorización. Control optimista: la fila debe seguir en doc.Version.
func (r *FiscalDocumentRepo) Update(ctx context.Context, doc *entity.FiscalDocument) error {
	query := `
		UPDATE fiscal_documents
		SET balance_pending      = $3,
		    business_status      = $4,
		    authorization_status = $5,
		    authorization_code   = $6,
		    authorization_expiry = $7,
		    authorization_error  = $8,
		    approvals_required   = $9,
		    approvals_received   = $10,
		    rejection_reason     = $11,
		    correction_notes     = $12,
		    needs_review         = $13,
		    due_date             = $14,
		    updated_at           = $15,
		    version              = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		doc.ID, doc.Version,
		doc.BalancePending, string(doc.BusinessStatus), string(doc.AuthorizationStatus),
		nullIfEmpty(doc.AuthorizationCode), doc.AuthorizationExpiry, nullIfEmpty(doc.AuthorizationError),
		doc.ApprovalsRequired, doc.ApprovalsReceived,
		nullIfEmpty(doc.RejectionReason), nullIfEmpty(doc.CorrectionNotes), doc.NeedsReview,
		doc.DueDate, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update fiscal document: %w", mapTxError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: comprobante %s versión %d", domain.ErrConflictRetryable, doc.ID, doc.Version)
	}
	doc.Version++
	return nil
}

// ListItems líneas en el orden de carga.
func (r *FiscalDocumentRepo) ListItems(ctx context.Context, documentID string) ([]*entity.LineItem, error) {
	query := `
		SELECT id, document_id, description, quantity, unit_price, discount_percentage,
		       tax_rate, tax_category, tax_amount, line_subtotal, order_index
		FROM line_items WHERE document_id = $1 ORDER BY order_index`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()
	var list []*entity.LineItem
	for rows.Next() {
		var it entity.LineItem
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.Description, &it.Quantity, &it.UnitPrice, &it.DiscountPercentage,
			&it.TaxRate, &it.TaxCategory, &it.TaxAmount, &it.LineSubtotal, &it.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// ListPerceptions percepciones/retenciones del comprobante.
func (r *FiscalDocumentRepo) ListPerceptions(ctx context.Context, documentID string) ([]*entity.Perception, error) {
	query := `
		SELECT id, document_id, kind, name, COALESCE(jurisdiction, ''), base_type, rate, base_amount, amount
		FROM perceptions WHERE document_id = $1 ORDER BY name, id`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list perceptions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Perception
	for rows.Next() {
		var p entity.Perception
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Kind, &p.Name, &p.Jurisdiction, &p.BaseType,
			&p.Rate, &p.BaseAmount, &p.Amount); err != nil {
			return nil, fmt.Errorf("scan perception: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// ListNotesByRelated NC/ND del original. Se bloquean junto con el original para propagar estados.
func (r *FiscalDocumentRepo) ListNotesByRelated(ctx context.Context, parentID string) ([]*entity.FiscalDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM fiscal_documents
		WHERE related_document_id = $1 ORDER BY created_at, id FOR UPDATE`
	rows, err := r.q.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()
	var list []*entity.FiscalDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

// ListParentsWithDriftedNotes originales con alguna NC/ND cuyo estado difiere del propio.
func (r *FiscalDocumentRepo) ListParentsWithDriftedNotes(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT DISTINCT p.id
		FROM fiscal_documents n
		JOIN fiscal_documents p ON p.id = n.related_document_id
		WHERE n.business_status <> p.business_status
		   OR n.authorization_status <> p.authorization_status
		ORDER BY p.id
		LIMIT $1`
	return r.listIDs(ctx, query, limitOrAll(limit))
}

// ListOverdueCandidates comprobantes con saldo vencidos a asOf. Incluye paid: una ND posterior al
// pago vuelve a dejar saldo sin cambiar el estado.
func (r *FiscalDocumentRepo) ListOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]string, error) {
	query := `
		SELECT id FROM fiscal_documents
		WHERE related_document_id IS NULL
		  AND due_date IS NOT NULL AND due_date < $1
		  AND balance_pending > 0
		  AND business_status IN ('issued', 'partially_cancelled', 'paid')
		ORDER BY due_date, id
		LIMIT $2`
	return r.listIDs(ctx, query, asOf, limitOrAll(limit))
}

// List pagina las cabeceras de la empresa. El total se calcula con los mismos filtros.
func (r *FiscalDocumentRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.FiscalDocument, int, error) {
	where := []string{"issuer_company_id = $1"}
	args := []any{f.CompanyID}
	add := func(col string, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("direction", string(f.Direction))
	add("type", string(f.Type))
	add("business_status", string(f.BusinessStatus))
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM fiscal_documents WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM fiscal_documents WHERE %s
		ORDER BY issue_date DESC, created_at DESC, id
		LIMIT $%d OFFSET $%d`, documentColumns, cond, len(args)+1, len(args)+2)
	rows, err := r.q.Query(ctx, query, append(args, limitOrAll(f.Limit), f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var out []*entity.FiscalDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return out, total, nil
}

// ExistsIssuedNumber indica si el número ya fue usado por el emisor en el scope.
func (r *FiscalDocumentRepo) ExistsIssuedNumber(ctx context.Context, scope entity.NumberingScope, n int64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM fiscal_documents
			WHERE issuer_company_id = $1 AND type = $2 AND sales_point = $3
			  AND voucher_number = $4 AND direction = 'issued')`
	var exists bool
	if err := r.q.QueryRow(ctx, query, scope.IssuerCompanyID, string(scope.Type), scope.SalesPoint, n).Scan(&exists); err != nil {
		return false, fmt.Errorf("check voucher number: %w", err)
	}
	return exists, nil
}

func (r *FiscalDocumentRepo) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list document ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.FiscalDocument, error) {
	var (
		doc                                        entity.FiscalDocument
		typ, direction, business, authorization    string
		receiver, client, supplier, related        *string
		authCode, authError, rejection, correction *string
	)
	err := row.Scan(
		&doc.ID, &doc.Number, &typ, &doc.IssuerCompanyID, &receiver, &client, &supplier,
		&direction, &doc.SalesPoint, &doc.VoucherNumber, &related, &doc.IssueDate, &doc.DueDate,
		&doc.Subtotal, &doc.TotalTaxes, &doc.TotalPerceptions, &doc.Total, &doc.BalancePending,
		&doc.Currency, &doc.ExchangeRate,
		&business, &authorization, &authCode, &doc.AuthorizationExpiry, &authError,
		&doc.ApprovalsRequired, &doc.ApprovalsReceived, &rejection, &correction, &doc.NeedsReview,
		&doc.Version, &doc.CreatedBy, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Type = entity.DocumentType(typ)
	doc.Direction = entity.Direction(direction)
	doc.BusinessStatus = entity.BusinessStatus(business)
	doc.AuthorizationStatus = entity.AuthorizationStatus(authorization)
	doc.ReceiverCompanyID = derefStr(receiver)
	doc.ClientID = derefStr(client)
	doc.SupplierID = derefStr(supplier)
	doc.RelatedDocumentID = derefStr(related)
	doc.AuthorizationCode = derefStr(authCode)
	doc.AuthorizationError = derefStr(authError)
	doc.RejectionReason = derefStr(rejection)
	doc.CorrectionNotes = derefStr(correction)
	return &doc, nil
}
