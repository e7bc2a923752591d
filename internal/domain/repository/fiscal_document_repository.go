package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

// FiscalDocumentRepository define el puerto de persistencia para comprobantes, ítems y percepciones.
// Los métodos devuelven (nil, nil) cuando el comprobante no existe.
type FiscalDocumentRepository interface {
	Create(ctx context.Context, doc *entity.FiscalDocument) error
	CreateLineItem(ctx context.Context, item *entity.LineItem) error
	CreatePerception(ctx context.Context, p *entity.Perception) error

	GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error)
	// GetForUpdate bloquea la fila (SELECT ... FOR UPDATE). Solo tiene sentido dentro de una transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.FiscalDocument, error)

	// Update persiste estados, saldo y campos de autorización con control optimista por Version.
	// Devuelve ErrConflictRetryable si la versión no coincide.
	Update(ctx context.Context, doc *entity.FiscalDocument) error

	ListItems(ctx context.Context, documentID string) ([]*entity.LineItem, error)
	ListPerceptions(ctx context.Context, documentID string) ([]*entity.Perception, error)

	// ListNotesByRelated NC/ND cuyo related_document_id es parentID.
	ListNotesByRelated(ctx context.Context, parentID string) ([]*entity.FiscalDocument, error)
	// ListParentsWithDriftedNotes IDs de originales con alguna NC/ND desalineada en estado.
	ListParentsWithDriftedNotes(ctx context.Context, limit int) ([]string, error)
	// ListOverdueCandidates IDs de comprobantes con saldo, vencidos a asOf y aún no marcados overdue.
	ListOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]string, error)

	// List comprobantes de la empresa (cabeceras), más recientes primero, y el total sin paginar.
	List(ctx context.Context, f DocumentFilter) ([]*entity.FiscalDocument, int, error)

	// ExistsIssuedNumber indica si el emisor ya usó ese número en (tipo, punto de venta).
	ExistsIssuedNumber(ctx context.Context, scope entity.NumberingScope, voucherNumber int64) (bool, error)
}

// DocumentFilter filtros de List. Los campos vacíos no filtran.
type DocumentFilter struct {
	CompanyID      string
	Direction      entity.Direction
	Type           entity.DocumentType
	BusinessStatus entity.BusinessStatus
	Limit          int
	Offset         int
}
