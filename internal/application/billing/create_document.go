package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/fiscal"
)

// Config parámetros del núcleo de facturación.
type Config struct {
	DefaultApprovalsRequired int
	MaxExchangeRate          decimal.Decimal // cero = fiscal.DefaultMaxExchangeRate
}

// DocumentUseCase alta y consulta de comprobantes.
type DocumentUseCase struct {
	txRunner FiscalTxRunner
	repos    FiscalRepos // lecturas fuera de transacción
	events   EventPublisher
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewDocumentUseCase construye el caso de uso. events puede ser nil.
func NewDocumentUseCase(txRunner FiscalTxRunner, repos FiscalRepos, events EventPublisher, cfg Config, log zerolog.Logger) *DocumentUseCase {
	return &DocumentUseCase{
		txRunner: txRunner,
		repos:    repos,
		events:   publisherOrNoop(events),
		cfg:      cfg,
		log:      log.With().Str("component", "documents").Logger(),
		now:      time.Now,
	}
}

// CreateDocument valida, calcula totales, numera y persiste el comprobante con sus ítems y percepciones.
// Si es NC/ND, en la misma transacción ajusta el saldo del original (bloqueado) y copia sus estados.
// Una NC que excede el saldo no falla: el saldo queda en cero y el warning viaja en la respuesta.
func (uc *DocumentUseCase) CreateDocument(ctx context.Context, companyID, userID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	doc, items, perceptions, err := uc.buildDocument(companyID, userID, in)
	if err != nil {
		return nil, err
	}

	var (
		warnings []error
		noteOut  *fiscal.NoteOutcome
	)
	err = uc.txRunner.RunFiscal(ctx, func(repos FiscalRepos) error {
		var parent *entity.FiscalDocument
		if doc.Type.IsNote() {
			p, err := lockParent(ctx, repos, companyID, doc.RelatedDocumentID)
			if err != nil {
				return err
			}
			parent = p
		}

		if err := assignVoucherNumber(ctx, repos, doc, in.VoucherNumber); err != nil {
			return err
		}

		if parent != nil {
			out, err := applyNoteToParent(ctx, repos, doc, parent, doc.CreatedAt)
			if err != nil {
				return err
			}
			noteOut = &out
		}

		if err := repos.Documents.Create(ctx, doc); err != nil {
			return fmt.Errorf("crear comprobante: %w", err)
		}
		for _, it := range items {
			if err := repos.Documents.CreateLineItem(ctx, it); err != nil {
				return fmt.Errorf("crear ítem %d: %w", it.OrderIndex, err)
			}
		}
		for _, p := range perceptions {
			if err := repos.Documents.CreatePerception(ctx, p); err != nil {
				return fmt.Errorf("crear percepción %q: %w", p.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("document_id", doc.ID).
		Str("number", doc.Number).
		Str("type", string(doc.Type)).
		Str("total", doc.Total.StringFixed(2)).
		Str("business_status", string(doc.BusinessStatus)).
		Str("authorization_status", string(doc.AuthorizationStatus)).
		Msg("comprobante creado")
	uc.events.Publish(ctx, documentEvent(entity.EventDocumentCreated, doc, doc.CreatedAt))

	if noteOut != nil {
		if w := noteOut.Warning(); w != nil {
			warnings = append(warnings, w)
			uc.log.Warn().Str("document_id", doc.ID).Str("parent_id", doc.RelatedDocumentID).
				Str("excess", noteOut.Excess.StringFixed(2)).Msg("NC supera el saldo del original; marcado para revisión")
		}
		ev := documentEvent(entity.EventNoteApplied, doc, doc.CreatedAt)
		ev.Amounts["delta"] = noteOut.Delta
		ev.Amounts["parent_balance"] = noteOut.NewBalance
		ev.Attributes["parent_id"] = doc.RelatedDocumentID
		uc.events.Publish(ctx, ev)
	}

	return toDocumentResponse(doc, items, perceptions, warnings), nil
}

// buildDocument arma el comprobante en memoria; no toca la base.
func (uc *DocumentUseCase) buildDocument(companyID, userID string, in dto.CreateDocumentRequest) (*entity.FiscalDocument, []*entity.LineItem, []*entity.Perception, error) {
	docType, err := entity.ParseDocumentType(in.Type)
	if err != nil {
		return nil, nil, nil, domain.NewValidationError("type", in.Type, err.Error(), nil)
	}

	direction := entity.Direction(strings.ToLower(strings.TrimSpace(in.Direction)))
	switch direction {
	case "":
		direction = entity.DirectionIssued
	case entity.DirectionIssued, entity.DirectionReceived:
	default:
		return nil, nil, nil, domain.NewValidationError("direction", in.Direction, "debe ser issued o received", nil)
	}

	counterparties := 0
	for _, id := range []string{in.ReceiverCompanyID, in.ClientID, in.SupplierID} {
		if strings.TrimSpace(id) != "" {
			counterparties++
		}
	}
	if counterparties != 1 {
		return nil, nil, nil, domain.NewValidationError("counterparty", counterparties, "informar una sola contraparte", domain.ErrInvalidCounterparty)
	}

	related := strings.TrimSpace(in.RelatedDocumentID)
	if docType.RequiresRelated() && related == "" {
		return nil, nil, nil, domain.NewValidationError("related_document_id", "", "obligatorio para NC/ND", domain.ErrRelatedDocumentRequired)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = fiscal.LocalCurrency
	}
	rate, err := fiscal.NormalizeExchangeRate(currency, in.ExchangeRate, uc.cfg.MaxExchangeRate)
	if err != nil {
		return nil, nil, nil, err
	}

	approvals := uc.cfg.DefaultApprovalsRequired
	if in.ApprovalsRequired != nil {
		approvals = *in.ApprovalsRequired
	}
	if approvals < 0 {
		return nil, nil, nil, domain.NewValidationError("approvals_required", approvals, "no puede ser negativo", nil)
	}

	now := uc.now()
	docID := uuid.New().String()

	items := make([]*entity.LineItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = &entity.LineItem{
			ID:                 uuid.New().String(),
			DocumentID:         docID,
			Description:        strings.TrimSpace(it.Description),
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			DiscountPercentage: it.DiscountPercentage,
			TaxRate:            it.TaxRate,
			OrderIndex:         i,
		}
	}
	perceptions := make([]*entity.Perception, len(in.Perceptions))
	for i, p := range in.Perceptions {
		kind := p.Kind
		if kind == "" {
			kind = entity.PerceptionKindPerception
		}
		if kind != entity.PerceptionKindPerception && kind != entity.PerceptionKindRetention {
			return nil, nil, nil, domain.NewValidationError(fmt.Sprintf("perceptions[%d].kind", i), p.Kind, "debe ser perception o retention", nil)
		}
		perceptions[i] = &entity.Perception{
			ID:           uuid.New().String(),
			DocumentID:   docID,
			Kind:         kind,
			Name:         strings.TrimSpace(p.Name),
			Jurisdiction: p.Jurisdiction,
			BaseType:     p.BaseType,
			Rate:         p.Rate,
			Amount:       p.Amount,
		}
	}

	totals, err := fiscal.ComputeTotals(items, perceptions, docType.RequiresItems())
	if err != nil {
		return nil, nil, nil, err
	}

	// Los recibidos ya vienen autorizados por el emisor; R, LBU y CBUCF no tienen código WSFE.
	manual := in.Manual || direction == entity.DirectionReceived || !docType.SupportsExternalAuthorization()
	business, auth := fiscal.InitialStatuses(manual, approvals)

	issueDate := in.IssueDate
	if issueDate.IsZero() {
		issueDate = now
	}
	if in.DueDate != nil && in.DueDate.Before(issueDate) {
		return nil, nil, nil, domain.NewValidationError("due_date", in.DueDate.Format(dateLayout), "anterior a la fecha de emisión", nil)
	}

	doc := &entity.FiscalDocument{
		ID:                  docID,
		Type:                docType,
		IssuerCompanyID:     companyID,
		ReceiverCompanyID:   strings.TrimSpace(in.ReceiverCompanyID),
		ClientID:            strings.TrimSpace(in.ClientID),
		SupplierID:          strings.TrimSpace(in.SupplierID),
		Direction:           direction,
		SalesPoint:          in.SalesPoint,
		RelatedDocumentID:   related,
		IssueDate:           issueDate,
		DueDate:             in.DueDate,
		Subtotal:            totals.Subtotal,
		TotalTaxes:          totals.TotalTaxes,
		TotalPerceptions:    totals.TotalPerceptions,
		Total:               totals.Total,
		BalancePending:      totals.Total,
		Currency:            currency,
		ExchangeRate:        rate,
		BusinessStatus:      business,
		AuthorizationStatus: auth,
		ApprovalsRequired:   approvals,
		CreatedBy:           userID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return doc, items, perceptions, nil
}

// GetDocument devuelve el comprobante con ítems y percepciones. Un comprobante de otra empresa
// se informa como inexistente.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, companyID, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.repos.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.IssuerCompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	items, err := uc.repos.Documents.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	perceptions, err := uc.repos.Documents.ListPerceptions(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, items, perceptions, nil), nil
}
