package billing

import (
	"time"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

const dateLayout = "2006-01-02"

func formatTime(t *time.Time, layout string) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func toDocumentResponse(doc *entity.FiscalDocument, items []*entity.LineItem, perceptions []*entity.Perception, warnings []error) *dto.DocumentResponse {
	out := &dto.DocumentResponse{
		ID:                  doc.ID,
		Number:              doc.Number,
		Type:                string(doc.Type),
		Direction:           string(doc.Direction),
		IssuerCompanyID:     doc.IssuerCompanyID,
		CounterpartyID:      doc.CounterpartyID(),
		SalesPoint:          doc.SalesPoint,
		VoucherNumber:       doc.VoucherNumber,
		RelatedDocumentID:   doc.RelatedDocumentID,
		IssueDate:           doc.IssueDate.Format(dateLayout),
		DueDate:             formatTime(doc.DueDate, dateLayout),
		Subtotal:            doc.Subtotal,
		TotalTaxes:          doc.TotalTaxes,
		TotalPerceptions:    doc.TotalPerceptions,
		Total:               doc.Total,
		BalancePending:      doc.BalancePending,
		Currency:            doc.Currency,
		ExchangeRate:        doc.ExchangeRate,
		BusinessStatus:      string(doc.BusinessStatus),
		AuthorizationStatus: string(doc.AuthorizationStatus),
		AuthorizationCode:   doc.AuthorizationCode,
		AuthorizationExpiry: formatTime(doc.AuthorizationExpiry, dateLayout),
		AuthorizationError:  doc.AuthorizationError,
		ApprovalsRequired:   doc.ApprovalsRequired,
		ApprovalsReceived:   doc.ApprovalsReceived,
		NeedsReview:         doc.NeedsReview,
		Warnings:            warningStrings(warnings),
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.LineItemResponse{
			ID:                 it.ID,
			OrderIndex:         it.OrderIndex,
			Description:        it.Description,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			DiscountPercentage: it.DiscountPercentage,
			TaxRate:            it.TaxRate,
			TaxCategory:        it.TaxCategory,
			LineSubtotal:       it.LineSubtotal,
			TaxAmount:          it.TaxAmount,
		})
	}
	for _, p := range perceptions {
		out.Perceptions = append(out.Perceptions, dto.PerceptionResponse{
			ID:           p.ID,
			Kind:         p.Kind,
			Name:         p.Name,
			Jurisdiction: p.Jurisdiction,
			BaseType:     p.BaseType,
			Rate:         p.Rate,
			BaseAmount:   p.BaseAmount,
			Amount:       p.Amount,
		})
	}
	return out
}

func toSettlementResponse(s *entity.Settlement, doc *entity.FiscalDocument, warnings []error) *dto.SettlementResponse {
	out := &dto.SettlementResponse{
		ID:              s.ID,
		DocumentID:      s.DocumentID,
		Amount:          s.Amount,
		NetAmount:       s.NetAmount,
		Method:          s.Method,
		Status:          s.Status,
		RejectionReason: s.RejectionReason,
		RegisteredBy:    s.RegisteredBy,
		RegisteredAt:    s.RegisteredAt.Format(time.RFC3339),
		ConfirmedBy:     s.ConfirmedBy,
		ConfirmedAt:     formatTime(s.ConfirmedAt, time.RFC3339),
		Warnings:        warningStrings(warnings),
	}
	for _, r := range s.Retentions {
		out.Retentions = append(out.Retentions, dto.RetentionRequest{
			Type: r.Type, Rate: r.Rate, BaseAmount: r.BaseAmount, Amount: r.Amount,
		})
	}
	if doc != nil {
		out.DocumentBalance = doc.BalancePending
		out.DocumentStatus = string(doc.BusinessStatus)
	}
	return out
}

func toAuthorizationResponse(doc *entity.FiscalDocument) *dto.AuthorizationResponse {
	return &dto.AuthorizationResponse{
		DocumentID:          doc.ID,
		AuthorizationStatus: string(doc.AuthorizationStatus),
		AuthorizationCode:   doc.AuthorizationCode,
		AuthorizationExpiry: formatTime(doc.AuthorizationExpiry, dateLayout),
		AuthorizationError:  doc.AuthorizationError,
		BusinessStatus:      string(doc.BusinessStatus),
	}
}

func warningStrings(warnings []error) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.Error())
	}
	return out
}
