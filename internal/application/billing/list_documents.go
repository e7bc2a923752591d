package billing

import (
	"context"
	"strings"

	"github.com/jhoicas/facturacion-arg/internal/application/dto"
	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
	"github.com/jhoicas/facturacion-arg/internal/domain/repository"
)

// ListDocuments lista las cabeceras de la empresa con filtros opcionales por sentido, tipo y estado.
func (uc *DocumentUseCase) ListDocuments(ctx context.Context, companyID string, in dto.ListDocumentsRequest) (*dto.DocumentListResponse, error) {
	in.DefaultPage()
	f := repository.DocumentFilter{CompanyID: companyID, Limit: in.Limit, Offset: in.Offset}

	if in.Direction != "" {
		f.Direction = entity.Direction(strings.ToLower(in.Direction))
		if f.Direction != entity.DirectionIssued && f.Direction != entity.DirectionReceived {
			return nil, domain.NewValidationError("direction", in.Direction, "debe ser issued o received", nil)
		}
	}
	if in.Type != "" {
		t, err := entity.ParseDocumentType(in.Type)
		if err != nil {
			return nil, domain.NewValidationError("type", in.Type, err.Error(), nil)
		}
		f.Type = t
	}
	if in.Status != "" {
		f.BusinessStatus = entity.BusinessStatus(strings.ToLower(in.Status))
		if !f.BusinessStatus.Valid() {
			return nil, domain.NewValidationError("status", in.Status, "estado desconocido", nil)
		}
	}

	docs, total, err := uc.repos.Documents.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &dto.DocumentListResponse{
		Items: make([]*dto.DocumentResponse, 0, len(docs)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}
	for _, d := range docs {
		out.Items = append(out.Items, toDocumentResponse(d, nil, nil, nil))
	}
	return out, nil
}
