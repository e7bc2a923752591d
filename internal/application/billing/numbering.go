package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-arg/internal/domain"
	"github.com/jhoicas/facturacion-arg/internal/domain/entity"
)

// MaxSalesPoint tope AFIP para el punto de venta.
const MaxSalesPoint = 9999

// assignVoucherNumber asigna el número del comprobante dentro de la transacción de alta.
//
//   - Recibidos: el número lo asignó la contraparte; se guarda tal cual, sin control de unicidad
//     (dos proveedores distintos pueden usar el mismo PPPPP-NNNNNNNN).
//   - Propios sin número: se toma el siguiente de la secuencia (emisor, tipo, punto de venta).
//   - Propios con número informado: se verifica que no exista y se adelanta la secuencia.
func assignVoucherNumber(ctx context.Context, repos FiscalRepos, doc *entity.FiscalDocument, requested int64) error {
	if doc.SalesPoint < 1 || doc.SalesPoint > MaxSalesPoint {
		return domain.NewValidationError("sales_point", doc.SalesPoint, "debe estar entre 1 y 9999", nil)
	}
	if requested < 0 {
		return domain.NewValidationError("voucher_number", requested, "debe ser positivo", nil)
	}
	scope := doc.Scope()

	switch {
	case doc.Direction == entity.DirectionReceived:
		if requested == 0 {
			return domain.NewValidationError("voucher_number", requested, "obligatorio en comprobantes recibidos", nil)
		}
		doc.VoucherNumber = requested

	case requested > 0:
		exists, err := repos.Documents.ExistsIssuedNumber(ctx, scope, requested)
		if err != nil {
			return fmt.Errorf("verificar número %s: %w", scope.Key(), err)
		}
		if exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateVoucherNumber, entity.FormatVoucherNumber(doc.SalesPoint, requested))
		}
		if err := repos.Sequences.EnsureAtLeast(ctx, scope, requested); err != nil {
			return fmt.Errorf("ajustar secuencia %s: %w", scope.Key(), err)
		}
		doc.VoucherNumber = requested

	default:
		n, err := repos.Sequences.Next(ctx, scope)
		if err != nil {
			return fmt.Errorf("siguiente número %s: %w", scope.Key(), err)
		}
		doc.VoucherNumber = n
	}

	doc.Number = entity.FormatVoucherNumber(doc.SalesPoint, doc.VoucherNumber)
	return nil
}
