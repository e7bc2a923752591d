package domain

import (
	"errors"
	"fmt"
)

// Errores de validación: la entrada se rechaza y no se persiste nada.
var (
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrInvalidTaxRate          = errors.New("alícuota de IVA inválida")
	ErrEmptyItemSet            = errors.New("el comprobante debe tener al menos un ítem")
	ErrInvalidExchangeRate     = errors.New("cotización fuera de rango")
	ErrRelatedDocumentRequired = errors.New("las notas de crédito/débito requieren comprobante asociado")
	ErrInvalidCounterparty     = errors.New("se requiere exactamente una contraparte (empresa, cliente o proveedor)")
	ErrMissingReason           = errors.New("motivo obligatorio")
)

// Errores de dominio.
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrForbidden               = errors.New("acceso denegado")
	ErrDuplicateApproval       = errors.New("el usuario ya aprobó este comprobante")
	ErrAlreadyApproved         = errors.New("el comprobante ya alcanzó las aprobaciones requeridas")
	ErrRelatedDocumentNotFound = errors.New("comprobante asociado no encontrado")
	ErrImmutableSettlement     = errors.New("el pago/cobro confirmado no puede modificarse")
	ErrExcessiveCreditNote     = errors.New("la nota de crédito supera el saldo pendiente")
	ErrInvalidTransition       = errors.New("transición de estado inválida")
	ErrDuplicateVoucherNumber  = errors.New("número de comprobante duplicado")
	ErrNegativeBalance         = errors.New("el saldo pendiente quedaría negativo")
)

// Concurrencia: el caller reintenta la operación completa.
var ErrConflictRetryable = errors.New("conflicto de concurrencia, reintentar")

// Autoridad fiscal externa: nunca es fatal para el núcleo.
var ErrAuthorizationFailed = errors.New("autorización AFIP rechazada o no disponible")

// ValidationError error de validación asociado a un campo de entrada.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación de %q: %s (valor: %v)", e.Field, e.Message, e.Value)
}

// Unwrap permite errors.Is contra el sentinel de la categoría (ErrInvalidTaxRate, etc.).
func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidInput
	}
	return e.Err
}

// NewValidationError construye un ValidationError.
func NewValidationError(field string, value interface{}, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message, Err: err}
}

// TransitionError describe una transición de estado rechazada.
type TransitionError struct {
	Axis string // "business" | "authorization"
	From string
	To   string
	Err  error
}

func (e *TransitionError) Error() string {
	if e.Err != nil && e.Err != ErrInvalidTransition {
		return fmt.Sprintf("estado %s: %s -> %s: %v", e.Axis, e.From, e.To, e.Err)
	}
	return fmt.Sprintf("estado %s: transición %s -> %s no permitida", e.Axis, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidTransition
	}
	return e.Err
}

// Is hace que todo TransitionError también coincida con ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
