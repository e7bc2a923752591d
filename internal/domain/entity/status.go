package entity

// BusinessStatus estado de negocio del comprobante (máquina de estados principal).
type BusinessStatus string

const (
	StatusPendingApproval    BusinessStatus = "pending_approval"
	StatusApproved           BusinessStatus = "approved"
	StatusIssued             BusinessStatus = "issued"
	StatusPaid               BusinessStatus = "paid"
	StatusCollected          BusinessStatus = "collected"
	StatusOverdue            BusinessStatus = "overdue"
	StatusCancelled          BusinessStatus = "cancelled"
	StatusPartiallyCancelled BusinessStatus = "partially_cancelled"
	StatusArchived           BusinessStatus = "archived"
	StatusRejected           BusinessStatus = "rejected"
	StatusInDispute          BusinessStatus = "in_dispute"
	StatusCorrecting         BusinessStatus = "correcting"
	StatusPendingAcceptance  BusinessStatus = "pending_acceptance"
)

// AuthorizationStatus estado frente a la autoridad fiscal (AFIP), eje independiente del de negocio.
type AuthorizationStatus string

const (
	AuthStatusDraft      AuthorizationStatus = "draft"      // sin CAE todavía
	AuthStatusAuthorized AuthorizationStatus = "authorized" // CAE vigente
	AuthStatusRejected   AuthorizationStatus = "rejected"   // rechazo o error del WS
	AuthStatusManual     AuthorizationStatus = "manual"     // no pasa por AFIP (terminal)
)

// Direction sentido del comprobante respecto del emisor registrado en el sistema.
type Direction string

const (
	DirectionIssued   Direction = "issued"   // originado por la empresa (numeración propia)
	DirectionReceived Direction = "received" // recibido de un proveedor (numeración del tercero)
)

var allBusinessStatuses = []BusinessStatus{
	StatusPendingApproval, StatusApproved, StatusIssued, StatusPaid, StatusCollected, StatusOverdue,
	StatusCancelled, StatusPartiallyCancelled, StatusArchived, StatusRejected, StatusInDispute,
	StatusCorrecting, StatusPendingAcceptance,
}

// Valid indica si el estado pertenece a la máquina de estados.
func (s BusinessStatus) Valid() bool {
	for _, known := range allBusinessStatuses {
		if s == known {
			return true
		}
	}
	return false
}
