package entity

import "time"

// ApprovalRecord aprobación de un usuario sobre un comprobante. Append-only:
// una por (DocumentID, ApproverUserID), nunca se actualiza ni se borra.
type ApprovalRecord struct {
	ID             string
	DocumentID     string
	ApproverUserID string
	ApprovedAt     time.Time
	Note           string
}
