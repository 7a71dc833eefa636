// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names. Both are declared durable by publisher and consumer.
const (
	ReservationStatusQueue = "reservation.status"
	AuditTrailQueue        = "audit.trail"
)

// ReservationStatusEvent is published whenever a reservation changes
// status (confirmed, cancelled, donation completed). It carries enough
// information for downstream consumers to log or notify the donor
// without querying the primary database.
type ReservationStatusEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	SessionID     uint64 `json:"session_id"`
	DonorID       uint64 `json:"donor_id"`
	NewStatus     string `json:"new_status"`
	OccurredAt    string `json:"occurred_at"`
}

// AuditEvent records one state transition on a reservation, session or
// inventory row for the append-only audit trail.
type AuditEvent struct {
	Actor    string `json:"actor"`
	Action   string `json:"action"`
	Entity   string `json:"entity"`
	EntityID uint64 `json:"entity_id"`
	Before   string `json:"before,omitempty"`
	After    string `json:"after,omitempty"`
	Detail   string `json:"detail,omitempty"`
	At       string `json:"at"`
}
