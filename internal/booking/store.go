package booking

import (
	"context"
	"time"

	"github.com/iliyamo/blood-donation-platform/internal/model"
)

// Store is the storage collaborator for the booking core.  Transact
// runs fn inside one database transaction: every mutation fn performs
// is committed together or rolled back together.  The MySQL
// implementation lives in internal/repository; tests substitute an
// in-memory store with the same atomicity semantics.
type Store interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error
}

// DonorSnapshot is the donor state read at booking and completion time.
// Contact fields are copied onto the reservation (snapshot policy, not
// a live reference); the eligibility fields gate admission.
type DonorSnapshot struct {
	DonorID          uint64
	FullName         string
	Email            string
	Phone            string
	BloodType        model.BloodType
	Sex              string
	MedicalDeferral  bool
	LastDonationDate *time.Time
	NextEligibleDate *time.Time
}

// Tx exposes the per-transaction operations the booking core needs.
// Row-returning methods report ErrNotFound for missing entities.  The
// ...ForUpdate readers take exclusive row locks so that operations
// against the same reservation or session are serialized
// (single-writer-per-entity).
type Tx interface {
	// SessionForUpdate loads a session and locks its row.
	SessionForUpdate(ctx context.Context, sessionID uint64) (model.CampaignSession, error)
	// ReservationForUpdate loads a reservation and locks its row.
	ReservationForUpdate(ctx context.Context, reservationID uint64) (model.Reservation, error)
	// DonorSnapshot loads the booking-relevant donor state.
	DonorSnapshot(ctx context.Context, donorID uint64) (DonorSnapshot, error)
	// BankExists reports whether a blood bank row exists.
	BankExists(ctx context.Context, bankID uint64) (bool, error)

	// HasOverlappingActive reports whether the donor holds an active
	// reservation in any session whose date and time window
	// intersects [startsAt, endsAt) on the given date.  The target
	// session itself is covered by the same check.
	HasOverlappingActive(ctx context.Context, donorID uint64, date, startsAt, endsAt time.Time) (bool, error)

	// AdmitSlot atomically takes one opening of (session, slot).  It
	// returns ErrSlotUnavailable when the slot is unknown or full;
	// two concurrent calls can never both take the last opening.
	AdmitSlot(ctx context.Context, sessionID uint64, slotTime string) error
	// ReleaseSlot returns one opening of (session, slot).  Releasing
	// an already-empty slot is a no-op.
	ReleaseSlot(ctx context.Context, sessionID uint64, slotTime string) error

	// InsertReservation persists a new reservation and fills in its ID.
	InsertReservation(ctx context.Context, res *model.Reservation) error
	// UpdateReservationStatus moves a reservation to the given status.
	UpdateReservationStatus(ctx context.Context, reservationID uint64, status string) error
	// ActiveBySession lists the pending and confirmed reservations of
	// a session, locking their rows.
	ActiveBySession(ctx context.Context, sessionID uint64) ([]model.Reservation, error)
	// MarkSessionCancelled moves the session to CANCELLED.
	MarkSessionCancelled(ctx context.Context, sessionID uint64) error

	// InsertDonation persists a donation record and fills in its ID.
	InsertDonation(ctx context.Context, d *model.Donation) error
	// MarkDonationCompleted sets the reservation's terminal
	// donation-completed flag, its completion date and, on the
	// success path, the recomputed next eligible date.
	MarkDonationCompleted(ctx context.Context, reservationID uint64, completedAt time.Time, nextEligible *time.Time) error
	// AddInventoryUnits credits units to the (bank, blood type)
	// bucket, creating the row when absent.
	AddInventoryUnits(ctx context.Context, bankID uint64, bloodType model.BloodType, units uint32) error
	// UpdateDonorAfterDonation records the donation date, the next
	// eligible date and the screened blood type on the donor profile.
	UpdateDonorAfterDonation(ctx context.Context, donorID uint64, donatedAt, nextEligible time.Time, bloodType model.BloodType) error
}

// StatusEvent is handed to the notification collaborator after a
// reservation transition commits.
type StatusEvent struct {
	ReservationID uint64
	SessionID     uint64
	DonorID       uint64
	NewStatus     string
	OccurredAt    time.Time
}

// Notifier is the notification collaborator.  Calls are fire-and-forget
// and happen outside the booking transaction; failures are logged by
// the implementation and never affect the operation's outcome.
type Notifier interface {
	ReservationStatusChanged(ctx context.Context, ev StatusEvent) error
}

// AuditEntry describes one state transition for the audit collaborator.
type AuditEntry struct {
	Actor    string
	Action   string
	Entity   string
	EntityID uint64
	Before   string
	After    string
	Detail   string
	At       time.Time
}

// AuditSink is the audit collaborator.  The booking core emits an entry
// for every confirm, cancel, completion and session cancellation; it
// does not format or store them.
type AuditSink interface {
	Record(ctx context.Context, e AuditEntry) error
}
