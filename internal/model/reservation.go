package model

import "time"

// Reservation statuses as stored in campaign_reservations.status.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
)

// Reservation is one donor's claim on a time slot within a campaign
// session.  Contact fields are a deliberate snapshot taken at booking
// time: historical reservations stay stable even if the donor later
// edits their profile.  Rows are never physically deleted; terminal
// reservations are retained for history and audit.
//
// A reservation is active while Status is PENDING or CONFIRMED and the
// donation has not been completed.  At most one active reservation may
// exist per (donor, session), and a donor may not hold two active
// reservations whose session windows overlap in time.
//
// Fields:
//  ID                    – primary key identifier.
//  SessionID             – owning session.
//  DonorID               – donor holding the claim.
//  DonorName             – contact snapshot: full name at booking time.
//  DonorEmail            – contact snapshot: email at booking time.
//  DonorPhone            – contact snapshot: phone at booking time.
//  BloodType             – requested group, UNKNOWN when not yet typed.
//  SlotTime              – slot label within the session ("15:04").
//  SessionDate           – denormalized session date for overlap checks.
//  Status                – PENDING, CONFIRMED or CANCELLED.
//  DonationCompleted     – terminal flag set by donation completion.
//  DonationCompletedDate – when the donation attempt concluded.
//  NextEligibleDate      – donor's recomputed eligibility after success.
//  CreatedAt             – creation timestamp.
//  UpdatedAt             – last update timestamp.
type Reservation struct {
	ID                    uint64     // campaign_reservations.id
	SessionID             uint64     // campaign_reservations.session_id
	DonorID               uint64     // campaign_reservations.donor_id
	DonorName             string     // campaign_reservations.donor_name
	DonorEmail            string     // campaign_reservations.donor_email
	DonorPhone            string     // campaign_reservations.donor_phone
	BloodType             BloodType  // campaign_reservations.blood_type
	SlotTime              string     // campaign_reservations.slot_time
	SessionDate           time.Time  // campaign_reservations.session_date
	Status                string     // campaign_reservations.status
	DonationCompleted     bool       // campaign_reservations.donation_completed
	DonationCompletedDate *time.Time // campaign_reservations.donation_completed_date (nullable)
	NextEligibleDate      *time.Time // campaign_reservations.next_eligible_date (nullable)
	CreatedAt             time.Time  // campaign_reservations.created_at
	UpdatedAt             time.Time  // campaign_reservations.updated_at
}

// Active reports whether the reservation still holds its slot.
func (r *Reservation) Active() bool {
	if r.DonationCompleted {
		return false
	}
	return r.Status == ReservationPending || r.Status == ReservationConfirmed
}

// Terminal reports whether no further state transition is permitted.
func (r *Reservation) Terminal() bool {
	return r.DonationCompleted || r.Status == ReservationCancelled
}
