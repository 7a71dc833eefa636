package model

import "time"

// Donation statuses as stored in donations.status.
const (
	DonationPending   = "PENDING"
	DonationCompleted = "COMPLETED"
	DonationCancelled = "CANCELLED"
)

// Donation records one blood draw attempt tied to a donor and a blood
// bank.  Rows are created only by the donation completion flow: a
// COMPLETED donation credited inventory, a CANCELLED donation is the
// screening-rejection record and never touched inventory.  Completed
// rows are immutable outside administrative correction.
//
// Fields:
//  ID             – primary key identifier.
//  DonorID        – donor who gave blood.
//  BloodBankID    – bank that received the draw.
//  ReservationID  – reservation consumed by this attempt.
//  BloodType      – screened group recorded at the draw.
//  VolumeMl       – drawn volume in millilitres.
//  Units          – inventory units credited (zero when rejected).
//  Status         – PENDING, COMPLETED or CANCELLED.
//  ScreeningNotes – free-form notes from the screening step.
//  DonatedAt      – when the draw concluded.
//  CreatedAt      – creation timestamp.
type Donation struct {
	ID             uint64    // donations.id
	DonorID        uint64    // donations.donor_id
	BloodBankID    uint64    // donations.blood_bank_id
	ReservationID  uint64    // donations.reservation_id
	BloodType      BloodType // donations.blood_type
	VolumeMl       uint32    // donations.volume_ml
	Units          uint32    // donations.units
	Status         string    // donations.status
	ScreeningNotes string    // donations.screening_notes
	DonatedAt      time.Time // donations.donated_at
	CreatedAt      time.Time // donations.created_at
}
