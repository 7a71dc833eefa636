package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/blood-donation-platform/internal/eligibility"
	"github.com/iliyamo/blood-donation-platform/internal/model"
)

// CompletionRequest is the staff-side record of a donation attempt
// against a confirmed reservation.
type CompletionRequest struct {
	ReservationID uint64
	BloodBankID   uint64
	VolumeMl      uint32
	// ScreeningPassed selects the success path.  When false a
	// CANCELLED donation is recorded, the reservation is consumed
	// and inventory is left untouched.
	ScreeningPassed bool
	ScreeningNotes  string
	// ScreenedType is the group determined at the draw.  Required
	// when the reservation was booked as UNKNOWN and screening
	// passed; otherwise it overrides the reservation's group.
	ScreenedType model.BloodType
	Actor        string
}

// CompleteDonation records the outcome of a confirmed reservation.
//
// The success path runs as one atomic unit: insert a COMPLETED
// donation, credit the inventory bucket and mark the reservation
// complete with the recomputed next eligible date.  If any of those
// steps fails the transaction is rolled back and the caller sees
// ErrCompletionFailed with no partial state visible; the storage detail
// is forwarded to the audit collaborator only.
//
// The rejection path (screening failed) records a CANCELLED donation
// with zero units, consumes the reservation and never touches
// inventory or the donor's eligibility.
func (s *Service) CompleteDonation(ctx context.Context, req CompletionRequest) (model.Donation, error) {
	var (
		donation model.Donation
		res      model.Reservation
	)
	err := s.store.Transact(ctx, func(tx Tx) error {
		var err error
		res, err = tx.ReservationForUpdate(ctx, req.ReservationID)
		if err != nil {
			return err
		}
		if res.DonationCompleted {
			return fmt.Errorf("%w: donation already completed", ErrInvalidState)
		}
		if res.Status == model.ReservationCancelled {
			return ErrAlreadyTerminal
		}
		if res.Status != model.ReservationConfirmed {
			return fmt.Errorf("%w: reservation is %s", ErrInvalidState, res.Status)
		}
		ok, err := tx.BankExists(ctx, req.BloodBankID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: blood bank %d", ErrNotFound, req.BloodBankID)
		}

		bloodType := req.ScreenedType
		if !bloodType.Known() {
			bloodType = res.BloodType
		}

		now := s.now()
		donation = model.Donation{
			DonorID:        res.DonorID,
			BloodBankID:    req.BloodBankID,
			ReservationID:  res.ID,
			BloodType:      bloodType,
			VolumeMl:       req.VolumeMl,
			ScreeningNotes: req.ScreeningNotes,
			DonatedAt:      now,
		}

		if !req.ScreeningPassed {
			donation.Status = model.DonationCancelled
			donation.Units = 0
			if err := tx.InsertDonation(ctx, &donation); err != nil {
				return err
			}
			// The attempt occurred, so the reservation is consumed,
			// but no blood was drawn: eligibility stays untouched.
			return tx.MarkDonationCompleted(ctx, res.ID, now, nil)
		}

		if !bloodType.Known() {
			return ErrBloodTypeRequired
		}
		donor, err := tx.DonorSnapshot(ctx, res.DonorID)
		if err != nil {
			return err
		}

		donation.Status = model.DonationCompleted
		donation.Units = s.volumeToUnits(req.VolumeMl)
		if err := tx.InsertDonation(ctx, &donation); err != nil {
			return err
		}
		if err := tx.AddInventoryUnits(ctx, req.BloodBankID, bloodType, donation.Units); err != nil {
			return err
		}
		next := s.cfg.Rules.NextEligibleDate(now, eligibility.Donor{
			Sex:             donor.Sex,
			MedicalDeferral: donor.MedicalDeferral,
		})
		if err := tx.MarkDonationCompleted(ctx, res.ID, now, &next); err != nil {
			return err
		}
		return tx.UpdateDonorAfterDonation(ctx, res.DonorID, now, next, bloodType)
	})
	if err != nil {
		if isDomainError(err) {
			return model.Donation{}, err
		}
		// Storage-layer failures roll the whole unit back and are
		// reported generically; the full detail goes to audit only.
		if s.audit != nil {
			_ = s.audit.Record(ctx, AuditEntry{
				Actor:    req.Actor,
				Action:   "donation.complete",
				Entity:   "reservation",
				EntityID: req.ReservationID,
				Detail:   fmt.Sprintf("rolled back: %v", err),
				At:       s.now(),
			})
		}
		return model.Donation{}, ErrCompletionFailed
	}

	after := "DONATION_COMPLETED"
	detail := fmt.Sprintf("bank=%d type=%s units=%d", req.BloodBankID, donation.BloodType, donation.Units)
	if donation.Status == model.DonationCancelled {
		after = "DONATION_REJECTED"
		detail = "screening failed, no units recorded"
	}
	s.emit(ctx, req.Actor, "donation.complete", res, model.ReservationConfirmed, after, detail)
	return donation, nil
}

// volumeToUnits applies the configured millilitre-per-unit mapping.  A
// completed donation always credits at least one unit.
func (s *Service) volumeToUnits(volumeMl uint32) uint32 {
	if volumeMl == 0 || s.cfg.MlPerUnit == 0 {
		return 1
	}
	units := volumeMl / s.cfg.MlPerUnit
	if units == 0 {
		units = 1
	}
	return units
}

// isDomainError distinguishes the typed taxonomy from storage failures
// that must surface as ErrCompletionFailed.
func isDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrEligibilityNotMet,
		ErrDuplicateActiveReservation,
		ErrSlotUnavailable,
		ErrInvalidState,
		ErrAlreadyTerminal,
		ErrBloodTypeRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
