package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/blood-donation-platform/internal/eligibility"
	"github.com/iliyamo/blood-donation-platform/internal/model"
)

// Config carries the externally supplied booking constants.  None of
// these are inferred business rules; see the deployment environment.
type Config struct {
	// Rules computes donor deferral windows.
	Rules eligibility.Rules
	// MlPerUnit maps drawn volume to inventory units.  A donation
	// always credits at least one unit.  Defaults to 450.
	MlPerUnit uint32
	// AdmissionWait bounds how long one booking request may wait on
	// slot admission before failing with ErrSlotUnavailable.
	// Defaults to 5 seconds.
	AdmissionWait time.Duration
}

// Service owns the reservation state machine and the donation
// completion transaction.  All operations run inside a single Store
// transaction; notification and audit collaborators are invoked only
// after a successful commit.
type Service struct {
	store    Store
	cfg      Config
	notifier Notifier
	audit    AuditSink
	now      func() time.Time
}

// NewService wires the booking core.  notifier and audit may be nil
// when the respective collaborator is not deployed.
func NewService(store Store, cfg Config, notifier Notifier, audit AuditSink) *Service {
	if store == nil {
		panic("nil store passed to booking.NewService")
	}
	if cfg.MlPerUnit == 0 {
		cfg.MlPerUnit = 450
	}
	if cfg.AdmissionWait <= 0 {
		cfg.AdmissionWait = 5 * time.Second
	}
	if cfg.Rules.Deferral == 0 {
		cfg.Rules = eligibility.NewRules(0)
	}
	return &Service{
		store:    store,
		cfg:      cfg,
		notifier: notifier,
		audit:    audit,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// BookRequest is a donor's booking attempt.  The donor identifier comes
// from the identity collaborator and is trusted as given.
type BookRequest struct {
	DonorID   uint64
	SessionID uint64
	SlotTime  string
	// BloodType is the requested group; UNKNOWN is a valid input for
	// donors who have never been typed.
	BloodType model.BloodType
}

// Book admits a donor into a session slot and creates a PENDING
// reservation.  It fails with ErrEligibilityNotMet (wrapped in an
// EligibilityError), ErrDuplicateActiveReservation or
// ErrSlotUnavailable per the admission checks, and with ErrInvalidState
// when the session is not open for booking.
func (s *Service) Book(ctx context.Context, req BookRequest) (model.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.AdmissionWait)
	defer cancel()

	var res model.Reservation
	err := s.store.Transact(ctx, func(tx Tx) error {
		sess, err := tx.SessionForUpdate(ctx, req.SessionID)
		if err != nil {
			return err
		}
		if sess.Status != model.SessionScheduled {
			return fmt.Errorf("%w: session is %s", ErrInvalidState, sess.Status)
		}

		donor, err := tx.DonorSnapshot(ctx, req.DonorID)
		if err != nil {
			return err
		}
		if donor.NextEligibleDate != nil && sess.SessionDate.Before(*donor.NextEligibleDate) {
			return &EligibilityError{NextEligible: *donor.NextEligibleDate}
		}

		dup, err := tx.HasOverlappingActive(ctx, req.DonorID, sess.SessionDate, sess.StartsAt, sess.EndsAt)
		if err != nil {
			return err
		}
		if dup {
			return ErrDuplicateActiveReservation
		}

		if err := tx.AdmitSlot(ctx, req.SessionID, req.SlotTime); err != nil {
			return err
		}

		res = model.Reservation{
			SessionID:   req.SessionID,
			DonorID:     req.DonorID,
			DonorName:   donor.FullName,
			DonorEmail:  donor.Email,
			DonorPhone:  donor.Phone,
			BloodType:   req.BloodType,
			SlotTime:    req.SlotTime,
			SessionDate: sess.SessionDate,
			Status:      model.ReservationPending,
		}
		return tx.InsertReservation(ctx, &res)
	})
	if err != nil {
		// A booking that ran out of its admission wait is reported as
		// an unavailable slot; the caller owns any retry policy.
		if errors.Is(err, context.DeadlineExceeded) {
			return model.Reservation{}, ErrSlotUnavailable
		}
		return model.Reservation{}, err
	}
	return res, nil
}

// Confirm moves a PENDING reservation to CONFIRMED.  Confirming an
// already confirmed reservation succeeds without re-mutating, which
// makes retried confirmation requests safe.  Terminal reservations
// yield ErrAlreadyTerminal.
func (s *Service) Confirm(ctx context.Context, reservationID uint64, actor string) (model.Reservation, error) {
	var (
		res     model.Reservation
		changed bool
	)
	err := s.store.Transact(ctx, func(tx Tx) error {
		var err error
		res, err = tx.ReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.Terminal() {
			return ErrAlreadyTerminal
		}
		if res.Status == model.ReservationConfirmed {
			return nil // idempotent
		}
		if err := tx.UpdateReservationStatus(ctx, reservationID, model.ReservationConfirmed); err != nil {
			return err
		}
		res.Status = model.ReservationConfirmed
		changed = true
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	if changed {
		s.emit(ctx, actor, "reservation.confirm", res, model.ReservationPending, model.ReservationConfirmed, "")
	}
	return res, nil
}

// Cancel releases a PENDING or CONFIRMED reservation and frees its
// slot.  Cancelled and donation-completed reservations yield
// ErrAlreadyTerminal.
func (s *Service) Cancel(ctx context.Context, reservationID uint64, actor string) (model.Reservation, error) {
	var (
		res    model.Reservation
		before string
	)
	err := s.store.Transact(ctx, func(tx Tx) error {
		var err error
		res, err = tx.ReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.Terminal() {
			return ErrAlreadyTerminal
		}
		before = res.Status
		if err := tx.UpdateReservationStatus(ctx, reservationID, model.ReservationCancelled); err != nil {
			return err
		}
		if err := tx.ReleaseSlot(ctx, res.SessionID, res.SlotTime); err != nil {
			return err
		}
		res.Status = model.ReservationCancelled
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	s.emit(ctx, actor, "reservation.cancel", res, before, model.ReservationCancelled, "")
	return res, nil
}

// CancelSession cancels a session and cascade-cancels every active
// reservation under it, releasing their slots.  The cascade is one
// transaction: either the session and all N reservations move to
// CANCELLED, or nothing does.  Returns the reservations that were
// cancelled.
func (s *Service) CancelSession(ctx context.Context, sessionID uint64, actor string) ([]model.Reservation, error) {
	var (
		cancelled []model.Reservation
		befores   []string
	)
	err := s.store.Transact(ctx, func(tx Tx) error {
		sess, err := tx.SessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status == model.SessionCancelled {
			return ErrAlreadyTerminal
		}
		active, err := tx.ActiveBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		cancelled = cancelled[:0]
		befores = befores[:0]
		for i := range active {
			res := active[i]
			if err := tx.UpdateReservationStatus(ctx, res.ID, model.ReservationCancelled); err != nil {
				return err
			}
			if err := tx.ReleaseSlot(ctx, res.SessionID, res.SlotTime); err != nil {
				return err
			}
			befores = append(befores, res.Status)
			res.Status = model.ReservationCancelled
			cancelled = append(cancelled, res)
		}
		return tx.MarkSessionCancelled(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, AuditEntry{
			Actor:    actor,
			Action:   "session.cancel",
			Entity:   "campaign_session",
			EntityID: sessionID,
			Before:   model.SessionScheduled,
			After:    model.SessionCancelled,
			Detail:   fmt.Sprintf("cascade cancelled %d reservations", len(cancelled)),
			At:       s.now(),
		})
	}
	for i := range cancelled {
		s.emit(ctx, actor, "reservation.cancel", cancelled[i], befores[i], model.ReservationCancelled, "session cancelled")
	}
	return cancelled, nil
}

// emit sends the post-commit audit entry and status notification for
// one reservation transition.  Both collaborators are fire-and-forget.
func (s *Service) emit(ctx context.Context, actor, action string, res model.Reservation, before, after, detail string) {
	if s.audit != nil {
		_ = s.audit.Record(ctx, AuditEntry{
			Actor:    actor,
			Action:   action,
			Entity:   "reservation",
			EntityID: res.ID,
			Before:   before,
			After:    after,
			Detail:   detail,
			At:       s.now(),
		})
	}
	if s.notifier != nil {
		_ = s.notifier.ReservationStatusChanged(ctx, StatusEvent{
			ReservationID: res.ID,
			SessionID:     res.SessionID,
			DonorID:       res.DonorID,
			NewStatus:     after,
			OccurredAt:    s.now(),
		})
	}
}
