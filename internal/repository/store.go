package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/blood-donation-platform/internal/booking"
	"github.com/iliyamo/blood-donation-platform/internal/model"
)

// Store is the MySQL implementation of booking.Store.  Every booking
// operation runs inside one database transaction obtained here; the
// per-row FOR UPDATE locks taken by the Tx methods serialize writers of
// the same reservation or session, and the conditional slot/inventory
// updates never leave a read-then-write gap.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for repositories that share the
// connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// Transact runs fn inside a transaction, committing when fn returns nil
// and rolling back otherwise.  A panic inside fn also rolls back.
func (s *Store) Transact(ctx context.Context, fn func(tx booking.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()
	if err = fn(&storeTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// storeTx implements booking.Tx over one open *sql.Tx.
type storeTx struct {
	tx *sql.Tx
}

func (t *storeTx) SessionForUpdate(ctx context.Context, sessionID uint64) (model.CampaignSession, error) {
	const q = `SELECT id, campaign_id, session_date, starts_at, ends_at, slot_capacity, status, created_at, updated_at
		FROM campaign_sessions WHERE id = ? FOR UPDATE`
	var sess model.CampaignSession
	err := t.tx.QueryRowContext(ctx, q, sessionID).Scan(
		&sess.ID, &sess.CampaignID, &sess.SessionDate, &sess.StartsAt, &sess.EndsAt,
		&sess.SlotCapacity, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CampaignSession{}, fmt.Errorf("%w: session %d", booking.ErrNotFound, sessionID)
	}
	if err != nil {
		return model.CampaignSession{}, err
	}
	return sess, nil
}

func (t *storeTx) ReservationForUpdate(ctx context.Context, reservationID uint64) (model.Reservation, error) {
	const q = `SELECT id, session_id, donor_id, donor_name, donor_email, donor_phone, blood_type,
		slot_time, session_date, status, donation_completed, donation_completed_date, next_eligible_date,
		created_at, updated_at
		FROM campaign_reservations WHERE id = ? FOR UPDATE`
	res, err := scanReservation(t.tx.QueryRowContext(ctx, q, reservationID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, fmt.Errorf("%w: reservation %d", booking.ErrNotFound, reservationID)
	}
	return res, err
}

func (t *storeTx) DonorSnapshot(ctx context.Context, donorID uint64) (booking.DonorSnapshot, error) {
	const q = `SELECT u.id, p.full_name, u.email, p.phone, p.blood_type, p.sex, p.medical_deferral,
		p.last_donation_date, p.next_eligible_date
		FROM users u JOIN donor_profiles p ON p.user_id = u.id
		WHERE u.id = ? AND u.is_active = 1`
	var (
		snap      booking.DonorSnapshot
		bloodType string
		last      sql.NullTime
		next      sql.NullTime
	)
	err := t.tx.QueryRowContext(ctx, q, donorID).Scan(
		&snap.DonorID, &snap.FullName, &snap.Email, &snap.Phone, &bloodType, &snap.Sex,
		&snap.MedicalDeferral, &last, &next,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.DonorSnapshot{}, fmt.Errorf("%w: donor %d", booking.ErrNotFound, donorID)
	}
	if err != nil {
		return booking.DonorSnapshot{}, err
	}
	snap.BloodType, _ = model.ParseBloodType(bloodType)
	if last.Valid {
		v := last.Time
		snap.LastDonationDate = &v
	}
	if next.Valid {
		v := next.Time
		snap.NextEligibleDate = &v
	}
	return snap, nil
}

func (t *storeTx) BankExists(ctx context.Context, bankID uint64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM blood_banks WHERE id = ?)`, bankID).Scan(&exists)
	return exists, err
}

func (t *storeTx) HasOverlappingActive(ctx context.Context, donorID uint64, date, startsAt, endsAt time.Time) (bool, error) {
	// Active claims of this donor whose session window intersects the
	// target window on the same date.  The target session itself is
	// covered by the same predicate.
	const q = `SELECT EXISTS(
		SELECT 1 FROM campaign_reservations r
		JOIN campaign_sessions s ON s.id = r.session_id
		WHERE r.donor_id = ?
		  AND r.status IN ('PENDING','CONFIRMED')
		  AND r.donation_completed = 0
		  AND r.session_date = ?
		  AND s.starts_at < ? AND s.ends_at > ?)`
	var exists bool
	err := t.tx.QueryRowContext(ctx, q, donorID, date, endsAt, startsAt).Scan(&exists)
	return exists, err
}

func (t *storeTx) AdmitSlot(ctx context.Context, sessionID uint64, slotTime string) error {
	// Conditional increment: the WHERE clause makes the capacity
	// check and the take one atomic statement, so two racing
	// bookings can never both claim the last opening.
	res, err := t.tx.ExecContext(ctx,
		`UPDATE session_slots SET booked = booked + 1
		 WHERE session_id = ? AND slot_time = ? AND booked < capacity`,
		sessionID, slotTime)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrSlotUnavailable
	}
	return nil
}

func (t *storeTx) ReleaseSlot(ctx context.Context, sessionID uint64, slotTime string) error {
	// The booked > 0 guard keeps the counter from underflowing if a
	// release is ever replayed.
	_, err := t.tx.ExecContext(ctx,
		`UPDATE session_slots SET booked = booked - 1
		 WHERE session_id = ? AND slot_time = ? AND booked > 0`,
		sessionID, slotTime)
	return err
}

func (t *storeTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO campaign_reservations
		(session_id, donor_id, donor_name, donor_email, donor_phone, blood_type, slot_time, session_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	out, err := t.tx.ExecContext(ctx, q,
		res.SessionID, res.DonorID, res.DonorName, res.DonorEmail, res.DonorPhone,
		res.BloodType.String(), res.SlotTime, res.SessionDate, res.Status)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

func (t *storeTx) UpdateReservationStatus(ctx context.Context, reservationID uint64, status string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE campaign_reservations SET status = ? WHERE id = ?`, status, reservationID)
	return err
}

func (t *storeTx) ActiveBySession(ctx context.Context, sessionID uint64) ([]model.Reservation, error) {
	const q = `SELECT id, session_id, donor_id, donor_name, donor_email, donor_phone, blood_type,
		slot_time, session_date, status, donation_completed, donation_completed_date, next_eligible_date,
		created_at, updated_at
		FROM campaign_reservations
		WHERE session_id = ? AND status IN ('PENDING','CONFIRMED') AND donation_completed = 0
		FOR UPDATE`
	rows, err := t.tx.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (t *storeTx) MarkSessionCancelled(ctx context.Context, sessionID uint64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE campaign_sessions SET status = 'CANCELLED' WHERE id = ?`, sessionID)
	return err
}

func (t *storeTx) InsertDonation(ctx context.Context, d *model.Donation) error {
	const q = `INSERT INTO donations
		(donor_id, blood_bank_id, reservation_id, blood_type, volume_ml, units, status, screening_notes, donated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	out, err := t.tx.ExecContext(ctx, q,
		d.DonorID, d.BloodBankID, d.ReservationID, d.BloodType.String(),
		d.VolumeMl, d.Units, d.Status, d.ScreeningNotes, d.DonatedAt)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

func (t *storeTx) MarkDonationCompleted(ctx context.Context, reservationID uint64, completedAt time.Time, nextEligible *time.Time) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE campaign_reservations
		 SET donation_completed = 1, donation_completed_date = ?, next_eligible_date = ?
		 WHERE id = ?`,
		completedAt, nextEligible, reservationID)
	return err
}

func (t *storeTx) AddInventoryUnits(ctx context.Context, bankID uint64, bloodType model.BloodType, units uint32) error {
	// Upsert keeps the increment atomic whether or not the bucket row
	// exists yet.
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO blood_inventory (blood_bank_id, blood_type, units) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE units = units + VALUES(units)`,
		bankID, bloodType.String(), units)
	return err
}

func (t *storeTx) UpdateDonorAfterDonation(ctx context.Context, donorID uint64, donatedAt, nextEligible time.Time, bloodType model.BloodType) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE donor_profiles
		 SET last_donation_date = ?, next_eligible_date = ?, blood_type = ?
		 WHERE user_id = ?`,
		donatedAt, nextEligible, bloodType.String(), donorID)
	return err
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var (
		res       model.Reservation
		bloodType string
		completed sql.NullTime
		next      sql.NullTime
	)
	err := row.Scan(
		&res.ID, &res.SessionID, &res.DonorID, &res.DonorName, &res.DonorEmail, &res.DonorPhone,
		&bloodType, &res.SlotTime, &res.SessionDate, &res.Status, &res.DonationCompleted,
		&completed, &next, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return model.Reservation{}, err
	}
	res.BloodType, _ = model.ParseBloodType(bloodType)
	if completed.Valid {
		v := completed.Time
		res.DonationCompletedDate = &v
	}
	if next.Valid {
		v := next.Time
		res.NextEligibleDate = &v
	}
	return res, nil
}
