package repository

import (
	"context"
	"database/sql"
	"time"
)

// ReservationRepo provides the read side of campaign reservations:
// donor history listings and staff session views.  All writes go
// through the booking core's transactional Store, never through this
// repository.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationDetail is a reservation joined with its campaign context
// for display to donors and staff.
type ReservationDetail struct {
	ID                    uint64     `json:"id"`
	SessionID             uint64     `json:"session_id"`
	DonorID               uint64     `json:"donor_id"`
	DonorName             string     `json:"donor_name"`
	BloodType             string     `json:"blood_type"`
	SlotTime              string     `json:"slot_time"`
	SessionDate           time.Time  `json:"session_date"`
	Status                string     `json:"status"`
	DonationCompleted     bool       `json:"donation_completed"`
	DonationCompletedDate *time.Time `json:"donation_completed_date,omitempty"`
	NextEligibleDate      *time.Time `json:"next_eligible_date,omitempty"`
	CampaignID            uint64     `json:"campaign_id"`
	CampaignTitle         string     `json:"campaign_title"`
	CampaignLocation      string     `json:"campaign_location"`
	CreatedAt             time.Time  `json:"created_at"`
}

const reservationDetailSelect = `SELECT r.id, r.session_id, r.donor_id, r.donor_name, r.blood_type,
	r.slot_time, r.session_date, r.status, r.donation_completed, r.donation_completed_date,
	r.next_eligible_date, c.id, c.title, c.location, r.created_at
	FROM campaign_reservations r
	JOIN campaign_sessions s ON s.id = r.session_id
	JOIN campaigns c ON c.id = s.campaign_id`

func scanReservationDetail(rows *sql.Rows) (ReservationDetail, error) {
	var (
		d         ReservationDetail
		completed sql.NullTime
		next      sql.NullTime
	)
	err := rows.Scan(&d.ID, &d.SessionID, &d.DonorID, &d.DonorName, &d.BloodType,
		&d.SlotTime, &d.SessionDate, &d.Status, &d.DonationCompleted, &completed,
		&next, &d.CampaignID, &d.CampaignTitle, &d.CampaignLocation, &d.CreatedAt)
	if err != nil {
		return ReservationDetail{}, err
	}
	if completed.Valid {
		v := completed.Time
		d.DonationCompletedDate = &v
	}
	if next.Valid {
		v := next.Time
		d.NextEligibleDate = &v
	}
	return d, nil
}

// ListByDonor returns all reservations of a donor, newest first.
// Terminal reservations are included; they are the donor's history.
func (r *ReservationRepo) ListByDonor(ctx context.Context, donorID uint64) ([]ReservationDetail, error) {
	q := reservationDetailSelect + ` WHERE r.donor_id = ? ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, donorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReservationDetail
	for rows.Next() {
		d, err := scanReservationDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListBySessionForOwner returns the reservations of a session when the
// session's campaign belongs to organizerID.  It returns
// sql.ErrNoRows for an unknown session and ErrForbidden when the
// session exists but is owned by a different organizer.
func (r *ReservationRepo) ListBySessionForOwner(ctx context.Context, sessionID, organizerID uint64) ([]ReservationDetail, error) {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT c.organizer_id FROM campaign_sessions s JOIN campaigns c ON c.id = s.campaign_id WHERE s.id = ?`,
		sessionID).Scan(&owner)
	if err != nil {
		return nil, err
	}
	if owner != organizerID {
		return nil, ErrForbidden
	}

	q := reservationDetailSelect + ` WHERE r.session_id = ? ORDER BY r.slot_time, r.created_at`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReservationDetail{}
	for rows.Next() {
		d, err := scanReservationDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDetail returns one reservation with campaign context.
func (r *ReservationRepo) GetDetail(ctx context.Context, reservationID uint64) (ReservationDetail, error) {
	q := reservationDetailSelect + ` WHERE r.id = ? LIMIT 1`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return ReservationDetail{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return ReservationDetail{}, err
		}
		return ReservationDetail{}, sql.ErrNoRows
	}
	return scanReservationDetail(rows)
}
