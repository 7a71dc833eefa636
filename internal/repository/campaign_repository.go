package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/blood-donation-platform/internal/model"
)

// ErrCampaignNotFound indicates that a campaign was not located in the DB.
var ErrCampaignNotFound = errors.New("campaign not found")

// ErrSessionNotFound indicates that a session was not located in the DB.
var ErrSessionNotFound = errors.New("session not found")

// CampaignRepo manages persistence for campaigns, their sessions and
// the per-slot admission rows.  Slot rows are created together with the
// session so that every bookable slot exists before the first booking
// races for it.
type CampaignRepo struct {
	db *sql.DB
}

// NewCampaignRepo returns a CampaignRepo bound to the given database.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *CampaignRepo) DB() *sql.DB { return r.db }

// Create inserts a campaign owned by the given organizer and populates
// the generated ID and defaults on the passed struct.
func (r *CampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO campaigns (organizer_id, title, location) VALUES (?, ?, ?)`,
		c.OrganizerID, c.Title, c.Location)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	const sel = `SELECT status, created_at, updated_at FROM campaigns WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, c.ID).Scan(&c.Status, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID loads one campaign.
func (r *CampaignRepo) GetByID(ctx context.Context, id uint64) (model.Campaign, error) {
	const q = `SELECT id, organizer_id, title, location, status, created_at, updated_at
		FROM campaigns WHERE id = ?`
	var c model.Campaign
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.OrganizerID, &c.Title, &c.Location, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Campaign{}, ErrCampaignNotFound
	}
	return c, err
}

// ListActive returns all campaigns in ACTIVE status, newest first.
func (r *CampaignRepo) ListActive(ctx context.Context) ([]model.Campaign, error) {
	const q = `SELECT id, organizer_id, title, location, status, created_at, updated_at
		FROM campaigns WHERE status = 'ACTIVE' ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Campaign
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(&c.ID, &c.OrganizerID, &c.Title, &c.Location, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Search returns active campaigns whose title or location matches the
// query string, newest first.  Results are capped at limit.
func (r *CampaignRepo) Search(ctx context.Context, query string, limit int) ([]model.Campaign, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `SELECT id, organizer_id, title, location, status, created_at, updated_at
		FROM campaigns
		WHERE status = 'ACTIVE' AND (title LIKE ? OR location LIKE ?)
		ORDER BY created_at DESC LIMIT ?`
	like := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, q, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Campaign
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(&c.ID, &c.OrganizerID, &c.Title, &c.Location, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateSession inserts a session and its slot rows in one transaction.
// Slots are generated between StartsAt and EndsAt at the given interval;
// each carries the session's SlotCapacity.  The session's campaign must
// belong to organizerID, otherwise ErrForbidden is returned.
func (r *CampaignRepo) CreateSession(ctx context.Context, organizerID uint64, sess *model.CampaignSession, slotInterval time.Duration) error {
	if slotInterval <= 0 {
		slotInterval = 30 * time.Minute
	}
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT organizer_id FROM campaigns WHERE id = ?`, sess.CampaignID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCampaignNotFound
	}
	if err != nil {
		return err
	}
	if owner != organizerID {
		return ErrForbidden
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO campaign_sessions (campaign_id, session_date, starts_at, ends_at, slot_capacity)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.CampaignID, sess.SessionDate, sess.StartsAt, sess.EndsAt, sess.SlotCapacity)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	sess.ID = uint64(id)

	// Bulk insert the slot grid, one row per time bucket.
	query := `INSERT INTO session_slots (session_id, slot_time, capacity) VALUES `
	var args []interface{}
	first := true
	for at := sess.StartsAt; at.Before(sess.EndsAt); at = at.Add(slotInterval) {
		if !first {
			query += ","
		}
		first = false
		query += "(?, ?, ?)"
		args = append(args, sess.ID, at.UTC().Format("15:04"), sess.SlotCapacity)
	}
	if first {
		_ = tx.Rollback()
		return fmt.Errorf("%w: session window shorter than one slot", ErrConflict)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	const sel = `SELECT status, created_at, updated_at FROM campaign_sessions WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, sess.ID).Scan(&sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
}

// GetSession loads one session.
func (r *CampaignRepo) GetSession(ctx context.Context, id uint64) (model.CampaignSession, error) {
	const q = `SELECT id, campaign_id, session_date, starts_at, ends_at, slot_capacity, status, created_at, updated_at
		FROM campaign_sessions WHERE id = ?`
	var s model.CampaignSession
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.CampaignID, &s.SessionDate, &s.StartsAt, &s.EndsAt,
		&s.SlotCapacity, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CampaignSession{}, ErrSessionNotFound
	}
	return s, err
}

// SessionOwner returns the organizer of the campaign a session belongs
// to.  Used for staff ownership checks before cancellation.
func (r *CampaignRepo) SessionOwner(ctx context.Context, sessionID uint64) (uint64, error) {
	var owner uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT c.organizer_id FROM campaign_sessions s JOIN campaigns c ON c.id = s.campaign_id WHERE s.id = ?`,
		sessionID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	return owner, err
}

// ListSessions returns the sessions of a campaign ordered by date.
func (r *CampaignRepo) ListSessions(ctx context.Context, campaignID uint64) ([]model.CampaignSession, error) {
	const q = `SELECT id, campaign_id, session_date, starts_at, ends_at, slot_capacity, status, created_at, updated_at
		FROM campaign_sessions WHERE campaign_id = ? ORDER BY session_date, starts_at`
	rows, err := r.db.QueryContext(ctx, q, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CampaignSession
	for rows.Next() {
		var s model.CampaignSession
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.SessionDate, &s.StartsAt, &s.EndsAt,
			&s.SlotCapacity, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SlotAvailability describes one bookable slot for public display.
type SlotAvailability struct {
	SlotTime  string `json:"slot_time"`
	Capacity  uint32 `json:"capacity"`
	Booked    uint32 `json:"booked"`
	Available bool   `json:"available"`
}

// ListSlots returns the admission state of every slot in a session.
func (r *CampaignRepo) ListSlots(ctx context.Context, sessionID uint64) ([]SlotAvailability, error) {
	const q = `SELECT slot_time, capacity, booked FROM session_slots
		WHERE session_id = ? ORDER BY slot_time`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SlotAvailability
	for rows.Next() {
		var s SlotAvailability
		if err := rows.Scan(&s.SlotTime, &s.Capacity, &s.Booked); err != nil {
			return nil, err
		}
		s.Available = s.Booked < s.Capacity
		out = append(out, s)
	}
	return out, rows.Err()
}
