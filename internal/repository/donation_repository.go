package repository

import (
	"context"
	"database/sql"
	"time"
)

// DonationRepo provides the read side of donation records.  Donation
// rows are only ever written by the booking core's completion
// transaction.
type DonationRepo struct {
	db *sql.DB
}

// NewDonationRepo returns a DonationRepo bound to the given database.
func NewDonationRepo(db *sql.DB) *DonationRepo { return &DonationRepo{db: db} }

// DonationDetail is a donation joined with its bank for display.
type DonationDetail struct {
	ID        uint64    `json:"id"`
	BankID    uint64    `json:"bank_id"`
	BankName  string    `json:"bank_name"`
	BloodType string    `json:"blood_type"`
	VolumeMl  uint32    `json:"volume_ml"`
	Units     uint32    `json:"units"`
	Status    string    `json:"status"`
	DonatedAt time.Time `json:"donated_at"`
}

// ListByDonor returns the donation history of a donor, newest first.
// Rejected (CANCELLED) attempts are part of the history.
func (r *DonationRepo) ListByDonor(ctx context.Context, donorID uint64) ([]DonationDetail, error) {
	const q = `SELECT d.id, d.blood_bank_id, b.name, d.blood_type, d.volume_ml, d.units, d.status, d.donated_at
		FROM donations d
		JOIN blood_banks b ON b.id = d.blood_bank_id
		WHERE d.donor_id = ?
		ORDER BY d.donated_at DESC`
	rows, err := r.db.QueryContext(ctx, q, donorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DonationDetail
	for rows.Next() {
		var d DonationDetail
		if err := rows.Scan(&d.ID, &d.BankID, &d.BankName, &d.BloodType, &d.VolumeMl,
			&d.Units, &d.Status, &d.DonatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
