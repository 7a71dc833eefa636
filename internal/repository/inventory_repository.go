package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/blood-donation-platform/internal/model"
)

// ErrBankNotFound indicates that a blood bank was not located in the DB.
var ErrBankNotFound = errors.New("blood bank not found")

// ErrBankNameExists indicates a duplicate bank name.
var ErrBankNameExists = errors.New("bank name already exists")

// InventoryRepo manages blood banks and the inventory ledger's read and
// drain sides.  Credits happen only inside the donation completion
// transaction; this repository handles bank administration, level
// queries and the guarded usage decrement.
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo returns an InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// CreateBank inserts a blood bank and populates its generated ID.
func (r *InventoryRepo) CreateBank(ctx context.Context, b *model.BloodBank) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO blood_banks (name, city) VALUES (?, ?)`, b.Name, b.City)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrBankNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM blood_banks WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetBank loads one blood bank.
func (r *InventoryRepo) GetBank(ctx context.Context, id uint64) (model.BloodBank, error) {
	const q = `SELECT id, name, city, created_at, updated_at FROM blood_banks WHERE id = ?`
	var b model.BloodBank
	err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Name, &b.City, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BloodBank{}, ErrBankNotFound
	}
	return b, err
}

// ListBanks returns all banks ordered by name.
func (r *InventoryRepo) ListBanks(ctx context.Context) ([]model.BloodBank, error) {
	const q = `SELECT id, name, city, created_at, updated_at FROM blood_banks ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BloodBank
	for rows.Next() {
		var b model.BloodBank
		if err := rows.Scan(&b.ID, &b.Name, &b.City, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Levels returns the unit count per blood type at a bank.  Buckets that
// never received a donation are absent.
func (r *InventoryRepo) Levels(ctx context.Context, bankID uint64) ([]model.InventoryRecord, error) {
	bank, err := r.GetBank(ctx, bankID)
	if err != nil {
		return nil, err
	}
	const q = `SELECT blood_bank_id, blood_type, units, updated_at
		FROM blood_inventory WHERE blood_bank_id = ? ORDER BY blood_type`
	rows, err := r.db.QueryContext(ctx, q, bank.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.InventoryRecord{}
	for rows.Next() {
		var (
			rec model.InventoryRecord
			bt  string
		)
		if err := rows.Scan(&rec.BloodBankID, &bt, &rec.Units, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.BloodType, _ = model.ParseBloodType(bt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UseUnits drains units from a (bank, blood type) bucket for usage or
// expiry recorded by bank staff.  The units >= ? guard makes the
// check-and-decrement one atomic statement, so the counter can never be
// driven negative; draining more than the bucket holds returns
// ErrConflict.
func (r *InventoryRepo) UseUnits(ctx context.Context, bankID uint64, bloodType model.BloodType, units uint32) error {
	if !bloodType.Known() {
		return fmt.Errorf("%w: usage requires a concrete blood type", ErrConflict)
	}
	if units == 0 {
		return nil
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE blood_inventory SET units = units - ?
		 WHERE blood_bank_id = ? AND blood_type = ? AND units >= ?`,
		units, bankID, bloodType.String(), units)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: insufficient units of %s at bank %d", ErrConflict, bloodType, bankID)
	}
	return nil
}
