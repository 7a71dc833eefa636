package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/blood-donation-platform/internal/model"
	"github.com/iliyamo/blood-donation-platform/internal/utils"
)

// UserRepo persists application accounts and donor profiles.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// DonorRegistration carries the profile captured when a donor signs up.
type DonorRegistration struct {
	FullName  string
	Phone     string
	BloodType model.BloodType
	Sex       string
}

// Create inserts a user and, for donors, the accompanying profile row.
// Both inserts run in one transaction so an account can never exist
// without its profile.  Returns the new user ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int, donor *DonorRegistration) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		_ = tx.Rollback()
		// 1062 is the MySQL duplicate-key error.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if role == model.RoleDonor && donor != nil {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO donor_profiles (user_id, full_name, phone, blood_type, sex) VALUES (?,?,?,?,?)",
			uint64(id), donor.FullName, donor.Phone, donor.BloodType.String(), donor.Sex)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetDonorProfile fetches the donor profile belonging to a user.
func (r *UserRepo) GetDonorProfile(ctx context.Context, userID uint64) (model.DonorProfile, error) {
	const q = `SELECT user_id, full_name, phone, blood_type, sex, medical_deferral,
		last_donation_date, next_eligible_date, created_at, updated_at
		FROM donor_profiles WHERE user_id=? LIMIT 1`
	var (
		p         model.DonorProfile
		bloodType string
		last      sql.NullTime
		next      sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, q, userID).Scan(
		&p.UserID, &p.FullName, &p.Phone, &bloodType, &p.Sex, &p.MedicalDeferral,
		&last, &next, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.DonorProfile{}, err
	}
	p.BloodType, _ = model.ParseBloodType(bloodType)
	if last.Valid {
		v := last.Time
		p.LastDonationDate = &v
	}
	if next.Valid {
		v := next.Time
		p.NextEligibleDate = &v
	}
	return p, nil
}

// SetMedicalDeferral flips the extended-deferral flag on a donor
// profile.  Used by screening staff.
func (r *UserRepo) SetMedicalDeferral(ctx context.Context, userID uint64, deferred bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE donor_profiles SET medical_deferral=? WHERE user_id=?", deferred, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
