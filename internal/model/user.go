package model

import "time"

// Roles stored in users.role.
const (
	RoleDonor = "DONOR"
	RoleStaff = "STAFF"
)

// User represents an application account as stored in the `users`
// table.  Donors additionally carry a DonorProfile row; staff accounts
// manage campaigns, banks and reservation processing.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – DONOR or STAFF.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// DonorProfile holds the medical-facing attributes of a donor account.
// LastDonationDate and NextEligibleDate are maintained by the donation
// completion flow; MedicalDeferral marks donors whose deferral interval
// is extended by screening staff.
//
// Fields:
//  UserID           – owning user account.
//  FullName         – donor's legal name.
//  Phone            – contact phone number.
//  BloodType        – typed group, UNKNOWN until first screening.
//  Sex              – optional, "F", "M" or empty.
//  MedicalDeferral  – extended-deferral flag set by screening staff.
//  LastDonationDate – date of the most recent completed donation.
//  NextEligibleDate – earliest date the donor may donate again.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type DonorProfile struct {
	UserID           uint64     // donor_profiles.user_id
	FullName         string     // donor_profiles.full_name
	Phone            string     // donor_profiles.phone
	BloodType        BloodType  // donor_profiles.blood_type
	Sex              string     // donor_profiles.sex
	MedicalDeferral  bool       // donor_profiles.medical_deferral
	LastDonationDate *time.Time // donor_profiles.last_donation_date (nullable)
	NextEligibleDate *time.Time // donor_profiles.next_eligible_date (nullable)
	CreatedAt        time.Time  // donor_profiles.created_at
	UpdatedAt        time.Time  // donor_profiles.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the issued token is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
