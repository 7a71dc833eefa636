package model

import "strings"

// BloodType is a closed enumeration of the ABO/Rh groups handled by the
// platform.  UNKNOWN is a legitimate input variant: donors may book a
// session before their group has ever been typed.  Inventory bucket
// selection must branch on it explicitly, so it is modelled as a value
// of the enumeration rather than a nullable field.
type BloodType string

const (
	BloodAPos    BloodType = "A+"
	BloodANeg    BloodType = "A-"
	BloodBPos    BloodType = "B+"
	BloodBNeg    BloodType = "B-"
	BloodABPos   BloodType = "AB+"
	BloodABNeg   BloodType = "AB-"
	BloodOPos    BloodType = "O+"
	BloodONeg    BloodType = "O-"
	BloodUnknown BloodType = "UNKNOWN"
)

// bloodTypes is the set of valid enumeration values keyed by their
// canonical string form.
var bloodTypes = map[BloodType]bool{
	BloodAPos: true, BloodANeg: true,
	BloodBPos: true, BloodBNeg: true,
	BloodABPos: true, BloodABNeg: true,
	BloodOPos: true, BloodONeg: true,
	BloodUnknown: true,
}

// ParseBloodType normalizes a raw string into a BloodType.  Empty input
// maps to UNKNOWN.  The second return value reports whether the input
// was a member of the enumeration.
func ParseBloodType(s string) (BloodType, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return BloodUnknown, true
	}
	bt := BloodType(s)
	if !bloodTypes[bt] {
		return BloodUnknown, false
	}
	return bt, true
}

// Known reports whether the blood type identifies a concrete inventory
// bucket.  UNKNOWN reservations need a screened type supplied at
// donation completion before inventory can be credited.
func (b BloodType) Known() bool {
	return bloodTypes[b] && b != BloodUnknown
}

// String returns the canonical string form stored in the database.
func (b BloodType) String() string { return string(b) }
