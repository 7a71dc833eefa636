// Package eligibility computes when a donor may give whole blood again.
// The calculator is pure: the donation date is an explicit argument and
// identical inputs always yield identical output, so callers never need
// a clock to test it.
package eligibility

import "time"

// DefaultDeferralDays is the standard whole-blood deferral between two
// donations.  The value is configuration, not a derived medical rule;
// deployments override it via DEFERRAL_DAYS.
const DefaultDeferralDays = 56

// Donor carries the attributes that influence the deferral interval.
// MedicalDeferral doubles the configured interval; it is set by
// screening staff on the donor profile.
type Donor struct {
	Sex             string
	MedicalDeferral bool
}

// Rules holds the configured deferral intervals.
type Rules struct {
	// Deferral is the minimum interval after a completed donation.
	Deferral time.Duration
	// ExtendedDeferral applies to donors flagged with a medical
	// deferral.  Zero means twice the standard interval.
	ExtendedDeferral time.Duration
}

// NewRules builds Rules from a day count, falling back to the standard
// 56-day interval when days is not positive.
func NewRules(days int) Rules {
	if days <= 0 {
		days = DefaultDeferralDays
	}
	return Rules{Deferral: time.Duration(days) * 24 * time.Hour}
}

// interval selects the deferral applicable to the donor.
func (r Rules) interval(d Donor) time.Duration {
	if d.MedicalDeferral {
		if r.ExtendedDeferral > 0 {
			return r.ExtendedDeferral
		}
		return 2 * r.Deferral
	}
	return r.Deferral
}

// NextEligibleDate returns the earliest date the donor may donate again
// after a donation on lastDonation.  The result is strictly after
// lastDonation by the applicable interval and is truncated to midnight
// UTC, matching how eligibility dates are stored.
func (r Rules) NextEligibleDate(lastDonation time.Time, d Donor) time.Time {
	next := lastDonation.UTC().Add(r.interval(d))
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC)
}

// EligibleOn reports whether a donor with the given last completed
// donation may donate on the given day.  A nil lastDonation means a
// first-time donor, who is always eligible.
func (r Rules) EligibleOn(day time.Time, lastDonation *time.Time, d Donor) bool {
	if lastDonation == nil {
		return true
	}
	next := r.NextEligibleDate(*lastDonation, d)
	return !day.UTC().Before(next)
}
