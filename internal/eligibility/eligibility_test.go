package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextEligibleDate_StandardDeferral(t *testing.T) {
	rules := NewRules(56)

	next := rules.NextEligibleDate(date(2026, time.January, 1), Donor{})
	assert.Equal(t, date(2026, time.February, 26), next)
	assert.True(t, next.After(date(2026, time.January, 1)))
}

func TestNextEligibleDate_Deterministic(t *testing.T) {
	rules := NewRules(56)
	last := time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)

	first := rules.NextEligibleDate(last, Donor{Sex: "F"})
	second := rules.NextEligibleDate(last, Donor{Sex: "F"})
	assert.Equal(t, first, second)
}

func TestNextEligibleDate_TruncatesToMidnightUTC(t *testing.T) {
	rules := NewRules(56)
	last := time.Date(2026, time.January, 1, 23, 59, 59, 0, time.UTC)

	next := rules.NextEligibleDate(last, Donor{})
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.Equal(t, time.UTC, next.Location())
}

func TestNextEligibleDate_ConfiguredInterval(t *testing.T) {
	rules := NewRules(90)

	next := rules.NextEligibleDate(date(2026, time.January, 1), Donor{})
	assert.Equal(t, date(2026, time.April, 1), next)
}

func TestNextEligibleDate_InvalidConfigFallsBack(t *testing.T) {
	assert.Equal(t, NewRules(56), NewRules(0))
	assert.Equal(t, NewRules(56), NewRules(-3))
}

func TestNextEligibleDate_MedicalDeferralDoubles(t *testing.T) {
	rules := NewRules(56)

	standard := rules.NextEligibleDate(date(2026, time.January, 1), Donor{})
	extended := rules.NextEligibleDate(date(2026, time.January, 1), Donor{MedicalDeferral: true})
	assert.Equal(t, standard.AddDate(0, 0, 56), extended)
}

func TestNextEligibleDate_ExplicitExtendedInterval(t *testing.T) {
	rules := Rules{
		Deferral:         56 * 24 * time.Hour,
		ExtendedDeferral: 112 * 24 * time.Hour,
	}

	next := rules.NextEligibleDate(date(2026, time.January, 1), Donor{MedicalDeferral: true})
	assert.Equal(t, date(2026, time.January, 1).Add(112*24*time.Hour), next)
}

func TestEligibleOn_FirstTimeDonor(t *testing.T) {
	rules := NewRules(56)
	assert.True(t, rules.EligibleOn(date(2026, time.January, 1), nil, Donor{}))
}

func TestEligibleOn_BeforeAndAfterBoundary(t *testing.T) {
	rules := NewRules(56)
	last := date(2026, time.January, 1)

	assert.False(t, rules.EligibleOn(date(2026, time.February, 25), &last, Donor{}))
	assert.True(t, rules.EligibleOn(date(2026, time.February, 26), &last, Donor{}))
	assert.True(t, rules.EligibleOn(date(2026, time.March, 1), &last, Donor{}))
}
