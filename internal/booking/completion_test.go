package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/blood-donation-platform/internal/model"
)

// confirmedReservation books and confirms a reservation for the seeded
// donor, returning its identifier.
func confirmedReservation(t *testing.T, svc *Service, bloodType model.BloodType) uint64 {
	t.Helper()
	res, err := svc.Book(context.Background(), BookRequest{
		DonorID:   testDonorID,
		SessionID: testSessionID,
		SlotTime:  "10:00",
		BloodType: bloodType,
	})
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), res.ID, "staff:1")
	require.NoError(t, err)
	return res.ID
}

func TestCompleteDonation_Success(t *testing.T) {
	svc, store, notifier, _ := newTestService(t)
	fixed := time.Date(2026, time.September, 10, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	resID := confirmedReservation(t, svc, model.BloodOPos)

	donation, err := svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID:   resID,
		BloodBankID:     testBankID,
		VolumeMl:        450,
		ScreeningPassed: true,
		Actor:           "staff:1",
	})
	require.NoError(t, err)

	assert.Equal(t, model.DonationCompleted, donation.Status)
	assert.Equal(t, model.BloodOPos, donation.BloodType)
	assert.Equal(t, uint32(1), donation.Units)
	assert.Equal(t, uint32(1), store.inventory[invKey(testBankID, model.BloodOPos)])

	res := store.reservations[resID]
	assert.True(t, res.DonationCompleted)
	require.NotNil(t, res.DonationCompletedDate)
	assert.Equal(t, fixed, *res.DonationCompletedDate)
	require.NotNil(t, res.NextEligibleDate)
	assert.Equal(t, testDay(2026, time.November, 5), *res.NextEligibleDate) // +56 days

	donor := store.donors[testDonorID]
	require.NotNil(t, donor.NextEligibleDate)
	assert.Equal(t, *res.NextEligibleDate, *donor.NextEligibleDate)
	assert.Equal(t, model.BloodOPos, donor.BloodType)

	require.NotEmpty(t, notifier.events)
	assert.Equal(t, "DONATION_COMPLETED", notifier.events[len(notifier.events)-1].NewStatus)
}

func TestCompleteDonation_ScreeningFailed(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	resID := confirmedReservation(t, svc, model.BloodUnknown)

	donation, err := svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID:   resID,
		BloodBankID:     testBankID,
		ScreeningPassed: false,
		ScreeningNotes:  "low hemoglobin",
		Actor:           "staff:1",
	})
	require.NoError(t, err)

	assert.Equal(t, model.DonationCancelled, donation.Status)
	assert.Equal(t, uint32(0), donation.Units)
	// The rejection path never touches inventory.
	assert.Empty(t, store.inventory)

	// The reservation is consumed but eligibility is unchanged.
	res := store.reservations[resID]
	assert.True(t, res.DonationCompleted)
	assert.Nil(t, res.NextEligibleDate)
	assert.Nil(t, store.donors[testDonorID].NextEligibleDate)
}

func TestCompleteDonation_PendingReservation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)

	_, err = svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID: res.ID, BloodBankID: testBankID, ScreeningPassed: true, ScreenedType: model.BloodAPos,
	})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteDonation_CancelledReservation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), res.ID, "donor:7")
	require.NoError(t, err)

	_, err = svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID: res.ID, BloodBankID: testBankID, ScreeningPassed: true, ScreenedType: model.BloodAPos,
	})
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestCompleteDonation_NeverTwice(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	resID := confirmedReservation(t, svc, model.BloodBNeg)

	_, err := svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID: resID, BloodBankID: testBankID, VolumeMl: 450, ScreeningPassed: true, Actor: "staff:1",
	})
	require.NoError(t, err)

	_, err = svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID: resID, BloodBankID: testBankID, VolumeMl: 450, ScreeningPassed: true, Actor: "staff:1",
	})
	assert.ErrorIs(t, err, ErrInvalidState)
	// Inventory must be credited exactly once.
	assert.Equal(t, uint32(1), store.inventory[invKey(testBankID, model.BloodBNeg)])
}

func TestCompleteDonation_UnknownBank(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	resID := confirmedReservation(t, svc, model.BloodOPos)

	_, err := svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID: resID, BloodBankID: 999, VolumeMl: 450, ScreeningPassed: true,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteDonation_UnknownReservation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID: 5555, BloodBankID: testBankID, ScreeningPassed: true,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteDonation_BloodTypeRequired(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	resID := confirmedReservation(t, svc, model.BloodUnknown)

	_, err := svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID: resID, BloodBankID: testBankID, VolumeMl: 450, ScreeningPassed: true,
	})
	require.ErrorIs(t, err, ErrBloodTypeRequired)

	// The failed attempt must not consume the reservation.
	res := store.reservations[resID]
	assert.False(t, res.DonationCompleted)
	assert.Equal(t, model.ReservationConfirmed, res.Status)
	assert.Empty(t, store.inventory)
}

func TestCompleteDonation_ScreenedTypeResolvesUnknown(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	resID := confirmedReservation(t, svc, model.BloodUnknown)

	donation, err := svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID:   resID,
		BloodBankID:     testBankID,
		VolumeMl:        450,
		ScreeningPassed: true,
		ScreenedType:    model.BloodABNeg,
	})
	require.NoError(t, err)

	assert.Equal(t, model.BloodABNeg, donation.BloodType)
	assert.Equal(t, uint32(1), store.inventory[invKey(testBankID, model.BloodABNeg)])
}

func TestCompleteDonation_VolumeMapping(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	resID := confirmedReservation(t, svc, model.BloodONeg)

	donation, err := svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID: resID, BloodBankID: testBankID, VolumeMl: 900, ScreeningPassed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), donation.Units)
	assert.Equal(t, uint32(2), store.inventory[invKey(testBankID, model.BloodONeg)])
}

func TestCompleteDonation_SmallVolumeStillOneUnit(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	assert.Equal(t, uint32(1), svc.volumeToUnits(200))
	assert.Equal(t, uint32(1), svc.volumeToUnits(0))
	assert.Equal(t, uint32(1), svc.volumeToUnits(449))
	assert.Equal(t, uint32(2), svc.volumeToUnits(900))
}

func TestCompleteDonation_RollbackOnInventoryFailure(t *testing.T) {
	svc, store, _, audit := newTestService(t)
	resID := confirmedReservation(t, svc, model.BloodOPos)

	store.failOn["AddInventoryUnits"] = assert.AnError
	_, err := svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID: resID, BloodBankID: testBankID, VolumeMl: 450, ScreeningPassed: true, Actor: "staff:1",
	})
	require.ErrorIs(t, err, ErrCompletionFailed)

	// No partial state: no donation row, no inventory, reservation
	// still confirmed and completable.
	assert.Empty(t, store.donations)
	assert.Empty(t, store.inventory)
	res := store.reservations[resID]
	assert.False(t, res.DonationCompleted)
	assert.Equal(t, model.ReservationConfirmed, res.Status)

	// The storage detail is surfaced to the audit collaborator only.
	require.NotEmpty(t, audit.entries)
	last := audit.entries[len(audit.entries)-1]
	assert.Equal(t, "donation.complete", last.Action)
	assert.Contains(t, last.Detail, "rolled back")
}

func TestCompleteDonation_RollbackOnDonorUpdateFailure(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	resID := confirmedReservation(t, svc, model.BloodOPos)

	store.failOn["UpdateDonorAfterDonation"] = assert.AnError
	_, err := svc.CompleteDonation(context.Background(), CompletionRequest{
		ReservationID: resID, BloodBankID: testBankID, VolumeMl: 450, ScreeningPassed: true,
	})
	require.ErrorIs(t, err, ErrCompletionFailed)

	assert.Empty(t, store.donations)
	assert.Equal(t, uint32(0), store.inventory[invKey(testBankID, model.BloodOPos)])
	assert.False(t, store.reservations[resID].DonationCompleted)
}
