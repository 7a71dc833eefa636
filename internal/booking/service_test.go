package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/blood-donation-platform/internal/eligibility"
	"github.com/iliyamo/blood-donation-platform/internal/model"
)

const (
	testSessionID uint64 = 1
	testDonorID   uint64 = 7
	testBankID    uint64 = 3
)

func testDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newTestService builds a service over a fresh memStore seeded with one
// scheduled session (slots 10:00 and 11:00, capacity 1), one untyped
// donor and one blood bank.
func newTestService(t *testing.T) (*Service, *memStore, *recordingNotifier, *recordingAudit) {
	t.Helper()
	store := newMemStore()
	day := testDay(2026, time.September, 10)
	store.addSession(model.CampaignSession{
		ID:           testSessionID,
		CampaignID:   1,
		SessionDate:  day,
		StartsAt:     day.Add(10 * time.Hour),
		EndsAt:       day.Add(12 * time.Hour),
		SlotCapacity: 1,
		Status:       model.SessionScheduled,
	}, "10:00", "11:00")
	store.donors[testDonorID] = DonorSnapshot{
		DonorID:   testDonorID,
		FullName:  "Ada Donor",
		Email:     "ada@example.com",
		Phone:     "+355690000001",
		BloodType: model.BloodUnknown,
	}
	store.banks[testBankID] = true

	notifier := &recordingNotifier{}
	audit := &recordingAudit{}
	svc := NewService(store, Config{Rules: eligibility.NewRules(56)}, notifier, audit)
	return svc, store, notifier, audit
}

func bookReq(slot string) BookRequest {
	return BookRequest{
		DonorID:   testDonorID,
		SessionID: testSessionID,
		SlotTime:  slot,
		BloodType: model.BloodUnknown,
	}
}

func TestBook_Success(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)

	assert.NotZero(t, res.ID)
	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Equal(t, "Ada Donor", res.DonorName)
	assert.Equal(t, "ada@example.com", res.DonorEmail)
	assert.Equal(t, "+355690000001", res.DonorPhone)
	assert.Equal(t, model.BloodUnknown, res.BloodType)
	assert.Equal(t, uint32(1), store.slots[slotKey(testSessionID, "10:00")].Booked)
}

func TestBook_SessionNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	req := bookReq("10:00")
	req.SessionID = 99
	_, err := svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBook_SessionNotScheduled(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	sess := store.sessions[testSessionID]
	sess.Status = model.SessionCancelled
	store.sessions[testSessionID] = sess

	_, err := svc.Book(context.Background(), bookReq("10:00"))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestBook_EligibilityNotMet(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	next := testDay(2026, time.October, 1) // after the session date
	donor := store.donors[testDonorID]
	donor.NextEligibleDate = &next
	store.donors[testDonorID] = donor

	_, err := svc.Book(context.Background(), bookReq("10:00"))
	require.ErrorIs(t, err, ErrEligibilityNotMet)

	var elig *EligibilityError
	require.ErrorAs(t, err, &elig)
	assert.Equal(t, next, elig.NextEligible)
}

func TestBook_EligibleOnSessionDate(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	next := testDay(2026, time.September, 10) // exactly the session date
	donor := store.donors[testDonorID]
	donor.NextEligibleDate = &next
	store.donors[testDonorID] = donor

	_, err := svc.Book(context.Background(), bookReq("10:00"))
	assert.NoError(t, err)
}

func TestBook_DuplicateActiveReservation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)

	// Second booking in the same session window, even a different slot.
	_, err = svc.Book(context.Background(), bookReq("11:00"))
	assert.ErrorIs(t, err, ErrDuplicateActiveReservation)
}

func TestBook_OverlappingSessions(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	day := testDay(2026, time.September, 10)
	store.addSession(model.CampaignSession{
		ID:           2,
		CampaignID:   1,
		SessionDate:  day,
		StartsAt:     day.Add(11 * time.Hour), // overlaps 10:00-12:00
		EndsAt:       day.Add(13 * time.Hour),
		SlotCapacity: 1,
		Status:       model.SessionScheduled,
	}, "11:30")

	_, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)

	req := BookRequest{DonorID: testDonorID, SessionID: 2, SlotTime: "11:30", BloodType: model.BloodUnknown}
	_, err = svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrDuplicateActiveReservation)
}

func TestBook_CancelledReservationDoesNotBlockRebooking(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), res.ID, "donor:7")
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), bookReq("10:00"))
	assert.NoError(t, err)
}

func TestBook_SlotUnavailable(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	store.donors[8] = DonorSnapshot{DonorID: 8, FullName: "Bob", Email: "bob@example.com"}

	_, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)

	req := BookRequest{DonorID: 8, SessionID: testSessionID, SlotTime: "10:00", BloodType: model.BloodOPos}
	_, err = svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBook_UnknownSlot(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Book(context.Background(), bookReq("23:45"))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBook_ConcurrentLastSlot(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	const racers = 16
	for i := uint64(0); i < racers; i++ {
		store.donors[100+i] = DonorSnapshot{DonorID: 100 + i, FullName: "Racer", Email: "r@example.com"}
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failed    int
	)
	for i := uint64(0); i < racers; i++ {
		wg.Add(1)
		go func(donorID uint64) {
			defer wg.Done()
			req := BookRequest{DonorID: donorID, SessionID: testSessionID, SlotTime: "10:00", BloodType: model.BloodUnknown}
			_, err := svc.Book(context.Background(), req)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, ErrSlotUnavailable)
				failed++
			}
		}(100 + i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, racers-1, failed)
	assert.Equal(t, uint32(1), store.slots[slotKey(testSessionID, "10:00")].Booked)
}

func TestConfirm_FromPending(t *testing.T) {
	svc, store, notifier, audit := newTestService(t)
	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), res.ID, "staff:1")
	require.NoError(t, err)

	assert.Equal(t, model.ReservationConfirmed, confirmed.Status)
	assert.Equal(t, model.ReservationConfirmed, store.reservations[res.ID].Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, model.ReservationConfirmed, notifier.events[0].NewStatus)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "reservation.confirm", audit.entries[0].Action)
	assert.Equal(t, "staff:1", audit.entries[0].Actor)
}

func TestConfirm_Idempotent(t *testing.T) {
	svc, _, notifier, audit := newTestService(t)
	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), res.ID, "staff:1")
	require.NoError(t, err)
	again, err := svc.Confirm(context.Background(), res.ID, "staff:1")
	require.NoError(t, err)

	assert.Equal(t, model.ReservationConfirmed, again.Status)
	// The retried confirmation must not re-emit events.
	assert.Len(t, notifier.events, 1)
	assert.Len(t, audit.entries, 1)
}

func TestConfirm_Terminal(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), res.ID, "donor:7")
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), res.ID, "staff:1")
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestConfirm_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Confirm(context.Background(), 424242, "staff:1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel_ReleasesSlot(t *testing.T) {
	svc, store, notifier, _ := newTestService(t)
	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)
	require.Equal(t, uint32(1), store.slots[slotKey(testSessionID, "10:00")].Booked)

	cancelled, err := svc.Cancel(context.Background(), res.ID, "donor:7")
	require.NoError(t, err)

	assert.Equal(t, model.ReservationCancelled, cancelled.Status)
	assert.Equal(t, uint32(0), store.slots[slotKey(testSessionID, "10:00")].Booked)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, model.ReservationCancelled, notifier.events[0].NewStatus)
}

func TestCancel_FromConfirmed(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), res.ID, "staff:1")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), res.ID, "staff:1")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), store.slots[slotKey(testSessionID, "10:00")].Booked)
}

func TestCancel_AlreadyTerminal(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), res.ID, "donor:7")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), res.ID, "donor:7")
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}

func TestCancelSession_Cascade(t *testing.T) {
	svc, store, notifier, audit := newTestService(t)
	store.donors[8] = DonorSnapshot{DonorID: 8, FullName: "Bob", Email: "bob@example.com"}

	first, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), first.ID, "staff:1")
	require.NoError(t, err)
	second, err := svc.Book(context.Background(), BookRequest{
		DonorID: 8, SessionID: testSessionID, SlotTime: "11:00", BloodType: model.BloodAPos,
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelSession(context.Background(), testSessionID, "staff:1")
	require.NoError(t, err)

	assert.Len(t, cancelled, 2)
	assert.Equal(t, model.SessionCancelled, store.sessions[testSessionID].Status)
	assert.Equal(t, model.ReservationCancelled, store.reservations[first.ID].Status)
	assert.Equal(t, model.ReservationCancelled, store.reservations[second.ID].Status)
	assert.Equal(t, uint32(0), store.slots[slotKey(testSessionID, "10:00")].Booked)
	assert.Equal(t, uint32(0), store.slots[slotKey(testSessionID, "11:00")].Booked)

	// One notification per cascaded reservation, plus per-reservation
	// audit entries and one for the session itself.
	assert.Len(t, notifier.events, 1+2) // confirm + two cascade cancels
	var sessionEntries, reservationCancels int
	for _, e := range audit.entries {
		switch e.Action {
		case "session.cancel":
			sessionEntries++
		case "reservation.cancel":
			reservationCancels++
		}
	}
	assert.Equal(t, 1, sessionEntries)
	assert.Equal(t, 2, reservationCancels)
}

func TestCancelSession_AllOrNothing(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	res, err := svc.Book(context.Background(), bookReq("10:00"))
	require.NoError(t, err)

	store.failOn["MarkSessionCancelled"] = assert.AnError
	_, err = svc.CancelSession(context.Background(), testSessionID, "staff:1")
	require.Error(t, err)

	// The failed cascade must leave the pre-state intact.
	assert.Equal(t, model.SessionScheduled, store.sessions[testSessionID].Status)
	assert.Equal(t, model.ReservationPending, store.reservations[res.ID].Status)
	assert.Equal(t, uint32(1), store.slots[slotKey(testSessionID, "10:00")].Booked)
}

func TestCancelSession_AlreadyCancelled(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.CancelSession(context.Background(), testSessionID, "staff:1")
	require.NoError(t, err)

	_, err = svc.CancelSession(context.Background(), testSessionID, "staff:1")
	assert.ErrorIs(t, err, ErrAlreadyTerminal)
}
