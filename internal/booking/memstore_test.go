package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/blood-donation-platform/internal/model"
)

// memStore is an in-memory Store with the same atomicity contract as
// the MySQL implementation: Transact serializes callers and rolls every
// mutation back when fn fails.  failOn injects storage faults per
// method name for rollback tests.
type memStore struct {
	mu sync.Mutex

	sessions     map[uint64]model.CampaignSession
	slots        map[string]model.SessionSlot
	reservations map[uint64]model.Reservation
	donors       map[uint64]DonorSnapshot
	banks        map[uint64]bool
	donations    map[uint64]model.Donation
	inventory    map[string]uint32

	nextID uint64
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		sessions:     map[uint64]model.CampaignSession{},
		slots:        map[string]model.SessionSlot{},
		reservations: map[uint64]model.Reservation{},
		donors:       map[uint64]DonorSnapshot{},
		banks:        map[uint64]bool{},
		donations:    map[uint64]model.Donation{},
		inventory:    map[string]uint32{},
		failOn:       map[string]error{},
	}
}

func slotKey(sessionID uint64, slot string) string {
	return fmt.Sprintf("%d/%s", sessionID, slot)
}

func invKey(bankID uint64, bt model.BloodType) string {
	return fmt.Sprintf("%d/%s", bankID, bt)
}

func (s *memStore) addSession(sess model.CampaignSession, slotTimes ...string) {
	s.sessions[sess.ID] = sess
	for _, st := range slotTimes {
		s.slots[slotKey(sess.ID, st)] = model.SessionSlot{
			SessionID: sess.ID,
			SlotTime:  st,
			Capacity:  sess.SlotCapacity,
		}
	}
}

type memSnapshot struct {
	sessions     map[uint64]model.CampaignSession
	slots        map[string]model.SessionSlot
	reservations map[uint64]model.Reservation
	donors       map[uint64]DonorSnapshot
	donations    map[uint64]model.Donation
	inventory    map[string]uint32
	nextID       uint64
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		sessions:     copyMap(s.sessions),
		slots:        copyMap(s.slots),
		reservations: copyMap(s.reservations),
		donors:       copyMap(s.donors),
		donations:    copyMap(s.donations),
		inventory:    copyMap(s.inventory),
		nextID:       s.nextID,
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.sessions = snap.sessions
	s.slots = snap.slots
	s.reservations = snap.reservations
	s.donors = snap.donors
	s.donations = snap.donations
	s.inventory = snap.inventory
	s.nextID = snap.nextID
}

// Transact holds the store lock for the whole transaction, which gives
// the serialized single-writer semantics the SQL store provides with
// row locks.
func (s *memStore) Transact(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) fail(op string) error { return s.failOn[op] }

func (s *memStore) SessionForUpdate(ctx context.Context, sessionID uint64) (model.CampaignSession, error) {
	if err := s.fail("SessionForUpdate"); err != nil {
		return model.CampaignSession{}, err
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return model.CampaignSession{}, ErrNotFound
	}
	return sess, nil
}

func (s *memStore) ReservationForUpdate(ctx context.Context, reservationID uint64) (model.Reservation, error) {
	if err := s.fail("ReservationForUpdate"); err != nil {
		return model.Reservation{}, err
	}
	res, ok := s.reservations[reservationID]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	return res, nil
}

func (s *memStore) DonorSnapshot(ctx context.Context, donorID uint64) (DonorSnapshot, error) {
	if err := s.fail("DonorSnapshot"); err != nil {
		return DonorSnapshot{}, err
	}
	d, ok := s.donors[donorID]
	if !ok {
		return DonorSnapshot{}, ErrNotFound
	}
	return d, nil
}

func (s *memStore) BankExists(ctx context.Context, bankID uint64) (bool, error) {
	if err := s.fail("BankExists"); err != nil {
		return false, err
	}
	return s.banks[bankID], nil
}

func (s *memStore) HasOverlappingActive(ctx context.Context, donorID uint64, date, startsAt, endsAt time.Time) (bool, error) {
	if err := s.fail("HasOverlappingActive"); err != nil {
		return false, err
	}
	for _, res := range s.reservations {
		if res.DonorID != donorID || !res.Active() {
			continue
		}
		if !res.SessionDate.Equal(date) {
			continue
		}
		sess, ok := s.sessions[res.SessionID]
		if !ok {
			continue
		}
		if sess.StartsAt.Before(endsAt) && startsAt.Before(sess.EndsAt) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) AdmitSlot(ctx context.Context, sessionID uint64, slotTime string) error {
	if err := s.fail("AdmitSlot"); err != nil {
		return err
	}
	key := slotKey(sessionID, slotTime)
	slot, ok := s.slots[key]
	if !ok || slot.Booked >= slot.Capacity {
		return ErrSlotUnavailable
	}
	slot.Booked++
	s.slots[key] = slot
	return nil
}

func (s *memStore) ReleaseSlot(ctx context.Context, sessionID uint64, slotTime string) error {
	if err := s.fail("ReleaseSlot"); err != nil {
		return err
	}
	key := slotKey(sessionID, slotTime)
	slot, ok := s.slots[key]
	if !ok {
		return nil
	}
	if slot.Booked > 0 {
		slot.Booked--
	}
	s.slots[key] = slot
	return nil
}

func (s *memStore) InsertReservation(ctx context.Context, res *model.Reservation) error {
	if err := s.fail("InsertReservation"); err != nil {
		return err
	}
	s.nextID++
	res.ID = s.nextID
	s.reservations[res.ID] = *res
	return nil
}

func (s *memStore) UpdateReservationStatus(ctx context.Context, reservationID uint64, status string) error {
	if err := s.fail("UpdateReservationStatus"); err != nil {
		return err
	}
	res, ok := s.reservations[reservationID]
	if !ok {
		return ErrNotFound
	}
	res.Status = status
	s.reservations[reservationID] = res
	return nil
}

func (s *memStore) ActiveBySession(ctx context.Context, sessionID uint64) ([]model.Reservation, error) {
	if err := s.fail("ActiveBySession"); err != nil {
		return nil, err
	}
	var out []model.Reservation
	for _, res := range s.reservations {
		if res.SessionID == sessionID && res.Active() {
			out = append(out, res)
		}
	}
	return out, nil
}

func (s *memStore) MarkSessionCancelled(ctx context.Context, sessionID uint64) error {
	if err := s.fail("MarkSessionCancelled"); err != nil {
		return err
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	sess.Status = model.SessionCancelled
	s.sessions[sessionID] = sess
	return nil
}

func (s *memStore) InsertDonation(ctx context.Context, d *model.Donation) error {
	if err := s.fail("InsertDonation"); err != nil {
		return err
	}
	s.nextID++
	d.ID = s.nextID
	s.donations[d.ID] = *d
	return nil
}

func (s *memStore) MarkDonationCompleted(ctx context.Context, reservationID uint64, completedAt time.Time, nextEligible *time.Time) error {
	if err := s.fail("MarkDonationCompleted"); err != nil {
		return err
	}
	res, ok := s.reservations[reservationID]
	if !ok {
		return ErrNotFound
	}
	res.DonationCompleted = true
	res.DonationCompletedDate = &completedAt
	res.NextEligibleDate = nextEligible
	s.reservations[reservationID] = res
	return nil
}

func (s *memStore) AddInventoryUnits(ctx context.Context, bankID uint64, bloodType model.BloodType, units uint32) error {
	if err := s.fail("AddInventoryUnits"); err != nil {
		return err
	}
	s.inventory[invKey(bankID, bloodType)] += units
	return nil
}

func (s *memStore) UpdateDonorAfterDonation(ctx context.Context, donorID uint64, donatedAt, nextEligible time.Time, bloodType model.BloodType) error {
	if err := s.fail("UpdateDonorAfterDonation"); err != nil {
		return err
	}
	d, ok := s.donors[donorID]
	if !ok {
		return ErrNotFound
	}
	d.LastDonationDate = &donatedAt
	d.NextEligibleDate = &nextEligible
	d.BloodType = bloodType
	s.donors[donorID] = d
	return nil
}

// recordingNotifier captures fire-and-forget status events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []StatusEvent
}

func (n *recordingNotifier) ReservationStatusChanged(ctx context.Context, ev StatusEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

// recordingAudit captures audit entries.
type recordingAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *recordingAudit) Record(ctx context.Context, e AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}
