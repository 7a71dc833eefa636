package model

import "time"

// Campaign statuses as stored in campaigns.status.
const (
	CampaignActive   = "ACTIVE"
	CampaignArchived = "ARCHIVED"
)

// Session statuses as stored in campaign_sessions.status.
const (
	SessionScheduled = "SCHEDULED"
	SessionCompleted = "COMPLETED"
	SessionCancelled = "CANCELLED"
)

// Campaign represents a donation drive organized by a staff member.  A
// campaign owns zero or more sessions at which donors can book slots.
//
// Fields:
//  ID          – primary key identifier.
//  OrganizerID – staff user who created the campaign.
//  Title       – public name of the campaign.
//  Location    – human-readable venue description.
//  Status      – ACTIVE or ARCHIVED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Campaign struct {
	ID          uint64    // campaigns.id
	OrganizerID uint64    // campaigns.organizer_id
	Title       string    // campaigns.title
	Location    string    // campaigns.location
	Status      string    // campaigns.status
	CreatedAt   time.Time // campaigns.created_at
	UpdatedAt   time.Time // campaigns.updated_at
}

// CampaignSession is a scheduled time window of a campaign during which
// donations take place.  A session defines discrete time slots between
// StartsAt and EndsAt; each slot admits at most SlotCapacity active
// reservations.  Cancelling a session cascade-cancels every pending and
// confirmed reservation under it (the reservation lifetime never exceeds
// the session lifetime).
//
// Fields:
//  ID           – primary key identifier.
//  CampaignID   – owning campaign.
//  SessionDate  – calendar date of the session (midnight UTC).
//  StartsAt     – opening time of the session window.
//  EndsAt       – closing time of the session window.
//  SlotCapacity – parallel reservations admitted per time slot.
//  Status       – SCHEDULED, COMPLETED or CANCELLED.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type CampaignSession struct {
	ID           uint64    // campaign_sessions.id
	CampaignID   uint64    // campaign_sessions.campaign_id
	SessionDate  time.Time // campaign_sessions.session_date
	StartsAt     time.Time // campaign_sessions.starts_at
	EndsAt       time.Time // campaign_sessions.ends_at
	SlotCapacity uint32    // campaign_sessions.slot_capacity
	Status       string    // campaign_sessions.status
	CreatedAt    time.Time // campaign_sessions.created_at
	UpdatedAt    time.Time // campaign_sessions.updated_at
}

// SessionSlot tracks admission for one time slot of a session.  Booked
// is only ever moved by the conditional increment/decrement in the
// repository layer so that two concurrent bookings can never both take
// the last opening.
//
// Fields:
//  SessionID – owning session.
//  SlotTime  – slot label in "15:04" 24h form.
//  Capacity  – maximum simultaneous active reservations.
//  Booked    – currently held count (0 <= Booked <= Capacity).
type SessionSlot struct {
	SessionID uint64 // session_slots.session_id
	SlotTime  string // session_slots.slot_time
	Capacity  uint32 // session_slots.capacity
	Booked    uint32 // session_slots.booked
}
