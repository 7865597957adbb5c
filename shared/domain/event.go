package domain

import (
	"time"
)

// ChatWindow is how long after an event ends its conversations stay writable.
const ChatWindow = 48 * time.Hour

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelAny          Level = "any"
)

// Venue is where the session takes place.
type Venue struct {
	Prefecture   string `validate:"required,max=50"`
	Municipality string `validate:"required,max=50"`
	Name         string `validate:"max=100"`
	Address      string `validate:"max=200"`
}

// EventFields are the organizer-editable attributes of an event.
// Lengths are in runes.
type EventFields struct {
	Title               string      `validate:"required,max=100"`
	StartAt             time.Time   `validate:"required"`
	EndAt               time.Time   `validate:"required,gtfield=StartAt"`
	Venue               Venue       `validate:"required"`
	Capacity            int         `validate:"min=1,max=1000"`
	Fee                 int         `validate:"min=0,max=100000"`
	Level               Level       `validate:"oneof=beginner intermediate advanced any"`
	Category            string      `validate:"max=50"`
	Description         string      `validate:"max=2000"`
	Rules               string      `validate:"max=2000"`
	Equipment           string      `validate:"max=2000"`
	Notes               string      `validate:"max=2000"`
	DeadlineHoursBefore *int        `validate:"omitempty,min=1,max=72"`
	Status              EventStatus `validate:"omitempty,oneof=draft published cancelled"` // empty on update keeps the current status
}

type Event struct {
	EventFields
	Id          EventId
	OrganizerId UserId
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventWithCounts carries the derived capacity ledger figures.
type EventWithCounts struct {
	Event
	ApprovedCount int
	PendingCount  int
}

// ChatExpiresAt is the instant after which no message may be sent.
func (e *Event) ChatExpiresAt() time.Time {
	return e.EndAt.Add(ChatWindow)
}

// ChatOpen reports whether messages can still be sent at now.
// The window is inclusive of its last instant.
func (e *Event) ChatOpen(now time.Time) bool {
	return !now.After(e.ChatExpiresAt())
}

// ApplicationDeadline returns start minus DeadlineHoursBefore, if a deadline is set.
func (e *Event) ApplicationDeadline() (time.Time, bool) {
	if e.DeadlineHoursBefore == nil {
		return time.Time{}, false
	}
	return e.StartAt.Add(-time.Duration(*e.DeadlineHoursBefore) * time.Hour), true
}

// AcceptsApplicationsAt reports whether the deadline (or, without one, the start) has not passed.
func (e *Event) AcceptsApplicationsAt(now time.Time) bool {
	if deadline, ok := e.ApplicationDeadline(); ok {
		return !now.After(deadline)
	}
	return now.Before(e.StartAt)
}

func (e *Event) Started(now time.Time) bool {
	return !now.Before(e.StartAt)
}

// CapacityState is one event's capacity ledger, read at a single instant.
type CapacityState struct {
	Capacity  int
	Approved  int
	Pending   int
	Remaining int
}

func (e EventWithCounts) CapacityState() CapacityState {
	return CapacityState{
		Capacity:  e.Capacity,
		Approved:  e.ApprovedCount,
		Pending:   e.PendingCount,
		Remaining: RemainingSlots(e.Capacity, e.ApprovedCount),
	}
}

// RemainingSlots is max(0, capacity - approved).
func RemainingSlots(capacity, approved int) int {
	if approved >= capacity {
		return 0
	}
	return capacity - approved
}

// EventSummary is the minimal view joined onto a user's applications.
type EventSummary struct {
	Id          EventId
	OrganizerId UserId
	Title       string
	StartAt     time.Time
	EndAt       time.Time
	Status      EventStatus
	Venue       Venue
}
