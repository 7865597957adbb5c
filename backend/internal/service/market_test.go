package service

import (
	"context"
	"testing"
	"time"

	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

// market wires every service over one in-memory store.
type market struct {
	store  *memStorage
	notes  *recordingNotifier
	clock  *fixedClock
	events EventService
	apps   ApplicationService
	blocks BlockService
	chat   ChatService
}

func newMarket() *market {
	store := newMemStorage()
	notes := &recordingNotifier{}
	clock := &fixedClock{t: baseNow}
	tokyo, _ := time.LoadLocation("Asia/Tokyo")
	return &market{
		store:  store,
		notes:  notes,
		clock:  clock,
		events: NewEvent(store, notes, EventConfig{Location: tokyo, PerPage: 10}, clock.Now),
		apps:   NewApplication(store, notes, clock.Now),
		blocks: NewBlock(store),
		chat:   NewChat(store, notes, clock.Now),
	}
}

func validFields(capacity int) domain.EventFields {
	start := baseNow.Add(7 * 24 * time.Hour)
	return domain.EventFields{
		Title:    "Sunday volleyball",
		StartAt:  start,
		EndAt:    start.Add(2 * time.Hour),
		Venue:    domain.Venue{Prefecture: "Osaka", Municipality: "Kita"},
		Capacity: capacity,
		Level:    domain.LevelIntermediate,
		Status:   domain.EventPublished,
	}
}

func (m *market) publish(t *testing.T, organizer domain.UserId, capacity int) domain.EventId {
	t.Helper()
	id, err := m.events.Create(context.Background(), organizer, validFields(capacity))
	require.NoError(t, err)
	return id
}

func (m *market) apply(t *testing.T, eventId domain.EventId, applicant domain.UserId) domain.ApplicationId {
	t.Helper()
	id, err := m.apps.Apply(context.Background(), eventId, applicant, "")
	require.NoError(t, err)
	return id
}

func (m *market) approved(t *testing.T, eventId domain.EventId) int {
	t.Helper()
	event, err := m.events.Get(context.Background(), eventId)
	require.NoError(t, err)
	return event.ApprovedCount
}

func assertKind(t *testing.T, err error, kind errors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, errors.KindOf(err), "error: %v", err)
}
