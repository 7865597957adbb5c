package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/practix/practix/backend/internal/notify"
	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockEventStorage struct {
	EventStorage
	ListPublishedEventsFunc func(ctx context.Context, query domain.EventQuery) ([]domain.EventWithCounts, error)
	CreateEventFunc         func(ctx context.Context, organizerId domain.UserId, fields domain.EventFields) (domain.EventId, error)
}

func (m *MockEventStorage) ListPublishedEvents(ctx context.Context, query domain.EventQuery) ([]domain.EventWithCounts, error) {
	if m.ListPublishedEventsFunc != nil {
		return m.ListPublishedEventsFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockEventStorage) CreateEvent(ctx context.Context, organizerId domain.UserId, fields domain.EventFields) (domain.EventId, error) {
	if m.CreateEventFunc != nil {
		return m.CreateEventFunc(ctx, organizerId, fields)
	}
	return uuid.New(), nil
}

func TestEventCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("sanitizes text and defaults status", func(t *testing.T) {
		var stored domain.EventFields
		storage := &MockEventStorage{CreateEventFunc: func(_ context.Context, _ domain.UserId, f domain.EventFields) (domain.EventId, error) {
			stored = f
			return uuid.New(), nil
		}}
		svc := NewEvent(storage, &recordingNotifier{}, EventConfig{}, nil)

		fields := validFields(5)
		fields.Title = "  <b>Sunday</b> volleyball "
		fields.Description = `<script>alert(1)</script>Bring shoes`
		fields.Status = ""
		_, err := svc.Create(ctx, "org-1", fields)
		require.NoError(t, err)

		assert.Equal(t, "Sunday volleyball", stored.Title)
		assert.Equal(t, "Bring shoes", stored.Description)
		assert.Equal(t, domain.EventPublished, stored.Status)
	})

	tests := []struct {
		name   string
		caller domain.UserId
		mutate func(f *domain.EventFields)
		kind   errors.Kind
	}{
		{"anonymous caller", "", func(f *domain.EventFields) {}, errors.KindAuth},
		{"empty title", "org", func(f *domain.EventFields) { f.Title = "<i></i>" }, errors.KindValidation},
		{"title too long", "org", func(f *domain.EventFields) { f.Title = strings.Repeat("あ", 101) }, errors.KindValidation},
		{"end before start", "org", func(f *domain.EventFields) { f.EndAt = f.StartAt.Add(-time.Hour) }, errors.KindValidation},
		{"end equals start", "org", func(f *domain.EventFields) { f.EndAt = f.StartAt }, errors.KindValidation},
		{"zero capacity", "org", func(f *domain.EventFields) { f.Capacity = 0 }, errors.KindValidation},
		{"negative fee", "org", func(f *domain.EventFields) { f.Fee = -1 }, errors.KindValidation},
		{"unknown level", "org", func(f *domain.EventFields) { f.Level = "pro" }, errors.KindValidation},
		{"deadline out of range", "org", func(f *domain.EventFields) { h := 73; f.DeadlineHoursBefore = &h }, errors.KindValidation},
		{"missing municipality", "org", func(f *domain.EventFields) { f.Venue.Municipality = "" }, errors.KindValidation},
		{"created cancelled", "org", func(f *domain.EventFields) { f.Status = domain.EventCancelled }, errors.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewEvent(&MockEventStorage{}, &recordingNotifier{}, EventConfig{}, nil)
			fields := validFields(5)
			tt.mutate(&fields)
			_, err := svc.Create(ctx, tt.caller, fields)
			assertKind(t, err, tt.kind)
		})
	}

	t.Run("title of exactly 100 runes is accepted", func(t *testing.T) {
		svc := NewEvent(&MockEventStorage{}, &recordingNotifier{}, EventConfig{}, nil)
		fields := validFields(5)
		fields.Title = strings.Repeat("あ", 100)
		_, err := svc.Create(ctx, "org", fields)
		assert.NoError(t, err)
	})
}

func TestEventUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("organizer edits before start", func(t *testing.T) {
		m := newMarket()
		id := m.publish(t, "org", 5)
		fields := validFields(6)
		fields.Title = "Renamed"
		require.NoError(t, m.events.Update(ctx, id, "org", fields))

		event, err := m.events.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", event.Title)
		assert.Equal(t, 6, event.Capacity)
	})

	t.Run("unknown event", func(t *testing.T) {
		m := newMarket()
		assertKind(t, m.events.Update(ctx, uuid.New(), "org", validFields(5)), errors.KindNotFound)
	})

	t.Run("not the organizer", func(t *testing.T) {
		m := newMarket()
		id := m.publish(t, "org", 5)
		assertKind(t, m.events.Update(ctx, id, "intruder", validFields(5)), errors.KindPermission)
	})

	t.Run("after start", func(t *testing.T) {
		m := newMarket()
		id := m.publish(t, "org", 5)
		m.clock.Set(validFields(5).StartAt)
		assertKind(t, m.events.Update(ctx, id, "org", validFields(5)), errors.KindBusinessRule)
	})

	t.Run("capacity below approved count", func(t *testing.T) {
		m := newMarket()
		id := m.publish(t, "org", 3)
		for _, u := range []domain.UserId{"a", "b"} {
			require.NoError(t, m.apps.Approve(ctx, m.apply(t, id, u), "org"))
		}
		assertKind(t, m.events.Update(ctx, id, "org", validFields(1)), errors.KindBusinessRule)
		assert.NoError(t, m.events.Update(ctx, id, "org", validFields(2)))
	})

	t.Run("published cannot return to draft", func(t *testing.T) {
		m := newMarket()
		id := m.publish(t, "org", 3)
		draft := validFields(3)
		draft.Status = domain.EventDraft
		assertKind(t, m.events.Update(ctx, id, "org", draft), errors.KindBusinessRule)
	})

	t.Run("draft can be published", func(t *testing.T) {
		m := newMarket()
		draft := validFields(3)
		draft.Status = domain.EventDraft
		id, err := m.events.Create(ctx, "org", draft)
		require.NoError(t, err)
		assert.NoError(t, m.events.Update(ctx, id, "org", validFields(3)))
	})

	t.Run("omitted status keeps the draft unpublished", func(t *testing.T) {
		m := newMarket()
		draft := validFields(3)
		draft.Status = domain.EventDraft
		id, err := m.events.Create(ctx, "org", draft)
		require.NoError(t, err)

		edit := validFields(4)
		edit.Status = ""
		require.NoError(t, m.events.Update(ctx, id, "org", edit))

		event, err := m.events.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.EventDraft, event.Status)
		assert.Equal(t, 4, event.Capacity)

		_, err = m.apps.Apply(ctx, id, "alice", "")
		assertKind(t, err, errors.KindBusinessRule)
	})

	t.Run("cancelled event cannot be edited", func(t *testing.T) {
		m := newMarket()
		id := m.publish(t, "org", 3)
		require.NoError(t, m.events.Cancel(ctx, id, "org"))
		assertKind(t, m.events.Update(ctx, id, "org", validFields(3)), errors.KindBusinessRule)
	})
}

func TestEventCapacity(t *testing.T) {
	ctx := context.Background()
	m := newMarket()
	id := m.publish(t, "org", 3)
	require.NoError(t, m.apps.Approve(ctx, m.apply(t, id, "a"), "org"))
	m.apply(t, id, "b")

	ledger, err := m.events.Capacity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.CapacityState{Capacity: 3, Approved: 1, Pending: 1, Remaining: 2}, ledger)

	_, err = m.events.Capacity(ctx, uuid.New())
	assertKind(t, err, errors.KindNotFound)
}

func TestEventCancel(t *testing.T) {
	ctx := context.Background()
	m := newMarket()
	id := m.publish(t, "org", 5)
	require.NoError(t, m.apps.Approve(ctx, m.apply(t, id, "a"), "org"))
	require.NoError(t, m.apps.Approve(ctx, m.apply(t, id, "b"), "org"))
	m.apply(t, id, "pending-c")

	assertKind(t, m.events.Cancel(ctx, id, "b"), errors.KindPermission)
	require.NoError(t, m.events.Cancel(ctx, id, "org"))

	cancelled := m.notes.ofType(notify.EventCancelled)
	require.Len(t, cancelled, 2, "one notification per approved applicant")
	recipients := []string{cancelled[0].Payload[notify.RecipientKey], cancelled[1].Payload[notify.RecipientKey]}
	assert.ElementsMatch(t, []string{"a", "b"}, recipients)
	assert.Equal(t, id.String(), cancelled[0].Payload["event_id"])

	event, err := m.events.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCancelled, event.Status)

	assertKind(t, m.events.Cancel(ctx, id, "org"), errors.KindBusinessRule)
	assertKind(t, m.events.Cancel(ctx, uuid.New(), "org"), errors.KindNotFound)
}

func TestEventListPublished_ResolvesFilter(t *testing.T) {
	ctx := context.Background()
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	// Monday 2026-06-01 19:00 JST
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	var got domain.EventQuery
	storage := &MockEventStorage{ListPublishedEventsFunc: func(_ context.Context, q domain.EventQuery) ([]domain.EventWithCounts, error) {
		got = q
		return nil, nil
	}}
	svc := NewEvent(storage, &recordingNotifier{}, EventConfig{Location: tokyo, PerPage: 20}, func() time.Time { return now })

	t.Run("next week bucket in the region time zone", func(t *testing.T) {
		_, err := svc.ListPublished(ctx, domain.EventFilter{Bucket: domain.BucketNextWeek, Municipality: "Kita", Page: 3})
		require.NoError(t, err)
		assert.True(t, got.StartRange.From.Equal(time.Date(2026, 6, 8, 0, 0, 0, 0, tokyo)))
		assert.True(t, got.StartRange.To.Equal(time.Date(2026, 6, 15, 0, 0, 0, 0, tokyo)))
		assert.Equal(t, "Kita", got.Municipality)
		assert.Equal(t, now, got.NotBefore)
		assert.Equal(t, 20, got.Limit)
		assert.Equal(t, 40, got.Offset)
	})

	t.Run("explicit date wins over bucket", func(t *testing.T) {
		date := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
		_, err := svc.ListPublished(ctx, domain.EventFilter{Bucket: domain.BucketToday, Date: &date})
		require.NoError(t, err)
		assert.True(t, got.StartRange.From.Equal(time.Date(2026, 6, 20, 0, 0, 0, 0, tokyo)))
		assert.Equal(t, 0, got.Offset)
	})

	t.Run("unknown bucket", func(t *testing.T) {
		_, err := svc.ListPublished(ctx, domain.EventFilter{Bucket: "someday"})
		assertKind(t, err, errors.KindValidation)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := svc.ListPublished(ctx, domain.EventFilter{Level: "elite"})
		assertKind(t, err, errors.KindValidation)
	})
}

func TestEventListPublished_OnlyUpcoming(t *testing.T) {
	ctx := context.Background()
	m := newMarket()
	upcoming := m.publish(t, "org", 2)
	draft := validFields(2)
	draft.Status = domain.EventDraft
	_, err := m.events.Create(ctx, "org", draft)
	require.NoError(t, err)

	events, err := m.events.ListPublished(ctx, domain.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, upcoming, events[0].Id)

	m.clock.Set(validFields(2).StartAt.Add(time.Minute))
	events, err = m.events.ListPublished(ctx, domain.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)

	organized, err := m.events.ListOrganized(ctx, "org")
	require.NoError(t, err)
	assert.Len(t, organized, 2)
}
