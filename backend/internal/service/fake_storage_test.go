package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
)

// memStorage is an in-memory stand-in for the pg store. A single mutex plays
// the role of the event row lock, so guards observe the same serialization.
type memStorage struct {
	mu            sync.Mutex
	events        map[domain.EventId]*domain.Event
	apps          map[domain.ApplicationId]*domain.Application
	blocks        map[[2]domain.UserId]time.Time
	conversations map[domain.ConversationId]*domain.Conversation
	messages      []*domain.Message
	clock         time.Time
}

func newMemStorage() *memStorage {
	return &memStorage{
		events:        map[domain.EventId]*domain.Event{},
		apps:          map[domain.ApplicationId]*domain.Application{},
		blocks:        map[[2]domain.UserId]time.Time{},
		conversations: map[domain.ConversationId]*domain.Conversation{},
		clock:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStorage) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStorage) counts(eventId domain.EventId) (approved, pending int) {
	for _, a := range m.apps {
		if a.EventId != eventId {
			continue
		}
		switch a.Status {
		case domain.ApplicationApproved:
			approved++
		case domain.ApplicationPending:
			pending++
		}
	}
	return approved, pending
}

func (m *memStorage) withCounts(e *domain.Event) domain.EventWithCounts {
	approved, pending := m.counts(e.Id)
	return domain.EventWithCounts{Event: *e, ApprovedCount: approved, PendingCount: pending}
}

func (m *memStorage) CreateEvent(_ context.Context, organizerId domain.UserId, fields domain.EventFields) (domain.EventId, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	e := &domain.Event{EventFields: fields, Id: uuid.New(), OrganizerId: organizerId, CreatedAt: now, UpdatedAt: now}
	m.events[e.Id] = e
	return e.Id, nil
}

func (m *memStorage) UpdateEvent(_ context.Context, eventId domain.EventId, fields domain.EventFields, guard domain.EventGuard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventId]
	if !ok {
		return errors.NotFound("Event not found")
	}
	if err := guard(m.withCounts(e)); err != nil {
		return err
	}
	if fields.Status == "" {
		fields.Status = e.Status
	}
	e.EventFields = fields
	e.UpdatedAt = m.tick()
	return nil
}

func (m *memStorage) CancelEvent(_ context.Context, eventId domain.EventId, guard domain.EventGuard) (domain.Event, []domain.UserId, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventId]
	if !ok {
		return domain.Event{}, nil, errors.NotFound("Event not found")
	}
	if err := guard(m.withCounts(e)); err != nil {
		return domain.Event{}, nil, err
	}
	e.Status = domain.EventCancelled
	var approved []domain.UserId
	for _, a := range m.sortedApps(func(a *domain.Application) bool {
		return a.EventId == eventId && a.Status == domain.ApplicationApproved
	}) {
		approved = append(approved, a.ApplicantId)
	}
	return *e, approved, nil
}

func (m *memStorage) Event(_ context.Context, eventId domain.EventId) (domain.EventWithCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventId]
	if !ok {
		return domain.EventWithCounts{}, errors.NotFound("Event not found")
	}
	return m.withCounts(e), nil
}

func (m *memStorage) Capacity(_ context.Context, eventId domain.EventId) (domain.CapacityState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventId]
	if !ok {
		return domain.CapacityState{}, errors.NotFound("Event not found")
	}
	return m.withCounts(e).CapacityState(), nil
}

func (m *memStorage) ListPublishedEvents(_ context.Context, q domain.EventQuery) ([]domain.EventWithCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.EventWithCounts
	for _, e := range m.events {
		if e.Status == domain.EventPublished && !e.StartAt.Before(q.NotBefore) {
			result = append(result, m.withCounts(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartAt.Before(result[j].StartAt) })
	return result, nil
}

func (m *memStorage) ListOrganizedEvents(_ context.Context, organizerId domain.UserId) ([]domain.EventWithCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.EventWithCounts
	for _, e := range m.events {
		if e.OrganizerId == organizerId {
			result = append(result, m.withCounts(e))
		}
	}
	return result, nil
}

func (m *memStorage) CreateApplication(_ context.Context, eventId domain.EventId, applicantId domain.UserId, comment string, guard domain.ApplyGuard) (domain.Application, domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventId]
	if !ok {
		return domain.Application{}, domain.Event{}, errors.NotFound("Event not found")
	}
	_, blocked := m.blocks[[2]domain.UserId{e.OrganizerId, applicantId}]
	if err := guard(m.withCounts(e), blocked); err != nil {
		return domain.Application{}, domain.Event{}, err
	}
	for _, a := range m.apps {
		if a.EventId == eventId && a.ApplicantId == applicantId && a.Status.Active() {
			return domain.Application{}, domain.Event{}, errors.Conflict("You already have an active application for this event")
		}
	}
	now := m.tick()
	a := &domain.Application{Id: uuid.New(), EventId: eventId, ApplicantId: applicantId, Comment: comment,
		Status: domain.ApplicationPending, CreatedAt: now, UpdatedAt: now}
	m.apps[a.Id] = a
	return *a, *e, nil
}

func (m *memStorage) TransitionApplication(_ context.Context, id domain.ApplicationId, to domain.ApplicationStatus, block bool, guard domain.TransitionGuard) (domain.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return domain.Transition{}, errors.NotFound("Application not found")
	}
	e := m.events[a.EventId]
	if err := guard(*a, m.withCounts(e)); err != nil {
		return domain.Transition{}, err
	}
	from := a.Status
	a.Status = to
	a.UpdatedAt = m.tick()
	if block {
		key := [2]domain.UserId{e.OrganizerId, a.ApplicantId}
		if _, exists := m.blocks[key]; !exists {
			m.blocks[key] = m.tick()
		}
	}
	return domain.Transition{Application: *a, From: from, OrganizerId: e.OrganizerId, EventTitle: e.Title}, nil
}

func (m *memStorage) Application(_ context.Context, id domain.ApplicationId) (domain.ApplicationWithEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return domain.ApplicationWithEvent{}, errors.NotFound("Application not found")
	}
	return m.joined(a), nil
}

func (m *memStorage) joined(a *domain.Application) domain.ApplicationWithEvent {
	e := m.events[a.EventId]
	return domain.ApplicationWithEvent{Application: *a, Event: domain.EventSummary{
		Id: e.Id, OrganizerId: e.OrganizerId, Title: e.Title, StartAt: e.StartAt, EndAt: e.EndAt, Status: e.Status, Venue: e.Venue,
	}}
}

// sortedApps returns matching applications newest first. Callers hold mu.
func (m *memStorage) sortedApps(match func(*domain.Application) bool) []*domain.Application {
	var result []*domain.Application
	for _, a := range m.apps {
		if match(a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (m *memStorage) ApplicationsForEvent(_ context.Context, eventId domain.EventId) ([]domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Application
	for _, a := range m.sortedApps(func(a *domain.Application) bool { return a.EventId == eventId }) {
		result = append(result, *a)
	}
	return result, nil
}

func (m *memStorage) ApplicationsForUser(_ context.Context, applicantId domain.UserId) ([]domain.ApplicationWithEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.ApplicationWithEvent
	for _, a := range m.sortedApps(func(a *domain.Application) bool { return a.ApplicantId == applicantId }) {
		result = append(result, m.joined(a))
	}
	return result, nil
}

func (m *memStorage) HasApprovedApplication(_ context.Context, eventId domain.EventId, applicantId domain.UserId) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.EventId == eventId && a.ApplicantId == applicantId && a.Status == domain.ApplicationApproved {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStorage) BlockUser(_ context.Context, organizerId, targetId domain.UserId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]domain.UserId{organizerId, targetId}
	if _, exists := m.blocks[key]; exists {
		return errors.Conflict("User is already blocked")
	}
	m.blocks[key] = m.tick()
	return nil
}

func (m *memStorage) UnblockUser(_ context.Context, organizerId, targetId domain.UserId) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blocks, [2]domain.UserId{organizerId, targetId})
	return nil
}

func (m *memStorage) IsBlocked(_ context.Context, organizerId, targetId domain.UserId) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, blocked := m.blocks[[2]domain.UserId{organizerId, targetId}]
	return blocked, nil
}

func (m *memStorage) BlockedUsers(_ context.Context, organizerId domain.UserId) ([]domain.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Block
	for key, at := range m.blocks {
		if key[0] == organizerId {
			result = append(result, domain.Block{OrganizerId: key[0], BlockedUserId: key[1], CreatedAt: at})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *memStorage) GetOrCreateConversation(_ context.Context, eventId domain.EventId, organizerId, participantId domain.UserId) (domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.conversations {
		if c.EventId == eventId && c.OrganizerId == organizerId && c.ParticipantId == participantId {
			return *c, nil
		}
	}
	c := &domain.Conversation{Id: uuid.New(), EventId: eventId, OrganizerId: organizerId, ParticipantId: participantId, CreatedAt: m.tick()}
	m.conversations[c.Id] = c
	return *c, nil
}

func (m *memStorage) Conversation(_ context.Context, id domain.ConversationId) (domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return domain.Conversation{}, errors.NotFound("Conversation not found")
	}
	return *c, nil
}

func (m *memStorage) Conversations(_ context.Context, userId domain.UserId) ([]domain.ConversationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.ConversationSummary
	for _, c := range m.conversations {
		if !c.HasParty(userId) {
			continue
		}
		e := m.events[c.EventId]
		s := domain.ConversationSummary{Conversation: *c, EventTitle: e.Title, EventEndAt: e.EndAt}
		for _, msg := range m.messages {
			if msg.ConversationId == c.Id && msg.ReceiverId == userId && !msg.Read {
				s.UnreadCount++
			}
		}
		result = append(result, s)
	}
	return result, nil
}

func (m *memStorage) SaveMessage(_ context.Context, conv domain.Conversation, senderId domain.UserId, body string) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := &domain.Message{Id: uuid.New(), ConversationId: conv.Id, EventId: conv.EventId, SenderId: senderId,
		ReceiverId: conv.Counterpart(senderId), Body: body, CreatedAt: m.tick()}
	m.messages = append(m.messages, msg)
	return *msg, nil
}

func (m *memStorage) Messages(_ context.Context, id domain.ConversationId) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Message
	for _, msg := range m.messages {
		if msg.ConversationId == id {
			result = append(result, *msg)
		}
	}
	return result, nil
}

func (m *memStorage) MarkRead(_ context.Context, id domain.ConversationId, receiverId domain.UserId) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.messages {
		if msg.ConversationId == id && msg.ReceiverId == receiverId && !msg.Read {
			msg.Read = true
			n++
		}
	}
	return n, nil
}

func (m *memStorage) MarkReadWith(_ context.Context, eventId domain.EventId, receiverId, senderId domain.UserId) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.messages {
		if msg.EventId == eventId && msg.ReceiverId == receiverId && msg.SenderId == senderId && !msg.Read {
			msg.Read = true
			n++
		}
	}
	return n, nil
}

func (m *memStorage) UnreadCount(_ context.Context, receiverId domain.UserId) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.ReceiverId == receiverId && !msg.Read {
			n++
		}
	}
	return n, nil
}

// recordingNotifier captures notifications in order.
type recordingNotifier struct {
	mu     sync.Mutex
	events []recorded
}

type recorded struct {
	Type    string
	Payload map[string]string
}

func (n *recordingNotifier) Notify(eventType string, payload map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recorded{Type: eventType, Payload: payload})
}

func (n *recordingNotifier) ofType(eventType string) []recorded {
	n.mu.Lock()
	defer n.mu.Unlock()
	var result []recorded
	for _, e := range n.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

// fixedClock is a settable Clock.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
