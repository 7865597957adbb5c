package handler

import (
	"context"

	"github.com/practix/practix/backend/internal/notify"
	"github.com/practix/practix/shared/domain"
)

type MockEventService struct {
	MockCreate        func(ctx context.Context, organizerId domain.UserId, fields domain.EventFields) (domain.EventId, error)
	MockUpdate        func(ctx context.Context, eventId domain.EventId, organizerId domain.UserId, fields domain.EventFields) error
	MockCancel        func(ctx context.Context, eventId domain.EventId, organizerId domain.UserId) error
	MockGet           func(ctx context.Context, eventId domain.EventId) (domain.EventWithCounts, error)
	MockCapacity      func(ctx context.Context, eventId domain.EventId) (domain.CapacityState, error)
	MockListPublished func(ctx context.Context, filter domain.EventFilter) ([]domain.EventWithCounts, error)
	MockListOrganized func(ctx context.Context, organizerId domain.UserId) ([]domain.EventWithCounts, error)
}

func (m *MockEventService) Create(ctx context.Context, organizerId domain.UserId, fields domain.EventFields) (domain.EventId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, organizerId, fields)
	}
	return domain.EventId{}, nil
}

func (m *MockEventService) Update(ctx context.Context, eventId domain.EventId, organizerId domain.UserId, fields domain.EventFields) error {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, eventId, organizerId, fields)
	}
	return nil
}

func (m *MockEventService) Cancel(ctx context.Context, eventId domain.EventId, organizerId domain.UserId) error {
	if m.MockCancel != nil {
		return m.MockCancel(ctx, eventId, organizerId)
	}
	return nil
}

func (m *MockEventService) Get(ctx context.Context, eventId domain.EventId) (domain.EventWithCounts, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, eventId)
	}
	return domain.EventWithCounts{}, nil
}

func (m *MockEventService) Capacity(ctx context.Context, eventId domain.EventId) (domain.CapacityState, error) {
	if m.MockCapacity != nil {
		return m.MockCapacity(ctx, eventId)
	}
	return domain.CapacityState{}, nil
}

func (m *MockEventService) ListPublished(ctx context.Context, filter domain.EventFilter) ([]domain.EventWithCounts, error) {
	if m.MockListPublished != nil {
		return m.MockListPublished(ctx, filter)
	}
	return nil, nil
}

func (m *MockEventService) ListOrganized(ctx context.Context, organizerId domain.UserId) ([]domain.EventWithCounts, error) {
	if m.MockListOrganized != nil {
		return m.MockListOrganized(ctx, organizerId)
	}
	return nil, nil
}

type MockApplicationService struct {
	MockApply        func(ctx context.Context, eventId domain.EventId, applicantId domain.UserId, comment string) (domain.ApplicationId, error)
	MockCancel       func(ctx context.Context, id domain.ApplicationId, callerId domain.UserId) error
	MockApprove      func(ctx context.Context, id domain.ApplicationId, callerId domain.UserId) error
	MockReject       func(ctx context.Context, id domain.ApplicationId, callerId domain.UserId, block bool) error
	MockGet          func(ctx context.Context, id domain.ApplicationId, callerId domain.UserId) (domain.ApplicationWithEvent, error)
	MockListForEvent func(ctx context.Context, eventId domain.EventId, callerId domain.UserId) ([]domain.Application, error)
	MockListForUser  func(ctx context.Context, callerId domain.UserId) ([]domain.ApplicationWithEvent, error)
}

func (m *MockApplicationService) Apply(ctx context.Context, eventId domain.EventId, applicantId domain.UserId, comment string) (domain.ApplicationId, error) {
	if m.MockApply != nil {
		return m.MockApply(ctx, eventId, applicantId, comment)
	}
	return domain.ApplicationId{}, nil
}

func (m *MockApplicationService) Cancel(ctx context.Context, id domain.ApplicationId, callerId domain.UserId) error {
	if m.MockCancel != nil {
		return m.MockCancel(ctx, id, callerId)
	}
	return nil
}

func (m *MockApplicationService) Approve(ctx context.Context, id domain.ApplicationId, callerId domain.UserId) error {
	if m.MockApprove != nil {
		return m.MockApprove(ctx, id, callerId)
	}
	return nil
}

func (m *MockApplicationService) Reject(ctx context.Context, id domain.ApplicationId, callerId domain.UserId, block bool) error {
	if m.MockReject != nil {
		return m.MockReject(ctx, id, callerId, block)
	}
	return nil
}

func (m *MockApplicationService) Get(ctx context.Context, id domain.ApplicationId, callerId domain.UserId) (domain.ApplicationWithEvent, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, id, callerId)
	}
	return domain.ApplicationWithEvent{}, nil
}

func (m *MockApplicationService) ListForEvent(ctx context.Context, eventId domain.EventId, callerId domain.UserId) ([]domain.Application, error) {
	if m.MockListForEvent != nil {
		return m.MockListForEvent(ctx, eventId, callerId)
	}
	return nil, nil
}

func (m *MockApplicationService) ListForUser(ctx context.Context, callerId domain.UserId) ([]domain.ApplicationWithEvent, error) {
	if m.MockListForUser != nil {
		return m.MockListForUser(ctx, callerId)
	}
	return nil, nil
}

type MockBlockService struct {
	MockBlock     func(ctx context.Context, organizerId, targetId domain.UserId) error
	MockUnblock   func(ctx context.Context, organizerId, targetId domain.UserId) error
	MockIsBlocked func(ctx context.Context, organizerId, targetId domain.UserId) (bool, error)
	MockList      func(ctx context.Context, organizerId domain.UserId) ([]domain.Block, error)
}

func (m *MockBlockService) Block(ctx context.Context, organizerId, targetId domain.UserId) error {
	if m.MockBlock != nil {
		return m.MockBlock(ctx, organizerId, targetId)
	}
	return nil
}

func (m *MockBlockService) Unblock(ctx context.Context, organizerId, targetId domain.UserId) error {
	if m.MockUnblock != nil {
		return m.MockUnblock(ctx, organizerId, targetId)
	}
	return nil
}

func (m *MockBlockService) IsBlocked(ctx context.Context, organizerId, targetId domain.UserId) (bool, error) {
	if m.MockIsBlocked != nil {
		return m.MockIsBlocked(ctx, organizerId, targetId)
	}
	return false, nil
}

func (m *MockBlockService) List(ctx context.Context, organizerId domain.UserId) ([]domain.Block, error) {
	if m.MockList != nil {
		return m.MockList(ctx, organizerId)
	}
	return nil, nil
}

type MockChatService struct {
	MockOpenConversation func(ctx context.Context, eventId domain.EventId, callerId, counterpartId domain.UserId) (domain.Conversation, error)
	MockSend             func(ctx context.Context, id domain.ConversationId, senderId domain.UserId, body string) (domain.Message, error)
	MockMessages         func(ctx context.Context, id domain.ConversationId, callerId domain.UserId) ([]domain.Message, error)
	MockMarkRead         func(ctx context.Context, id domain.ConversationId, callerId domain.UserId) error
	MockMarkReadWith     func(ctx context.Context, eventId domain.EventId, counterpartId, callerId domain.UserId) error
	MockUnreadCount      func(ctx context.Context, callerId domain.UserId) (int, error)
	MockConversations    func(ctx context.Context, callerId domain.UserId) ([]domain.ConversationSummary, error)
}

func (m *MockChatService) OpenConversation(ctx context.Context, eventId domain.EventId, callerId, counterpartId domain.UserId) (domain.Conversation, error) {
	if m.MockOpenConversation != nil {
		return m.MockOpenConversation(ctx, eventId, callerId, counterpartId)
	}
	return domain.Conversation{}, nil
}

func (m *MockChatService) Send(ctx context.Context, id domain.ConversationId, senderId domain.UserId, body string) (domain.Message, error) {
	if m.MockSend != nil {
		return m.MockSend(ctx, id, senderId, body)
	}
	return domain.Message{}, nil
}

func (m *MockChatService) Messages(ctx context.Context, id domain.ConversationId, callerId domain.UserId) ([]domain.Message, error) {
	if m.MockMessages != nil {
		return m.MockMessages(ctx, id, callerId)
	}
	return nil, nil
}

func (m *MockChatService) MarkRead(ctx context.Context, id domain.ConversationId, callerId domain.UserId) error {
	if m.MockMarkRead != nil {
		return m.MockMarkRead(ctx, id, callerId)
	}
	return nil
}

func (m *MockChatService) MarkReadWith(ctx context.Context, eventId domain.EventId, counterpartId, callerId domain.UserId) error {
	if m.MockMarkReadWith != nil {
		return m.MockMarkReadWith(ctx, eventId, counterpartId, callerId)
	}
	return nil
}

func (m *MockChatService) UnreadCount(ctx context.Context, callerId domain.UserId) (int, error) {
	if m.MockUnreadCount != nil {
		return m.MockUnreadCount(ctx, callerId)
	}
	return 0, nil
}

func (m *MockChatService) Conversations(ctx context.Context, callerId domain.UserId) ([]domain.ConversationSummary, error) {
	if m.MockConversations != nil {
		return m.MockConversations(ctx, callerId)
	}
	return nil, nil
}

type MockFeed struct {
	MockPoll      func(recipient string, after int64) []notify.Event
	MockSubscribe func(recipient string) (<-chan notify.Event, func())
}

func (m *MockFeed) Poll(recipient string, after int64) []notify.Event {
	if m.MockPoll != nil {
		return m.MockPoll(recipient, after)
	}
	return nil
}

func (m *MockFeed) Subscribe(recipient string) (<-chan notify.Event, func()) {
	if m.MockSubscribe != nil {
		return m.MockSubscribe(recipient)
	}
	ch := make(chan notify.Event)
	return ch, func() {}
}
