package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/practix/practix/backend/internal/notify"
	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
	"github.com/practix/practix/shared/middleware/metrics"
	"github.com/practix/practix/shared/utils"
)

type ChatService interface {
	OpenConversation(ctx context.Context, eventId domain.EventId, callerId, counterpartId domain.UserId) (domain.Conversation, error)
	Send(ctx context.Context, conversationId domain.ConversationId, senderId domain.UserId, body string) (domain.Message, error)
	Messages(ctx context.Context, conversationId domain.ConversationId, callerId domain.UserId) ([]domain.Message, error)
	MarkRead(ctx context.Context, conversationId domain.ConversationId, callerId domain.UserId) error
	MarkReadWith(ctx context.Context, eventId domain.EventId, counterpartId, callerId domain.UserId) error
	UnreadCount(ctx context.Context, callerId domain.UserId) (int, error)
	Conversations(ctx context.Context, callerId domain.UserId) ([]domain.ConversationSummary, error)
}

type ChatStorage interface {
	Event(ctx context.Context, eventId domain.EventId) (domain.EventWithCounts, error)
	HasApprovedApplication(ctx context.Context, eventId domain.EventId, applicantId domain.UserId) (bool, error)
	IsBlocked(ctx context.Context, organizerId, targetId domain.UserId) (bool, error)
	GetOrCreateConversation(ctx context.Context, eventId domain.EventId, organizerId, participantId domain.UserId) (domain.Conversation, error)
	Conversation(ctx context.Context, conversationId domain.ConversationId) (domain.Conversation, error)
	Conversations(ctx context.Context, userId domain.UserId) ([]domain.ConversationSummary, error)
	SaveMessage(ctx context.Context, conv domain.Conversation, senderId domain.UserId, body string) (domain.Message, error)
	Messages(ctx context.Context, conversationId domain.ConversationId) ([]domain.Message, error)
	MarkRead(ctx context.Context, conversationId domain.ConversationId, receiverId domain.UserId) (int64, error)
	MarkReadWith(ctx context.Context, eventId domain.EventId, receiverId, senderId domain.UserId) (int64, error)
	UnreadCount(ctx context.Context, receiverId domain.UserId) (int, error)
}

type Chat struct {
	storage  ChatStorage
	notifier Notifier
	now      Clock
}

func NewChat(storage ChatStorage, notifier Notifier, now Clock) ChatService {
	return &Chat{storage: storage, notifier: notifier, now: now.orDefault()}
}

// OpenConversation finds or lazily creates the conversation between the
// event organizer and an approved participant.
func (c *Chat) OpenConversation(ctx context.Context, eventId domain.EventId, callerId, counterpartId domain.UserId) (domain.Conversation, error) {
	if err := requireCaller(callerId); err != nil {
		return domain.Conversation{}, err
	}
	if counterpartId == "" || counterpartId == callerId {
		return domain.Conversation{}, errors.Validation("Counterpart must be another user")
	}

	event, err := c.storage.Event(ctx, eventId)
	if err != nil {
		return domain.Conversation{}, err
	}

	var participantId domain.UserId
	switch event.OrganizerId {
	case callerId:
		participantId = counterpartId
	case counterpartId:
		participantId = callerId
	default:
		return domain.Conversation{}, errors.Permission("Conversations are between the organizer and a participant")
	}

	approved, err := c.storage.HasApprovedApplication(ctx, eventId, participantId)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !approved {
		return domain.Conversation{}, errors.BusinessRule("Participant is not approved for this event")
	}
	return c.storage.GetOrCreateConversation(ctx, eventId, event.OrganizerId, participantId)
}

func (c *Chat) Send(ctx context.Context, conversationId domain.ConversationId, senderId domain.UserId, body string) (domain.Message, error) {
	if err := requireCaller(senderId); err != nil {
		return domain.Message{}, err
	}
	body = utils.SanitizeText(body)
	if body == "" {
		return domain.Message{}, errors.Validation("Message must not be empty")
	}
	if utf8.RuneCountInString(body) > domain.MaxMessageLen {
		return domain.Message{}, errors.Validation(fmt.Sprintf("Message must be at most %d characters", domain.MaxMessageLen))
	}

	conv, err := c.storage.Conversation(ctx, conversationId)
	if err != nil {
		return domain.Message{}, err
	}
	if !conv.HasParty(senderId) {
		return domain.Message{}, errors.Permission("You are not part of this conversation")
	}
	event, err := c.storage.Event(ctx, conv.EventId)
	if err != nil {
		return domain.Message{}, err
	}
	if !event.ChatOpen(c.now()) {
		return domain.Message{}, errors.BusinessRule("Chat expired")
	}
	blocked, err := c.storage.IsBlocked(ctx, conv.OrganizerId, conv.ParticipantId)
	if err != nil {
		return domain.Message{}, err
	}
	if blocked {
		return domain.Message{}, errors.BusinessRule("Sender blocked")
	}

	msg, err := c.storage.SaveMessage(ctx, conv, senderId, body)
	if err != nil {
		return domain.Message{}, err
	}

	metrics.MessagesSent.Inc()
	c.notifier.Notify(notify.ChatMessage, map[string]string{
		notify.RecipientKey: msg.ReceiverId,
		"conversation_id":   conv.Id.String(),
		"event_id":          conv.EventId.String(),
		"message_id":        msg.Id.String(),
		"sender_id":         senderId,
	})
	return msg, nil
}

func (c *Chat) Messages(ctx context.Context, conversationId domain.ConversationId, callerId domain.UserId) ([]domain.Message, error) {
	if _, err := c.partyConversation(ctx, conversationId, callerId); err != nil {
		return nil, err
	}
	return c.storage.Messages(ctx, conversationId)
}

func (c *Chat) MarkRead(ctx context.Context, conversationId domain.ConversationId, callerId domain.UserId) error {
	if _, err := c.partyConversation(ctx, conversationId, callerId); err != nil {
		return err
	}
	_, err := c.storage.MarkRead(ctx, conversationId, callerId)
	return err
}

// MarkReadWith marks what counterpartId sent the caller about the event as
// read. It never creates a conversation.
func (c *Chat) MarkReadWith(ctx context.Context, eventId domain.EventId, counterpartId, callerId domain.UserId) error {
	if err := requireCaller(callerId); err != nil {
		return err
	}
	event, err := c.storage.Event(ctx, eventId)
	if err != nil {
		return err
	}
	if event.OrganizerId != callerId && event.OrganizerId != counterpartId {
		return errors.Permission("Conversations are between the organizer and a participant")
	}
	_, err = c.storage.MarkReadWith(ctx, eventId, callerId, counterpartId)
	return err
}

func (c *Chat) UnreadCount(ctx context.Context, callerId domain.UserId) (int, error) {
	if err := requireCaller(callerId); err != nil {
		return 0, err
	}
	return c.storage.UnreadCount(ctx, callerId)
}

func (c *Chat) Conversations(ctx context.Context, callerId domain.UserId) ([]domain.ConversationSummary, error) {
	if err := requireCaller(callerId); err != nil {
		return nil, err
	}
	return c.storage.Conversations(ctx, callerId)
}

func (c *Chat) partyConversation(ctx context.Context, conversationId domain.ConversationId, callerId domain.UserId) (domain.Conversation, error) {
	if err := requireCaller(callerId); err != nil {
		return domain.Conversation{}, err
	}
	conv, err := c.storage.Conversation(ctx, conversationId)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conv.HasParty(callerId) {
		return domain.Conversation{}, errors.Permission("You are not part of this conversation")
	}
	return conv, nil
}
