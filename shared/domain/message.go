package domain

import "time"

const MaxMessageLen = 500

// Conversation is keyed by (event, organizer, participant).
type Conversation struct {
	Id            ConversationId
	EventId       EventId
	OrganizerId   UserId
	ParticipantId UserId
	CreatedAt     time.Time
}

// HasParty reports whether userId is one of the two sides.
func (c *Conversation) HasParty(userId UserId) bool {
	return userId == c.OrganizerId || userId == c.ParticipantId
}

// Counterpart returns the other side for userId.
func (c *Conversation) Counterpart(userId UserId) UserId {
	if userId == c.OrganizerId {
		return c.ParticipantId
	}
	return c.OrganizerId
}

type Message struct {
	Id             MessageId
	ConversationId ConversationId
	EventId        EventId
	SenderId       UserId
	ReceiverId     UserId
	Body           string
	Read           bool
	CreatedAt      time.Time
}

// ConversationSummary is one row of a user's chat list.
type ConversationSummary struct {
	Conversation
	EventTitle    string
	EventEndAt    time.Time
	LastMessageAt *time.Time
	UnreadCount   int
}

func (s *ConversationSummary) ChatOpen(now time.Time) bool {
	return !now.After(s.EventEndAt.Add(ChatWindow))
}
