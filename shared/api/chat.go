package api

import (
	"time"

	"github.com/practix/practix/shared/domain"
)

type OpenConversationRequest struct {
	CounterpartId string `json:"counterpart_id" validate:"required"`
}

type SendMessageRequest struct {
	Body string `json:"body"`
}

type ConversationResponse struct {
	Id            string     `json:"id"`
	EventId       string     `json:"event_id"`
	OrganizerId   string     `json:"organizer_id"`
	ParticipantId string     `json:"participant_id"`
	EventTitle    string     `json:"event_title,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int        `json:"unread_count"`
	ChatOpen      bool       `json:"chat_open"`
}

type ConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

type MessageResponse struct {
	Id         string    `json:"id"`
	SenderId   string    `json:"sender_id"`
	ReceiverId string    `json:"receiver_id"`
	Body       string    `json:"body"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

func NewConversationResponse(c domain.Conversation) ConversationResponse {
	return ConversationResponse{
		Id:            c.Id.String(),
		EventId:       c.EventId.String(),
		OrganizerId:   c.OrganizerId,
		ParticipantId: c.ParticipantId,
	}
}

func NewConversationsResponse(summaries []domain.ConversationSummary, now time.Time) ConversationsResponse {
	out := make([]ConversationResponse, 0, len(summaries))
	for _, s := range summaries {
		resp := NewConversationResponse(s.Conversation)
		resp.EventTitle = s.EventTitle
		resp.LastMessageAt = s.LastMessageAt
		resp.UnreadCount = s.UnreadCount
		resp.ChatOpen = s.ChatOpen(now)
		out = append(out, resp)
	}
	return ConversationsResponse{Conversations: out}
}

func NewMessageResponse(m domain.Message) MessageResponse {
	return MessageResponse{
		Id:         m.Id.String(),
		SenderId:   m.SenderId,
		ReceiverId: m.ReceiverId,
		Body:       m.Body,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}
}

func NewMessagesResponse(messages []domain.Message) MessagesResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, NewMessageResponse(m))
	}
	return MessagesResponse{Messages: out}
}
