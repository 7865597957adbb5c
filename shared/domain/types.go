package domain

import "github.com/google/uuid"

type (
	// UserId is the opaque identity issued by the authentication provider.
	UserId = string

	EventId        = uuid.UUID
	ApplicationId  = uuid.UUID
	ConversationId = uuid.UUID
	MessageId      = uuid.UUID
)
