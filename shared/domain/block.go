package domain

import "time"

// Block is a standing denial from an organizer toward one user.
type Block struct {
	OrganizerId   UserId
	BlockedUserId UserId
	CreatedAt     time.Time
}
