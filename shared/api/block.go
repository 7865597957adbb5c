package api

import (
	"time"

	"github.com/practix/practix/shared/domain"
)

type BlockUserRequest struct {
	UserId string `json:"user_id" validate:"required"`
}

type BlockEntry struct {
	UserId    string    `json:"user_id"`
	BlockedAt time.Time `json:"blocked_at"`
}

type BlocksResponse struct {
	Users []BlockEntry `json:"users"`
}

func NewBlocksResponse(blocks []domain.Block) BlocksResponse {
	users := make([]BlockEntry, 0, len(blocks))
	for _, b := range blocks {
		users = append(users, BlockEntry{UserId: b.BlockedUserId, BlockedAt: b.CreatedAt})
	}
	return BlocksResponse{Users: users}
}
