package service

import (
	"context"

	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
)

type BlockService interface {
	Block(ctx context.Context, organizerId, targetId domain.UserId) error
	Unblock(ctx context.Context, organizerId, targetId domain.UserId) error
	IsBlocked(ctx context.Context, organizerId, targetId domain.UserId) (bool, error)
	List(ctx context.Context, organizerId domain.UserId) ([]domain.Block, error)
}

type BlockStorage interface {
	BlockUser(ctx context.Context, organizerId, targetId domain.UserId) error
	UnblockUser(ctx context.Context, organizerId, targetId domain.UserId) error
	IsBlocked(ctx context.Context, organizerId, targetId domain.UserId) (bool, error)
	BlockedUsers(ctx context.Context, organizerId domain.UserId) ([]domain.Block, error)
}

type Block struct {
	storage BlockStorage
}

func NewBlock(storage BlockStorage) BlockService {
	return &Block{storage: storage}
}

func (b *Block) Block(ctx context.Context, organizerId, targetId domain.UserId) error {
	if err := requireCaller(organizerId); err != nil {
		return err
	}
	if targetId == "" {
		return errors.Validation("User id is required")
	}
	if targetId == organizerId {
		return errors.BusinessRule("You cannot block yourself")
	}
	return b.storage.BlockUser(ctx, organizerId, targetId)
}

// Unblock succeeds whether or not a block existed.
func (b *Block) Unblock(ctx context.Context, organizerId, targetId domain.UserId) error {
	if err := requireCaller(organizerId); err != nil {
		return err
	}
	return b.storage.UnblockUser(ctx, organizerId, targetId)
}

func (b *Block) IsBlocked(ctx context.Context, organizerId, targetId domain.UserId) (bool, error) {
	return b.storage.IsBlocked(ctx, organizerId, targetId)
}

func (b *Block) List(ctx context.Context, organizerId domain.UserId) ([]domain.Block, error) {
	if err := requireCaller(organizerId); err != nil {
		return nil, err
	}
	return b.storage.BlockedUsers(ctx, organizerId)
}
