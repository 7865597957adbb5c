package pg

import (
	"context"
	"fmt"

	"github.com/practix/practix/shared/domain"
	internal_errors "github.com/practix/practix/shared/errors"
)

// =========================================================================
// Public Methods
// =========================================================================

// BlockUser records a block. An existing block is a ConflictError.
func (s *Storage) BlockUser(ctx context.Context, organizerId, targetId domain.UserId) error {
	inserted, err := s.insertBlock(ctx, s.db, organizerId, targetId)
	if err != nil {
		return err
	}
	if !inserted {
		return internal_errors.Conflict("User is already blocked")
	}
	return nil
}

// UnblockUser is idempotent: removing a missing block succeeds.
func (s *Storage) UnblockUser(ctx context.Context, organizerId, targetId domain.UserId) error {
	return s.deleteBlock(ctx, s.db, organizerId, targetId)
}

func (s *Storage) IsBlocked(ctx context.Context, organizerId, targetId domain.UserId) (bool, error) {
	return s.isBlocked(ctx, s.db, organizerId, targetId)
}

func (s *Storage) BlockedUsers(ctx context.Context, organizerId domain.UserId) ([]domain.Block, error) {
	return s.blockedUsers(ctx, s.db, organizerId)
}

// =========================================================================
// Internal Methods
// =========================================================================

// insertBlock reports whether a new row was written.
func (s *Storage) insertBlock(ctx context.Context, q Querier, organizerId, targetId domain.UserId) (bool, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO blocks (organizer_id, blocked_user_id)
		VALUES ($1, $2)
		ON CONFLICT (organizer_id, blocked_user_id) DO NOTHING`,
		organizerId, targetId,
	)
	if err != nil {
		return false, fmt.Errorf("failed to block user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows for block: %w", err)
	}
	return n > 0, nil
}

func (s *Storage) deleteBlock(ctx context.Context, q Querier, organizerId, targetId domain.UserId) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM blocks WHERE organizer_id = $1 AND blocked_user_id = $2`,
		organizerId, targetId,
	)
	if err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}
	return nil
}

func (s *Storage) isBlocked(ctx context.Context, q Querier, organizerId, targetId domain.UserId) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM blocks WHERE organizer_id = $1 AND blocked_user_id = $2)`,
		organizerId, targetId,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return exists, nil
}

func (s *Storage) blockedUsers(ctx context.Context, q Querier, organizerId domain.UserId) ([]domain.Block, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT organizer_id, blocked_user_id, created_at
		FROM blocks
		WHERE organizer_id = $1
		ORDER BY created_at DESC, blocked_user_id`,
		organizerId,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked users: %w", err)
	}
	defer rows.Close()

	blocks := []domain.Block{}
	for rows.Next() {
		var b domain.Block
		if err := rows.Scan(&b.OrganizerId, &b.BlockedUserId, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blocked users: %w", err)
	}
	return blocks, nil
}
