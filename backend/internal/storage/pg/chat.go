package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/practix/practix/shared/domain"
	internal_errors "github.com/practix/practix/shared/errors"
)

const conversationColumns = `c.id, c.event_id, c.organizer_id, c.participant_id, c.created_at`

const messageColumns = `m.id, m.conversation_id, m.event_id, m.sender_id, m.receiver_id, m.body, m.read, m.created_at`

// =========================================================================
// Public Methods
// =========================================================================

// GetOrCreateConversation never creates a second row for the same
// (event, organizer, participant), even under concurrent calls.
func (s *Storage) GetOrCreateConversation(ctx context.Context, eventId domain.EventId, organizerId, participantId domain.UserId) (domain.Conversation, error) {
	var conv domain.Conversation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		conv, err = s.getOrCreateConversation(ctx, tx, eventId, organizerId, participantId)
		return err
	})
	return conv, err
}

func (s *Storage) Conversation(ctx context.Context, conversationId domain.ConversationId) (domain.Conversation, error) {
	return s.conversation(ctx, s.db, conversationId)
}

func (s *Storage) Conversations(ctx context.Context, userId domain.UserId) ([]domain.ConversationSummary, error) {
	return s.conversations(ctx, s.db, userId)
}

func (s *Storage) SaveMessage(ctx context.Context, conv domain.Conversation, senderId domain.UserId, body string) (domain.Message, error) {
	return s.saveMessage(ctx, s.db, conv, senderId, body)
}

func (s *Storage) Messages(ctx context.Context, conversationId domain.ConversationId) ([]domain.Message, error) {
	return s.messages(ctx, s.db, conversationId)
}

// MarkRead marks messages addressed to receiverId in the conversation read
// and returns how many changed.
func (s *Storage) MarkRead(ctx context.Context, conversationId domain.ConversationId, receiverId domain.UserId) (int64, error) {
	return s.markRead(ctx, s.db, conversationId, receiverId)
}

// MarkReadWith marks messages from senderId to receiverId about eventId read
// without touching conversations.
func (s *Storage) MarkReadWith(ctx context.Context, eventId domain.EventId, receiverId, senderId domain.UserId) (int64, error) {
	return s.markReadWith(ctx, s.db, eventId, receiverId, senderId)
}

func (s *Storage) UnreadCount(ctx context.Context, receiverId domain.UserId) (int, error) {
	return s.unreadCount(ctx, s.db, receiverId)
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) getOrCreateConversation(ctx context.Context, q Querier, eventId domain.EventId, organizerId, participantId domain.UserId) (domain.Conversation, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversations (event_id, organizer_id, participant_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, organizer_id, participant_id) DO NOTHING`,
		eventId, organizerId, participantId,
	)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to create conversation: %w", err)
	}

	conv, err := scanConversation(q.QueryRowContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations c
		WHERE c.event_id = $1 AND c.organizer_id = $2 AND c.participant_id = $3`,
		eventId, organizerId, participantId,
	))
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

func (s *Storage) conversation(ctx context.Context, q Querier, conversationId domain.ConversationId) (domain.Conversation, error) {
	conv, err := scanConversation(q.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations c WHERE c.id = $1`,
		conversationId,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conv, internal_errors.NotFound("Conversation not found")
		}
		return conv, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

func (s *Storage) conversations(ctx context.Context, q Querier, userId domain.UserId) ([]domain.ConversationSummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+conversationColumns+`, e.title, e.end_at,
			(SELECT max(m.created_at) FROM messages m WHERE m.conversation_id = c.id),
			(SELECT count(*) FROM messages m WHERE m.conversation_id = c.id AND m.receiver_id = $1 AND NOT m.read)
		FROM conversations c
		JOIN events e ON e.id = c.event_id
		WHERE c.organizer_id = $1 OR c.participant_id = $1
		ORDER BY 8 DESC NULLS LAST, c.created_at DESC`,
		userId,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	summaries := []domain.ConversationSummary{}
	for rows.Next() {
		var (
			cs     domain.ConversationSummary
			lastAt sql.NullTime
		)
		err := rows.Scan(
			&cs.Id, &cs.EventId, &cs.OrganizerId, &cs.ParticipantId, &cs.CreatedAt,
			&cs.EventTitle, &cs.EventEndAt, &lastAt, &cs.UnreadCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		cs.CreatedAt, cs.EventEndAt = cs.CreatedAt.UTC(), cs.EventEndAt.UTC()
		if lastAt.Valid {
			t := lastAt.Time.UTC()
			cs.LastMessageAt = &t
		}
		summaries = append(summaries, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}
	return summaries, nil
}

func (s *Storage) saveMessage(ctx context.Context, q Querier, conv domain.Conversation, senderId domain.UserId, body string) (domain.Message, error) {
	msg, err := scanMessage(q.QueryRowContext(ctx, `
		INSERT INTO messages AS m (conversation_id, event_id, sender_id, receiver_id, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+messageColumns,
		conv.Id, conv.EventId, senderId, conv.Counterpart(senderId), body,
	))
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg, nil
}

func (s *Storage) messages(ctx context.Context, q Querier, conversationId domain.ConversationId) ([]domain.Message, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages m
		WHERE m.conversation_id = $1
		ORDER BY m.created_at ASC, m.id`,
		conversationId,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return msgs, nil
}

func (s *Storage) markRead(ctx context.Context, q Querier, conversationId domain.ConversationId, receiverId domain.UserId) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE messages SET read = TRUE WHERE conversation_id = $1 AND receiver_id = $2 AND NOT read`,
		conversationId, receiverId,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.RowsAffected()
}

func (s *Storage) markReadWith(ctx context.Context, q Querier, eventId domain.EventId, receiverId, senderId domain.UserId) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE messages SET read = TRUE WHERE event_id = $1 AND receiver_id = $2 AND sender_id = $3 AND NOT read`,
		eventId, receiverId, senderId,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.RowsAffected()
}

func (s *Storage) unreadCount(ctx context.Context, q Querier, receiverId domain.UserId) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT count(*) FROM messages WHERE receiver_id = $1 AND NOT read`,
		receiverId,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

func scanConversation(row rowScanner) (domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(&c.Id, &c.EventId, &c.OrganizerId, &c.ParticipantId, &c.CreatedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, err
}

func scanMessage(row rowScanner) (domain.Message, error) {
	var m domain.Message
	err := row.Scan(&m.Id, &m.ConversationId, &m.EventId, &m.SenderId, &m.ReceiverId, &m.Body, &m.Read, &m.CreatedAt)
	m.CreatedAt = m.CreatedAt.UTC()
	return m, err
}
