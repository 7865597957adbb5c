package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/practix/practix/shared/domain"
	internal_errors "github.com/practix/practix/shared/errors"
)

const eventColumns = `
	e.id, e.organizer_id, e.title, e.start_at, e.end_at,
	e.prefecture, e.municipality, e.venue_name, e.address,
	e.capacity, e.fee, e.level, e.category,
	e.description, e.rules, e.equipment, e.notes,
	e.deadline_hours_before, e.status, e.created_at, e.updated_at`

const eventCountColumns = `,
	(SELECT count(*) FROM applications a WHERE a.event_id = e.id AND a.status = 'approved'),
	(SELECT count(*) FROM applications a WHERE a.event_id = e.id AND a.status = 'pending')`

// =========================================================================
// Public Methods
// =========================================================================

func (s *Storage) CreateEvent(ctx context.Context, organizerId domain.UserId, fields domain.EventFields) (domain.EventId, error) {
	return s.createEvent(ctx, s.db, organizerId, fields)
}

// UpdateEvent overwrites the editable fields after guard accepted the locked row.
// An empty status keeps the current one.
func (s *Storage) UpdateEvent(ctx context.Context, eventId domain.EventId, fields domain.EventFields, guard domain.EventGuard) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := s.lockEvent(ctx, tx, eventId)
		if err != nil {
			return err
		}
		if err := guard(current); err != nil {
			return err
		}
		return s.updateEvent(ctx, tx, eventId, fields)
	})
}

// CancelEvent marks the event cancelled and returns it together with the
// applicants approved at that moment.
func (s *Storage) CancelEvent(ctx context.Context, eventId domain.EventId, guard domain.EventGuard) (domain.Event, []domain.UserId, error) {
	var (
		event    domain.Event
		approved []domain.UserId
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := s.lockEvent(ctx, tx, eventId)
		if err != nil {
			return err
		}
		if err := guard(current); err != nil {
			return err
		}
		if err := s.setEventStatus(ctx, tx, eventId, domain.EventCancelled); err != nil {
			return err
		}
		approved, err = s.applicantsWithStatus(ctx, tx, eventId, domain.ApplicationApproved)
		if err != nil {
			return err
		}
		event = current.Event
		event.Status = domain.EventCancelled
		return nil
	})
	if err != nil {
		return domain.Event{}, nil, err
	}
	return event, approved, nil
}

func (s *Storage) Event(ctx context.Context, eventId domain.EventId) (domain.EventWithCounts, error) {
	return s.event(ctx, s.db, eventId)
}

func (s *Storage) ListPublishedEvents(ctx context.Context, query domain.EventQuery) ([]domain.EventWithCounts, error) {
	return s.listPublishedEvents(ctx, s.db, query)
}

func (s *Storage) ListOrganizedEvents(ctx context.Context, organizerId domain.UserId) ([]domain.EventWithCounts, error) {
	return s.listOrganizedEvents(ctx, s.db, organizerId)
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) createEvent(ctx context.Context, q Querier, organizerId domain.UserId, f domain.EventFields) (domain.EventId, error) {
	var id domain.EventId
	err := q.QueryRowContext(ctx, `
		INSERT INTO events (
			organizer_id, title, start_at, end_at,
			prefecture, municipality, venue_name, address,
			capacity, fee, level, category,
			description, rules, equipment, notes,
			deadline_hours_before, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`,
		organizerId, f.Title, f.StartAt, f.EndAt,
		f.Venue.Prefecture, f.Venue.Municipality, f.Venue.Name, f.Venue.Address,
		f.Capacity, f.Fee, f.Level, f.Category,
		f.Description, f.Rules, f.Equipment, f.Notes,
		nullableInt(f.DeadlineHoursBefore), f.Status,
	).Scan(&id)
	if err != nil {
		return id, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

func (s *Storage) updateEvent(ctx context.Context, q Querier, eventId domain.EventId, f domain.EventFields) error {
	result, err := q.ExecContext(ctx, `
		UPDATE events SET
			title = $2, start_at = $3, end_at = $4,
			prefecture = $5, municipality = $6, venue_name = $7, address = $8,
			capacity = $9, fee = $10, level = $11, category = $12,
			description = $13, rules = $14, equipment = $15, notes = $16,
			deadline_hours_before = $17, status = COALESCE(NULLIF($18, ''), status),
			updated_at = clock_timestamp()
		WHERE id = $1`,
		eventId, f.Title, f.StartAt, f.EndAt,
		f.Venue.Prefecture, f.Venue.Municipality, f.Venue.Name, f.Venue.Address,
		f.Capacity, f.Fee, f.Level, f.Category,
		f.Description, f.Rules, f.Equipment, f.Notes,
		nullableInt(f.DeadlineHoursBefore), f.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return requireAffected(result, "Event not found")
}

func (s *Storage) setEventStatus(ctx context.Context, q Querier, eventId domain.EventId, status domain.EventStatus) error {
	result, err := q.ExecContext(ctx,
		`UPDATE events SET status = $2, updated_at = clock_timestamp() WHERE id = $1`,
		eventId, status,
	)
	if err != nil {
		return fmt.Errorf("failed to set event status: %w", err)
	}
	return requireAffected(result, "Event not found")
}

// lockEvent takes the event row lock, serializing every mutation that depends
// on its capacity, then reads it. The counts are read by a separate statement
// so they see everything committed before the lock was granted.
func (s *Storage) lockEvent(ctx context.Context, q Querier, eventId domain.EventId) (domain.EventWithCounts, error) {
	return s.lockEventRow(ctx, q, eventId, "FOR UPDATE")
}

// shareEvent takes a shared lock: applies to the same event run side by side
// but wait for a cancel or edit holding the row.
func (s *Storage) shareEvent(ctx context.Context, q Querier, eventId domain.EventId) (domain.EventWithCounts, error) {
	return s.lockEventRow(ctx, q, eventId, "FOR SHARE")
}

func (s *Storage) lockEventRow(ctx context.Context, q Querier, eventId domain.EventId, mode string) (domain.EventWithCounts, error) {
	var id domain.EventId
	err := q.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 `+mode, eventId).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EventWithCounts{}, internal_errors.NotFound("Event not found")
		}
		return domain.EventWithCounts{}, fmt.Errorf("failed to lock event: %w", err)
	}
	return s.event(ctx, q, eventId)
}

func (s *Storage) event(ctx context.Context, q Querier, eventId domain.EventId) (domain.EventWithCounts, error) {
	query := `SELECT ` + eventColumns + eventCountColumns + ` FROM events e WHERE e.id = $1`
	event, err := scanEventWithCounts(q.QueryRowContext(ctx, query, eventId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EventWithCounts{}, internal_errors.NotFound("Event not found")
		}
		return domain.EventWithCounts{}, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (s *Storage) listPublishedEvents(ctx context.Context, q Querier, query domain.EventQuery) ([]domain.EventWithCounts, error) {
	where := []string{"e.status = 'published'", "e.start_at >= $1"}
	args := []any{query.NotBefore}
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if !query.StartRange.From.IsZero() {
		add("e.start_at >= $%d", query.StartRange.From)
	}
	if !query.StartRange.To.IsZero() {
		add("e.start_at < $%d", query.StartRange.To)
	}
	if query.Prefecture != "" {
		add("e.prefecture = $%d", query.Prefecture)
	}
	if query.Municipality != "" {
		add("e.municipality = $%d", query.Municipality)
	}
	if query.Level != "" {
		add("e.level = $%d", query.Level)
	}
	args = append(args, query.Limit, query.Offset)

	sqlQuery := fmt.Sprintf(`
		SELECT %s %s
		FROM events e
		WHERE %s
		ORDER BY e.start_at ASC, e.id ASC
		LIMIT $%d OFFSET $%d`,
		eventColumns, eventCountColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	return s.queryEvents(ctx, q, sqlQuery, args...)
}

func (s *Storage) listOrganizedEvents(ctx context.Context, q Querier, organizerId domain.UserId) ([]domain.EventWithCounts, error) {
	return s.queryEvents(ctx, q, `
		SELECT `+eventColumns+eventCountColumns+`
		FROM events e
		WHERE e.organizer_id = $1
		ORDER BY e.start_at DESC, e.id ASC`,
		organizerId,
	)
}

func (s *Storage) queryEvents(ctx context.Context, q Querier, query string, args ...any) ([]domain.EventWithCounts, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []domain.EventWithCounts{}
	for rows.Next() {
		event, err := scanEventWithCounts(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func scanEventWithCounts(row rowScanner) (domain.EventWithCounts, error) {
	var (
		e        domain.EventWithCounts
		deadline sql.NullInt32
	)
	err := row.Scan(
		&e.Id, &e.OrganizerId, &e.Title, &e.StartAt, &e.EndAt,
		&e.Venue.Prefecture, &e.Venue.Municipality, &e.Venue.Name, &e.Venue.Address,
		&e.Capacity, &e.Fee, &e.Level, &e.Category,
		&e.Description, &e.Rules, &e.Equipment, &e.Notes,
		&deadline, &e.Status, &e.CreatedAt, &e.UpdatedAt,
		&e.ApprovedCount, &e.PendingCount,
	)
	if err != nil {
		return e, err
	}
	if deadline.Valid {
		hours := int(deadline.Int32)
		e.DeadlineHoursBefore = &hours
	}
	e.StartAt, e.EndAt = e.StartAt.UTC(), e.EndAt.UTC()
	e.CreatedAt, e.UpdatedAt = e.CreatedAt.UTC(), e.UpdatedAt.UTC()
	return e, nil
}

func nullableInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func requireAffected(result sql.Result, notFoundMessage string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return internal_errors.NotFound(notFoundMessage)
	}
	return nil
}
