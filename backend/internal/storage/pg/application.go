package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/practix/practix/shared/domain"
	internal_errors "github.com/practix/practix/shared/errors"
	sharedpg "github.com/practix/practix/shared/storage/pg"
)

const activeApplicationConstraint = "applications_active_uniq"

const applicationColumns = `a.id, a.event_id, a.applicant_id, a.comment, a.status, a.created_at, a.updated_at`

// =========================================================================
// Public Methods
// =========================================================================

// CreateApplication inserts a pending application. The event row is share
// locked so a concurrent cancel either commits first and is seen by guard, or
// waits for the insert. A concurrent or existing active application for the
// same pair surfaces as a ConflictError.
func (s *Storage) CreateApplication(ctx context.Context, eventId domain.EventId, applicantId domain.UserId, comment string, guard domain.ApplyGuard) (domain.Application, domain.Event, error) {
	var (
		app   domain.Application
		event domain.EventWithCounts
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		event, err = s.shareEvent(ctx, tx, eventId)
		if err != nil {
			return err
		}
		blocked, err := s.isBlocked(ctx, tx, event.OrganizerId, applicantId)
		if err != nil {
			return err
		}
		if err := guard(event, blocked); err != nil {
			return err
		}
		app, err = s.insertApplication(ctx, tx, eventId, applicantId, comment)
		return err
	})
	if err != nil {
		return domain.Application{}, domain.Event{}, err
	}
	return app, event.Event, nil
}

// TransitionApplication moves an application to status to. The event row is
// locked first, then the application row, so concurrent approvals of the same
// event are serialized and guard sees a fresh approved count. With
// blockApplicant the organizer's block on the applicant is written in the same
// transaction.
func (s *Storage) TransitionApplication(ctx context.Context, applicationId domain.ApplicationId, to domain.ApplicationStatus, blockApplicant bool, guard domain.TransitionGuard) (domain.Transition, error) {
	var transition domain.Transition
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		eventId, err := s.applicationEventId(ctx, tx, applicationId)
		if err != nil {
			return err
		}
		event, err := s.lockEvent(ctx, tx, eventId)
		if err != nil {
			return err
		}
		app, err := s.lockApplication(ctx, tx, applicationId)
		if err != nil {
			return err
		}
		if err := guard(app, event); err != nil {
			return err
		}
		updated, err := s.setApplicationStatus(ctx, tx, app, to)
		if err != nil {
			return err
		}
		if blockApplicant {
			if _, err := s.insertBlock(ctx, tx, event.OrganizerId, app.ApplicantId); err != nil {
				return err
			}
		}
		transition = domain.Transition{
			Application: updated,
			From:        app.Status,
			OrganizerId: event.OrganizerId,
			EventTitle:  event.Title,
		}
		return nil
	})
	if err != nil {
		return domain.Transition{}, err
	}
	return transition, nil
}

func (s *Storage) Application(ctx context.Context, applicationId domain.ApplicationId) (domain.ApplicationWithEvent, error) {
	return s.application(ctx, s.db, applicationId)
}

func (s *Storage) ApplicationsForEvent(ctx context.Context, eventId domain.EventId) ([]domain.Application, error) {
	return s.applicationsForEvent(ctx, s.db, eventId)
}

func (s *Storage) ApplicationsForUser(ctx context.Context, applicantId domain.UserId) ([]domain.ApplicationWithEvent, error) {
	return s.applicationsForUser(ctx, s.db, applicantId)
}

func (s *Storage) HasApprovedApplication(ctx context.Context, eventId domain.EventId, applicantId domain.UserId) (bool, error) {
	return s.hasApprovedApplication(ctx, s.db, eventId, applicantId)
}

// =========================================================================
// Internal Methods
// =========================================================================

func (s *Storage) insertApplication(ctx context.Context, q Querier, eventId domain.EventId, applicantId domain.UserId, comment string) (domain.Application, error) {
	app, err := scanApplication(q.QueryRowContext(ctx, `
		INSERT INTO applications AS a (event_id, applicant_id, comment, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING `+applicationColumns,
		eventId, applicantId, comment,
	))
	if err != nil {
		if sharedpg.IsUniqueViolation(err, activeApplicationConstraint) {
			return domain.Application{}, internal_errors.Conflict("You already have an active application for this event")
		}
		return domain.Application{}, fmt.Errorf("failed to insert application: %w", err)
	}
	return app, nil
}

func (s *Storage) applicationEventId(ctx context.Context, q Querier, applicationId domain.ApplicationId) (domain.EventId, error) {
	var eventId domain.EventId
	err := q.QueryRowContext(ctx, `SELECT event_id FROM applications WHERE id = $1`, applicationId).Scan(&eventId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return eventId, internal_errors.NotFound("Application not found")
		}
		return eventId, fmt.Errorf("failed to get application event: %w", err)
	}
	return eventId, nil
}

func (s *Storage) lockApplication(ctx context.Context, q Querier, applicationId domain.ApplicationId) (domain.Application, error) {
	app, err := scanApplication(q.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications a WHERE a.id = $1 FOR UPDATE`,
		applicationId,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return app, internal_errors.NotFound("Application not found")
		}
		return app, fmt.Errorf("failed to lock application: %w", err)
	}
	return app, nil
}

// setApplicationStatus is conditional on the status the caller observed.
func (s *Storage) setApplicationStatus(ctx context.Context, q Querier, app domain.Application, to domain.ApplicationStatus) (domain.Application, error) {
	updated, err := scanApplication(q.QueryRowContext(ctx, `
		UPDATE applications AS a
		SET status = $2, updated_at = clock_timestamp()
		WHERE a.id = $1 AND a.status = $3
		RETURNING `+applicationColumns,
		app.Id, to, app.Status,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Application{}, internal_errors.Conflict("Application changed concurrently")
		}
		if sharedpg.IsUniqueViolation(err, activeApplicationConstraint) {
			return domain.Application{}, internal_errors.Conflict("You already have an active application for this event")
		}
		return domain.Application{}, fmt.Errorf("failed to update application status: %w", err)
	}
	return updated, nil
}

func (s *Storage) application(ctx context.Context, q Querier, applicationId domain.ApplicationId) (domain.ApplicationWithEvent, error) {
	app, err := scanApplicationWithEvent(q.QueryRowContext(ctx, `
		SELECT `+applicationColumns+`, `+eventSummaryColumns+`
		FROM applications a
		JOIN events e ON e.id = a.event_id
		WHERE a.id = $1`,
		applicationId,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return app, internal_errors.NotFound("Application not found")
		}
		return app, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

func (s *Storage) applicationsForEvent(ctx context.Context, q Querier, eventId domain.EventId) ([]domain.Application, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications a
		WHERE a.event_id = $1
		ORDER BY a.created_at DESC, a.id`,
		eventId,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query event applications: %w", err)
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}
	return apps, nil
}

func (s *Storage) applicationsForUser(ctx context.Context, q Querier, applicantId domain.UserId) ([]domain.ApplicationWithEvent, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+applicationColumns+`, `+eventSummaryColumns+`
		FROM applications a
		JOIN events e ON e.id = a.event_id
		WHERE a.applicant_id = $1
		ORDER BY a.created_at DESC, a.id`,
		applicantId,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query user applications: %w", err)
	}
	defer rows.Close()

	apps := []domain.ApplicationWithEvent{}
	for rows.Next() {
		app, err := scanApplicationWithEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}
	return apps, nil
}

func (s *Storage) hasApprovedApplication(ctx context.Context, q Querier, eventId domain.EventId, applicantId domain.UserId) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM applications
			WHERE event_id = $1 AND applicant_id = $2 AND status = 'approved'
		)`,
		eventId, applicantId,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check approved application: %w", err)
	}
	return exists, nil
}

func (s *Storage) applicantsWithStatus(ctx context.Context, q Querier, eventId domain.EventId, status domain.ApplicationStatus) ([]domain.UserId, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT applicant_id FROM applications WHERE event_id = $1 AND status = $2 ORDER BY created_at`,
		eventId, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query applicants: %w", err)
	}
	defer rows.Close()

	var ids []domain.UserId
	for rows.Next() {
		var id domain.UserId
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan applicant: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applicants: %w", err)
	}
	return ids, nil
}

const eventSummaryColumns = `e.id, e.organizer_id, e.title, e.start_at, e.end_at, e.status,
	e.prefecture, e.municipality, e.venue_name, e.address`

func scanApplication(row rowScanner) (domain.Application, error) {
	var a domain.Application
	err := row.Scan(&a.Id, &a.EventId, &a.ApplicantId, &a.Comment, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	return a, err
}

func scanApplicationWithEvent(row rowScanner) (domain.ApplicationWithEvent, error) {
	var (
		a domain.ApplicationWithEvent
		e = &a.Event
	)
	err := row.Scan(
		&a.Id, &a.EventId, &a.ApplicantId, &a.Comment, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		&e.Id, &e.OrganizerId, &e.Title, &e.StartAt, &e.EndAt, &e.Status,
		&e.Venue.Prefecture, &e.Venue.Municipality, &e.Venue.Name, &e.Venue.Address,
	)
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	e.StartAt, e.EndAt = e.StartAt.UTC(), e.EndAt.UTC()
	return a, err
}
