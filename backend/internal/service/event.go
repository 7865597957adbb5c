package service

import (
	"context"
	"fmt"
	"time"

	"github.com/practix/practix/backend/internal/notify"
	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
	"github.com/practix/practix/shared/logger"
	"github.com/practix/practix/shared/utils"
)

// to mock service in tests
type EventService interface {
	Create(ctx context.Context, organizerId domain.UserId, fields domain.EventFields) (domain.EventId, error)
	Update(ctx context.Context, eventId domain.EventId, organizerId domain.UserId, fields domain.EventFields) error
	Cancel(ctx context.Context, eventId domain.EventId, organizerId domain.UserId) error
	Get(ctx context.Context, eventId domain.EventId) (domain.EventWithCounts, error)
	Capacity(ctx context.Context, eventId domain.EventId) (domain.CapacityState, error)
	ListPublished(ctx context.Context, filter domain.EventFilter) ([]domain.EventWithCounts, error)
	ListOrganized(ctx context.Context, organizerId domain.UserId) ([]domain.EventWithCounts, error)
}

type EventStorage interface {
	CreateEvent(ctx context.Context, organizerId domain.UserId, fields domain.EventFields) (domain.EventId, error)
	UpdateEvent(ctx context.Context, eventId domain.EventId, fields domain.EventFields, guard domain.EventGuard) error
	CancelEvent(ctx context.Context, eventId domain.EventId, guard domain.EventGuard) (domain.Event, []domain.UserId, error)
	Event(ctx context.Context, eventId domain.EventId) (domain.EventWithCounts, error)
	Capacity(ctx context.Context, eventId domain.EventId) (domain.CapacityState, error)
	ListPublishedEvents(ctx context.Context, query domain.EventQuery) ([]domain.EventWithCounts, error)
	ListOrganizedEvents(ctx context.Context, organizerId domain.UserId) ([]domain.EventWithCounts, error)
}

type EventConfig struct {
	Location *time.Location // region time zone for date buckets
	PerPage  int
}

type Event struct {
	storage  EventStorage
	notifier Notifier
	cfg      EventConfig
	now      Clock
}

func NewEvent(storage EventStorage, notifier Notifier, cfg EventConfig, now Clock) EventService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PerPage < 1 {
		cfg.PerPage = 20
	}
	return &Event{storage: storage, notifier: notifier, cfg: cfg, now: now.orDefault()}
}

func (e *Event) Create(ctx context.Context, organizerId domain.UserId, fields domain.EventFields) (domain.EventId, error) {
	if err := requireCaller(organizerId); err != nil {
		return domain.EventId{}, err
	}
	if fields.Status == "" {
		fields.Status = domain.EventPublished
	}
	fields, err := prepareFields(fields)
	if err != nil {
		return domain.EventId{}, err
	}
	if fields.Status == domain.EventCancelled {
		return domain.EventId{}, errors.Validation("A new event must be draft or published")
	}
	return e.storage.CreateEvent(ctx, organizerId, fields)
}

func (e *Event) Update(ctx context.Context, eventId domain.EventId, organizerId domain.UserId, fields domain.EventFields) error {
	if err := requireCaller(organizerId); err != nil {
		return err
	}
	fields, err := prepareFields(fields)
	if err != nil {
		return err
	}
	if fields.Status == domain.EventCancelled {
		return errors.Validation("Use cancel to cancel an event")
	}

	now := e.now()
	return e.storage.UpdateEvent(ctx, eventId, fields, func(current domain.EventWithCounts) error {
		if current.OrganizerId != organizerId {
			return errors.Permission("Only the organizer can edit this event")
		}
		if current.Status == domain.EventCancelled {
			return errors.BusinessRule("Cancelled events cannot be edited")
		}
		if current.Started(now) {
			return errors.BusinessRule("Events cannot be edited after they start")
		}
		if current.Status == domain.EventPublished && fields.Status == domain.EventDraft {
			return errors.BusinessRule("A published event cannot return to draft")
		}
		if fields.Capacity < current.ApprovedCount {
			return errors.BusinessRule(fmt.Sprintf("Capacity cannot be lower than the %d approved participants", current.ApprovedCount))
		}
		return nil
	})
}

func (e *Event) Cancel(ctx context.Context, eventId domain.EventId, organizerId domain.UserId) error {
	if err := requireCaller(organizerId); err != nil {
		return err
	}
	event, approved, err := e.storage.CancelEvent(ctx, eventId, func(current domain.EventWithCounts) error {
		if current.OrganizerId != organizerId {
			return errors.Permission("Only the organizer can cancel this event")
		}
		if current.Status == domain.EventCancelled {
			return errors.BusinessRule("Event is already cancelled")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Log.Info("event cancelled", "event_id", eventId, "notified", len(approved))
	for _, applicantId := range approved {
		e.notifier.Notify(notify.EventCancelled, map[string]string{
			notify.RecipientKey: applicantId,
			"event_id":          event.Id.String(),
			"event_title":       event.Title,
		})
	}
	return nil
}

func (e *Event) Get(ctx context.Context, eventId domain.EventId) (domain.EventWithCounts, error) {
	return e.storage.Event(ctx, eventId)
}

// Capacity reports approved, pending and remaining slots. Figures are recounted on every call.
func (e *Event) Capacity(ctx context.Context, eventId domain.EventId) (domain.CapacityState, error) {
	return e.storage.Capacity(ctx, eventId)
}

func (e *Event) ListPublished(ctx context.Context, filter domain.EventFilter) ([]domain.EventWithCounts, error) {
	query, err := e.resolveFilter(filter)
	if err != nil {
		return nil, err
	}
	return e.storage.ListPublishedEvents(ctx, query)
}

func (e *Event) ListOrganized(ctx context.Context, organizerId domain.UserId) ([]domain.EventWithCounts, error) {
	if err := requireCaller(organizerId); err != nil {
		return nil, err
	}
	return e.storage.ListOrganizedEvents(ctx, organizerId)
}

func (e *Event) resolveFilter(filter domain.EventFilter) (domain.EventQuery, error) {
	now := e.now()
	query := domain.EventQuery{
		NotBefore:    now,
		Prefecture:   filter.Prefecture,
		Municipality: filter.Municipality,
		Level:        filter.Level,
	}

	if filter.Date != nil {
		query.StartRange = domain.DayRange(*filter.Date, e.cfg.Location)
	} else {
		r, err := domain.BucketRange(filter.Bucket, now, e.cfg.Location)
		if err != nil {
			return query, errors.Validation(err.Error())
		}
		query.StartRange = r
	}

	switch filter.Level {
	case "", domain.LevelBeginner, domain.LevelIntermediate, domain.LevelAdvanced, domain.LevelAny:
	default:
		return query, errors.Validation(fmt.Sprintf("unknown level %q", filter.Level))
	}

	perPage := filter.PerPage
	if perPage < 1 || perPage > e.cfg.PerPage {
		perPage = e.cfg.PerPage
	}
	page := max(1, filter.Page)
	query.Limit = perPage
	query.Offset = (page - 1) * perPage
	return query, nil
}

// prepareFields sanitizes the free text and validates the result.
func prepareFields(f domain.EventFields) (domain.EventFields, error) {
	f.Title = utils.SanitizeText(f.Title)
	f.Category = utils.SanitizeText(f.Category)
	f.Description = utils.SanitizeText(f.Description)
	f.Rules = utils.SanitizeText(f.Rules)
	f.Equipment = utils.SanitizeText(f.Equipment)
	f.Notes = utils.SanitizeText(f.Notes)
	f.Venue.Prefecture = utils.SanitizeText(f.Venue.Prefecture)
	f.Venue.Municipality = utils.SanitizeText(f.Venue.Municipality)
	f.Venue.Name = utils.SanitizeText(f.Venue.Name)
	f.Venue.Address = utils.SanitizeText(f.Venue.Address)
	if f.Level == "" {
		f.Level = domain.LevelAny
	}
	f.StartAt, f.EndAt = f.StartAt.UTC(), f.EndAt.UTC()

	if err := validateStruct(f); err != nil {
		return f, err
	}
	return f, nil
}
