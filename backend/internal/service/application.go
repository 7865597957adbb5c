package service

import (
	"context"

	"github.com/practix/practix/backend/internal/notify"
	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
	"github.com/practix/practix/shared/logger"
	"github.com/practix/practix/shared/middleware/metrics"
)

const maxCommentLen = 500

type ApplicationService interface {
	Apply(ctx context.Context, eventId domain.EventId, applicantId domain.UserId, comment string) (domain.ApplicationId, error)
	Cancel(ctx context.Context, applicationId domain.ApplicationId, callerId domain.UserId) error
	Approve(ctx context.Context, applicationId domain.ApplicationId, callerId domain.UserId) error
	Reject(ctx context.Context, applicationId domain.ApplicationId, callerId domain.UserId, block bool) error
	Get(ctx context.Context, applicationId domain.ApplicationId, callerId domain.UserId) (domain.ApplicationWithEvent, error)
	ListForEvent(ctx context.Context, eventId domain.EventId, callerId domain.UserId) ([]domain.Application, error)
	ListForUser(ctx context.Context, callerId domain.UserId) ([]domain.ApplicationWithEvent, error)
}

type ApplicationStorage interface {
	CreateApplication(ctx context.Context, eventId domain.EventId, applicantId domain.UserId, comment string, guard domain.ApplyGuard) (domain.Application, domain.Event, error)
	TransitionApplication(ctx context.Context, applicationId domain.ApplicationId, to domain.ApplicationStatus, blockApplicant bool, guard domain.TransitionGuard) (domain.Transition, error)
	Application(ctx context.Context, applicationId domain.ApplicationId) (domain.ApplicationWithEvent, error)
	ApplicationsForEvent(ctx context.Context, eventId domain.EventId) ([]domain.Application, error)
	ApplicationsForUser(ctx context.Context, applicantId domain.UserId) ([]domain.ApplicationWithEvent, error)
	Event(ctx context.Context, eventId domain.EventId) (domain.EventWithCounts, error)
}

type Application struct {
	storage  ApplicationStorage
	notifier Notifier
	now      Clock
}

func NewApplication(storage ApplicationStorage, notifier Notifier, now Clock) ApplicationService {
	return &Application{storage: storage, notifier: notifier, now: now.orDefault()}
}

func (a *Application) Apply(ctx context.Context, eventId domain.EventId, applicantId domain.UserId, comment string) (domain.ApplicationId, error) {
	if err := requireCaller(applicantId); err != nil {
		return domain.ApplicationId{}, err
	}
	comment, err := sanitizeBounded("Comment", comment, maxCommentLen)
	if err != nil {
		return domain.ApplicationId{}, err
	}

	now := a.now()
	app, event, err := a.storage.CreateApplication(ctx, eventId, applicantId, comment, func(event domain.EventWithCounts, blocked bool) error {
		switch {
		case event.OrganizerId == applicantId:
			return errors.BusinessRule("You cannot apply to your own event")
		case event.Status != domain.EventPublished:
			return errors.BusinessRule("Event is not open for applications")
		case !event.AcceptsApplicationsAt(now):
			return errors.BusinessRule("Application deadline has passed")
		case blocked:
			return errors.BusinessRule("You cannot apply to this organizer's events")
		case domain.RemainingSlots(event.Capacity, event.ApprovedCount) == 0:
			return errors.Conflict("Event is full")
		}
		return nil
	})
	if err != nil {
		return domain.ApplicationId{}, err
	}

	metrics.ApplicationTransitions.WithLabelValues(string(domain.ApplicationPending)).Inc()
	a.notifier.Notify(notify.ApplicationReceived, map[string]string{
		notify.RecipientKey: event.OrganizerId,
		"application_id":    app.Id.String(),
		"event_id":          event.Id.String(),
		"event_title":       event.Title,
		"applicant_id":      applicantId,
	})
	return app.Id, nil
}

func (a *Application) Cancel(ctx context.Context, applicationId domain.ApplicationId, callerId domain.UserId) error {
	if err := requireCaller(callerId); err != nil {
		return err
	}
	tr, err := a.transition(ctx, applicationId, domain.ApplicationCancelled, false, func(app domain.Application, _ domain.EventWithCounts) error {
		if app.ApplicantId != callerId {
			return errors.Permission("Only the applicant can cancel this application")
		}
		return allowTransition(app, domain.ApplicationCancelled, "Application is already closed")
	})
	if err != nil {
		return err
	}

	if tr.From == domain.ApplicationApproved {
		a.notifier.Notify(notify.ParticipantCancelled, transitionPayload(tr, tr.OrganizerId))
	}
	return nil
}

func (a *Application) Approve(ctx context.Context, applicationId domain.ApplicationId, callerId domain.UserId) error {
	if err := requireCaller(callerId); err != nil {
		return err
	}
	tr, err := a.transition(ctx, applicationId, domain.ApplicationApproved, false, func(app domain.Application, event domain.EventWithCounts) error {
		if err := organizerDecision(app, event, callerId, domain.ApplicationApproved); err != nil {
			return err
		}
		if event.Status == domain.EventCancelled {
			return errors.BusinessRule("Event is cancelled")
		}
		if domain.RemainingSlots(event.Capacity, event.ApprovedCount) == 0 {
			metrics.CapacityConflicts.Inc()
			return errors.Conflict("Capacity reached")
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.notifier.Notify(notify.ApplicationApproved, transitionPayload(tr, tr.Application.ApplicantId))
	return nil
}

func (a *Application) Reject(ctx context.Context, applicationId domain.ApplicationId, callerId domain.UserId, block bool) error {
	if err := requireCaller(callerId); err != nil {
		return err
	}
	tr, err := a.transition(ctx, applicationId, domain.ApplicationRejected, block, func(app domain.Application, event domain.EventWithCounts) error {
		return organizerDecision(app, event, callerId, domain.ApplicationRejected)
	})
	if err != nil {
		return err
	}

	if block {
		logger.Log.Info("applicant blocked on rejection", "organizer_id", tr.OrganizerId, "user_id", tr.Application.ApplicantId)
	}
	a.notifier.Notify(notify.ApplicationRejected, transitionPayload(tr, tr.Application.ApplicantId))
	return nil
}

func (a *Application) Get(ctx context.Context, applicationId domain.ApplicationId, callerId domain.UserId) (domain.ApplicationWithEvent, error) {
	if err := requireCaller(callerId); err != nil {
		return domain.ApplicationWithEvent{}, err
	}
	app, err := a.storage.Application(ctx, applicationId)
	if err != nil {
		return domain.ApplicationWithEvent{}, err
	}
	if app.ApplicantId != callerId && app.Event.OrganizerId != callerId {
		return domain.ApplicationWithEvent{}, errors.Permission("You cannot view this application")
	}
	return app, nil
}

func (a *Application) ListForEvent(ctx context.Context, eventId domain.EventId, callerId domain.UserId) ([]domain.Application, error) {
	if err := requireCaller(callerId); err != nil {
		return nil, err
	}
	event, err := a.storage.Event(ctx, eventId)
	if err != nil {
		return nil, err
	}
	if event.OrganizerId != callerId {
		return nil, errors.Permission("Only the organizer can list applications")
	}
	return a.storage.ApplicationsForEvent(ctx, eventId)
}

func (a *Application) ListForUser(ctx context.Context, callerId domain.UserId) ([]domain.ApplicationWithEvent, error) {
	if err := requireCaller(callerId); err != nil {
		return nil, err
	}
	return a.storage.ApplicationsForUser(ctx, callerId)
}

func (a *Application) transition(ctx context.Context, id domain.ApplicationId, to domain.ApplicationStatus, block bool, guard domain.TransitionGuard) (domain.Transition, error) {
	tr, err := a.storage.TransitionApplication(ctx, id, to, block, guard)
	if err != nil {
		return tr, err
	}
	metrics.ApplicationTransitions.WithLabelValues(string(to)).Inc()
	logger.Log.Debug("application transition", "application_id", id, "from", tr.From, "to", to)
	return tr, nil
}

// organizerDecision holds the preconditions shared by approve and reject.
func organizerDecision(app domain.Application, event domain.EventWithCounts, callerId domain.UserId, to domain.ApplicationStatus) error {
	if event.OrganizerId != callerId {
		return errors.Permission("Only the organizer can decide on applications")
	}
	return allowTransition(app, to, "Only pending applications can be decided")
}

// allowTransition checks the move against the application state machine.
func allowTransition(app domain.Application, to domain.ApplicationStatus, message string) error {
	if !app.Status.CanTransition(to) {
		return errors.BusinessRule(message)
	}
	return nil
}

func transitionPayload(tr domain.Transition, recipient domain.UserId) map[string]string {
	return map[string]string{
		notify.RecipientKey: recipient,
		"application_id":    tr.Application.Id.String(),
		"event_id":          tr.Application.EventId.String(),
		"event_title":       tr.EventTitle,
		"applicant_id":      tr.Application.ApplicantId,
	}
}
