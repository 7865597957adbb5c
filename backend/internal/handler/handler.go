package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/practix/practix/backend/internal/notify"
	"github.com/practix/practix/backend/internal/service"
	"github.com/practix/practix/shared/config"
	"github.com/practix/practix/shared/errors"
	"github.com/practix/practix/shared/utils"
)

// HealthChecker is satisfied by the storage.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// NotificationFeed is the per-user view of the notification broker.
type NotificationFeed interface {
	Poll(recipient string, after int64) []notify.Event
	Subscribe(recipient string) (<-chan notify.Event, func())
}

type Handler struct {
	event       service.EventService
	application service.ApplicationService
	block       service.BlockService
	chat        service.ChatService
	feed        NotificationFeed
	health      HealthChecker
	cfg         *config.Config
	now         func() time.Time
}

func New(
	event service.EventService,
	application service.ApplicationService,
	block service.BlockService,
	chat service.ChatService,
	feed NotificationFeed,
	health HealthChecker,
	cfg *config.Config,
) *Handler {
	return &Handler{
		event:       event,
		application: application,
		block:       block,
		chat:        chat,
		feed:        feed,
		health:      health,
		cfg:         cfg,
		now:         time.Now,
	}
}

// uuidParam parses a route parameter as an id.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errors.Validation(fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, errors.Validation(fmt.Sprintf("Invalid %s: must be an integer", paramName))
	}
	return val, nil
}

// decodeOptional decodes a JSON body when one was sent.
func decodeOptional(r *http.Request, body any) error {
	if r.ContentLength == 0 {
		return nil
	}
	return utils.DecodeValidate(r.Body, body)
}
