package setup

import (
	"context"

	"github.com/practix/practix/backend/internal/handler"
	"github.com/practix/practix/backend/internal/notify"
	"github.com/practix/practix/backend/internal/service"
	"github.com/practix/practix/backend/internal/storage/pg"
	"github.com/practix/practix/shared/config"
	"github.com/practix/practix/shared/jwt"
	"github.com/practix/practix/shared/logger"
	mw "github.com/practix/practix/shared/middleware"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Dispatcher     *notify.Dispatcher
	Broker         *notify.Broker
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
}

// SetupDependencies initializes all dependencies required for the application.
// The dispatcher is created but not started.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	broker := notify.NewBroker(0)
	dispatcher := notify.NewDispatcher(cfg.Public.Notifications.QueueSize, cfg.Public.Notifications.Workers, sinks(cfg, broker)...)

	event := service.NewEvent(storage, dispatcher, service.EventConfig{
		Location: cfg.Public.Location(),
		PerPage:  cfg.Public.EventsPerPage,
	}, nil)
	application := service.NewApplication(storage, dispatcher, nil)
	block := service.NewBlock(storage)
	chat := service.NewChat(storage, dispatcher, nil)

	h := handler.New(event, application, block, chat, broker, storage, cfg)

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Dispatcher:     dispatcher,
		Broker:         broker,
		Handler:        h,
		AuthMiddleware: mw.NewAuth(jwt.New(cfg.JwtKey(), cfg.JwtTTL())),
	}, nil
}

func sinks(cfg *config.Config, broker *notify.Broker) []notify.Sink {
	result := []notify.Sink{notify.NewLogSink(), broker}
	email := cfg.Private.Email
	if email.SMTPServer == "" || email.RelayMailbox == "" {
		logger.Log.Info("smtp relay disabled")
		return result
	}
	return append(result, notify.NewMailSink(notify.NewSMTP(&email), email.RelayMailbox))
}
