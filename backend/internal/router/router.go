package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/practix/practix/backend/internal/handler"
	"github.com/practix/practix/shared/config"
	mw "github.com/practix/practix/shared/middleware"
	"github.com/practix/practix/shared/middleware/metrics"
	rl "github.com/practix/practix/shared/middleware/ratelimiter"
)

const (
	defaultApplyRate   = 1.0 / 5 // one application every 5 seconds
	defaultMessageRate = 1.0
	defaultBurst       = 3
	limiterExpiration  = time.Hour
)

// New creates the chi router with all the routes.
// IMPORTANT! ratelimiters set with .Use limit requests for all endpoints combined in that group
func New(h *handler.Handler, auth *mw.Auth, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(chimw.Compress(5, "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Public.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", mw.CSRFHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeaders(cfg.Public.SecureCookies))
	r.Use(mw.CSRF(cfg.Public.SecureCookies))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	limits := cfg.Public.RateLimits
	burst := orDefault(limits.Burst, defaultBurst)
	applyLimit := mw.RateLimit(rl.New(orDefault(limits.ApplyPerSecond, defaultApplyRate), burst, limiterExpiration), mw.GetUserIDFromContext)
	messageLimit := mw.RateLimit(rl.New(orDefault(limits.MessagePerSecond, defaultMessageRate), burst, limiterExpiration), mw.GetUserIDFromContext)

	r.Route("/v1", func(v1 chi.Router) {
		// Public browsing, 10 RPS by IP
		v1.Group(func(public chi.Router) {
			public.Use(mw.RateLimit(rl.Rps10(), mw.GetIP))
			public.Use(auth.OptionalAuth())
			public.Get("/events", h.ListEvents)
			public.Get("/events/{eventId}", h.GetEvent)
			public.Get("/events/{eventId}/capacity", h.GetEventCapacity)
		})

		v1.Group(func(loggedIn chi.Router) {
			loggedIn.Use(auth.NeedAuth())

			loggedIn.Post("/events", h.CreateEvent)
			loggedIn.Put("/events/{eventId}", h.UpdateEvent)
			loggedIn.Post("/events/{eventId}/cancel", h.CancelEvent)
			loggedIn.Get("/me/events", h.ListMyEvents)

			loggedIn.With(applyLimit).Post("/events/{eventId}/applications", h.Apply)
			loggedIn.Get("/events/{eventId}/applications", h.ListEventApplications)
			loggedIn.Get("/me/applications", h.ListMyApplications)
			loggedIn.Get("/applications/{applicationId}", h.GetApplication)
			loggedIn.Post("/applications/{applicationId}/cancel", h.CancelApplication)
			loggedIn.Post("/applications/{applicationId}/approve", h.ApproveApplication)
			loggedIn.Post("/applications/{applicationId}/reject", h.RejectApplication)

			loggedIn.Get("/blocks", h.ListBlocks)
			loggedIn.Post("/blocks", h.BlockUser)
			loggedIn.Delete("/blocks/{userId}", h.UnblockUser)

			loggedIn.Post("/events/{eventId}/conversations", h.OpenConversation)
			loggedIn.Post("/events/{eventId}/read/{counterpartId}", h.MarkReadWith)
			loggedIn.Get("/conversations", h.ListConversations)
			loggedIn.Get("/conversations/{conversationId}/messages", h.ListMessages)
			loggedIn.With(messageLimit).Post("/conversations/{conversationId}/messages", h.SendMessage)
			loggedIn.Post("/conversations/{conversationId}/read", h.MarkRead)
			loggedIn.Get("/me/unread", h.UnreadCount)

			loggedIn.Get("/me/notifications", h.PollNotifications)
			loggedIn.Get("/me/notifications/stream", h.StreamNotifications)
		})
	})

	return r
}

func orDefault(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}
