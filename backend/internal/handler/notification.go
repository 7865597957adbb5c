package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/practix/practix/backend/internal/notify"
	"github.com/practix/practix/shared/api"
	"github.com/practix/practix/shared/errors"
	"github.com/practix/practix/shared/logger"
	mw "github.com/practix/practix/shared/middleware"
	"github.com/practix/practix/shared/utils"
)

const streamHeartbeat = 25 * time.Second

// PollNotifications handles GET /v1/me/notifications?after=N
func (h *Handler) PollNotifications(w http.ResponseWriter, r *http.Request) {
	caller := mw.CallerId(r)
	if caller == "" {
		utils.WriteErrorAndStatusCode(w, errors.Auth("Please sign-in"))
		return
	}
	var after int64
	if a := r.URL.Query().Get("after"); a != "" {
		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil || n < 0 {
			utils.WriteErrorAndStatusCode(w, errors.Validation("Invalid after: must be a non-negative integer"))
			return
		}
		after = n
	}

	events := h.feed.Poll(caller, after)
	resp := api.NotificationsResponse{Notifications: make([]api.NotificationResponse, 0, len(events)), Last: after}
	for _, e := range events {
		resp.Notifications = append(resp.Notifications, notificationResponse(e))
		resp.Last = max(resp.Last, e.Seq)
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

// StreamNotifications handles GET /v1/me/notifications/stream as server-sent events.
func (h *Handler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	caller := mw.CallerId(r)
	if caller == "" {
		utils.WriteErrorAndStatusCode(w, errors.Auth("Please sign-in"))
		return
	}

	rc := http.NewResponseController(w)
	// the stream outlives the server write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	events, release := h.feed.Subscribe(caller)
	defer release()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		logger.Log.Warn("notification stream cannot flush", "error", err)
		return
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(notificationResponse(e))
			if err != nil {
				logger.Log.Error("failed to encode notification", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Type, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func notificationResponse(e notify.Event) api.NotificationResponse {
	return api.NotificationResponse{Seq: e.Seq, Type: e.Type, Payload: e.Payload, At: e.At}
}
