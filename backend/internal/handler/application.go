package handler

import (
	"context"
	"net/http"

	"github.com/practix/practix/shared/api"
	"github.com/practix/practix/shared/domain"
	mw "github.com/practix/practix/shared/middleware"
	"github.com/practix/practix/shared/utils"
)

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuidParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.ApplyRequest
	if err := decodeOptional(r, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.application.Apply(r.Context(), eventId, mw.CallerId(r), body.Comment)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.IdResponse{Id: id.String()})
}

func (h *Handler) ListEventApplications(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuidParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	apps, err := h.application.ListForEvent(r.Context(), eventId, mw.CallerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, api.NewApplicationResponse(a))
	}
	utils.WriteJSON(w, http.StatusOK, api.ApplicationsResponse{Applications: out})
}

func (h *Handler) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.application.ListForUser(r.Context(), mw.CallerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.ApplicationResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, api.NewApplicationWithEventResponse(a))
	}
	utils.WriteJSON(w, http.StatusOK, api.ApplicationsResponse{Applications: out})
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "applicationId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	app, err := h.application.Get(r.Context(), id, mw.CallerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewApplicationWithEventResponse(app))
}

func (h *Handler) CancelApplication(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.application.Cancel)
}

func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.application.Approve)
}

func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	var body api.RejectRequest
	if err := decodeOptional(r, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.decide(w, r, func(ctx context.Context, id domain.ApplicationId, callerId domain.UserId) error {
		return h.application.Reject(ctx, id, callerId, body.Block)
	})
}

// decide runs a status transition on the application named in the route.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, transition func(ctx context.Context, id domain.ApplicationId, callerId domain.UserId) error) {
	id, err := uuidParam(r, "applicationId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := transition(r.Context(), id, mw.CallerId(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.IdResponse{Id: id.String()})
}
