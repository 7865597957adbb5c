package handler

import (
	"net/http"
	"time"

	"github.com/practix/practix/shared/api"
	"github.com/practix/practix/shared/domain"
	"github.com/practix/practix/shared/errors"
	mw "github.com/practix/practix/shared/middleware"
	"github.com/practix/practix/shared/utils"
)

const (
	default_page = 1
	dateLayout   = "2006-01-02"
)

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseEventFilter(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	events, err := h.event.ListPublished(r.Context(), filter)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.EventsResponse{
		Events:  eventResponses(events),
		Page:    filter.Page,
		PerPage: filter.PerPage,
	})
}

func (h *Handler) parseEventFilter(r *http.Request) (domain.EventFilter, error) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		Bucket:       domain.DateBucket(q.Get("bucket")),
		Prefecture:   q.Get("prefecture"),
		Municipality: q.Get("municipality"),
		Level:        domain.Level(q.Get("level")),
		Page:         default_page,
		PerPage:      h.cfg.Public.EventsPerPage,
	}

	if d := q.Get("date"); d != "" {
		date, err := time.Parse(dateLayout, d)
		if err != nil {
			return filter, errors.Validation("Invalid date: expected YYYY-MM-DD")
		}
		filter.Date = &date
	}
	if p := q.Get("page"); p != "" {
		page, err := parseIntParam(p, "page")
		if err != nil {
			return filter, err
		}
		filter.Page = max(default_page, page)
	}
	if pp := q.Get("per_page"); pp != "" {
		perPage, err := parseIntParam(pp, "per_page")
		if err != nil {
			return filter, err
		}
		if perPage >= 1 && perPage < filter.PerPage {
			filter.PerPage = perPage
		}
	}
	return filter, nil
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuidParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	event, err := h.event.Get(r.Context(), eventId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewEventResponse(event))
}

func (h *Handler) GetEventCapacity(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuidParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	capacity, err := h.event.Capacity(r.Context(), eventId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewCapacityResponse(capacity))
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var body api.EventRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.event.Create(r.Context(), mw.CallerId(r), body.Fields())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.IdResponse{Id: id.String()})
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuidParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.EventRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.event.Update(r.Context(), eventId, mw.CallerId(r), body.Fields()); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.IdResponse{Id: eventId.String()})
}

func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuidParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.event.Cancel(r.Context(), eventId, mw.CallerId(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.IdResponse{Id: eventId.String()})
}

func (h *Handler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.event.ListOrganized(r.Context(), mw.CallerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.EventsResponse{Events: eventResponses(events), Page: default_page, PerPage: len(events)})
}

func eventResponses(events []domain.EventWithCounts) []api.EventResponse {
	out := make([]api.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, api.NewEventResponse(e))
	}
	return out
}
