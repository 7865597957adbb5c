package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/practix/practix/shared/api"
	mw "github.com/practix/practix/shared/middleware"
	"github.com/practix/practix/shared/utils"
)

func (h *Handler) OpenConversation(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuidParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.OpenConversationRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	conv, err := h.chat.OpenConversation(r.Context(), eventId, mw.CallerId(r), body.CounterpartId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewConversationResponse(conv))
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chat.Conversations(r.Context(), mw.CallerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewConversationsResponse(summaries, h.now()))
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "conversationId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	messages, err := h.chat.Messages(r.Context(), id, mw.CallerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewMessagesResponse(messages))
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "conversationId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.SendMessageRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	msg, err := h.chat.Send(r.Context(), id, mw.CallerId(r), body.Body)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.NewMessageResponse(msg))
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "conversationId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.chat.MarkRead(r.Context(), id, mw.CallerId(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.IdResponse{Id: id.String()})
}

// MarkReadWith handles POST /v1/events/{eventId}/read/{counterpartId}
func (h *Handler) MarkReadWith(w http.ResponseWriter, r *http.Request) {
	eventId, err := uuidParam(r, "eventId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	counterpartId := chi.URLParam(r, "counterpartId")
	if err := h.chat.MarkReadWith(r.Context(), eventId, counterpartId, mw.CallerId(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.IdResponse{Id: eventId.String()})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.chat.UnreadCount(r.Context(), mw.CallerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.CountResponse{Count: n})
}
