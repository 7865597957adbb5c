package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/practix/practix/shared/api"
	mw "github.com/practix/practix/shared/middleware"
	"github.com/practix/practix/shared/utils"
)

// ListBlocks handles GET /v1/blocks
func (h *Handler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.block.List(r.Context(), mw.CallerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewBlocksResponse(blocks))
}

// BlockUser handles POST /v1/blocks
func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	var body api.BlockUserRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.block.Block(r.Context(), mw.CallerId(r), body.UserId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.IdResponse{Id: body.UserId})
}

// UnblockUser handles DELETE /v1/blocks/{userId}
func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	userId := chi.URLParam(r, "userId")
	if err := h.block.Unblock(r.Context(), mw.CallerId(r), userId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.IdResponse{Id: userId})
}
