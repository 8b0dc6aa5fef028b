package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/pilgrim-quotes/internal/http/response"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

func (h *Handlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	reqs, err := h.marketplace.GetRequests(r.Context(), rc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, reqs)
}

func (h *Handlers) CreateRequest(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	var in domain.RequestInput
	if !decodeJSON(w, r, &in) {
		return
	}
	req, err := h.marketplace.CreateRequest(r.Context(), rc, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handlers) GetRequest(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	req, err := h.marketplace.GetRequestByID(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req == nil {
		response.NotFound(w, domain.ErrNotFound.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, req)
}
