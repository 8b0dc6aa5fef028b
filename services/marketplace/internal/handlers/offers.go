package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/pilgrim-quotes/internal/http/response"
	"github.com/diagnosis/pilgrim-quotes/services/marketplace/internal/domain"
)

type compareRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handlers) ListOffersForRequest(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	offers, err := h.marketplace.GetOffersForRequest(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, offers)
}

// CreateOffer takes the request id from the path; a request_id in the body is ignored.
func (h *Handlers) CreateOffer(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	var in domain.OfferInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.RequestID = chi.URLParam(r, "id")

	offer, err := h.marketplace.CreateOffer(r.Context(), rc, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, offer)
}

func (h *Handlers) GetOffer(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	offer, err := h.marketplace.GetOffer(r.Context(), rc, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if offer == nil {
		response.NotFound(w, domain.ErrNotFound.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, offer)
}

func (h *Handlers) CompareOffers(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	var in compareRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	rows, err := h.marketplace.CompareOffers(r.Context(), rc, chi.URLParam(r, "id"), in.IDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, rows)
}

func (h *Handlers) ListBookingIntents(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	intents, err := h.marketplace.GetBookingIntents(r.Context(), rc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, intents)
}

func (h *Handlers) CreateBookingIntent(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	var in domain.BookingIntentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	intent, err := h.marketplace.CreateBookingIntent(r.Context(), rc, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, intent)
}
