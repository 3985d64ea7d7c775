package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/basementofbooks/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type bookingRequest struct {
	Product         string `json:"product"`
	BuyerName       string `json:"buyerName"`
	Phone           string `json:"phone"`
	MeetingLocation string `json:"meetingLocation"`
}

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	b, err := h.svc.Bookings.Book(r.Context(), services.BookingInput{
		ProductID:       req.Product,
		BuyerName:       req.BuyerName,
		Phone:           req.Phone,
		MeetingLocation: req.MeetingLocation,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, insertBody{Acknowledged: true, InsertedID: b.ID})
}

// listBookings serves GET /bookings?email=, which only returns the caller's own.
func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	bs, err := h.svc.Bookings.ListByBuyer(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
