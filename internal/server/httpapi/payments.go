package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/basementofbooks/internal/server/services"
)

type intentRequest struct {
	Price amount `json:"price"`
}

type intentBody struct {
	ClientSecret string `json:"clientSecret"`
}

type paymentRequest struct {
	BookingID     string `json:"bookingId"`
	ProductID     string `json:"productId"`
	Price         amount `json:"price"`
	TransactionID string `json:"transactionId"`
}

func (h *Handler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	secret, err := h.svc.Payments.CreateIntent(r.Context(), float64(req.Price))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, intentBody{ClientSecret: secret})
}

// settlePayment serves POST /payments. Replaying a settled booking answers
// with the original payment id.
func (h *Handler) settlePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	p, created, err := h.svc.Payments.Settle(r.Context(), services.SettleInput{
		BookingID:     req.BookingID,
		ProductID:     req.ProductID,
		Amount:        float64(req.Price),
		TransactionID: req.TransactionID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if created {
		h.logger.Info(r.Context(), "payment settled", "booking", p.BookingID, "product", p.ProductID)
	}
	writeJSON(w, http.StatusOK, insertBody{Acknowledged: true, InsertedID: p.ID})
}
