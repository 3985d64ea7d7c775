package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/logging"
)

type messageBody struct {
	Message string `json:"message"`
}

type ackBody struct {
	Acknowledged bool   `json:"acknowledged"`
	Message      string `json:"message,omitempty"`
}

type insertBody struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type updateBody struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type deleteBody struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// conflictMessages are the user-facing texts of conflicts, which are
// answered with 200 and acknowledged=false.
var conflictMessages = []struct {
	err error
	msg string
}{
	{common.ErrorEmailInUse, "This email is already in use"},
	{common.ErrorAlreadyBooked, "You have already booked this product"},
	{common.ErrorProductSold, "This product is already sold"},
	{common.ErrorConflict, "The resource was modified concurrently, please retry"},
}

// writeError maps err onto the response contract. ErrorSettlement is checked
// first: a settlement may wrap a conflict sentinel from its last write.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, common.ErrorSettlement):
		logger.Error(ctx, "settlement failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: "payment settlement failed"})
		return
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, messageBody{Message: "unauthorized access"})
		return
	case errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		writeJSON(w, http.StatusForbidden, messageBody{Message: "forbidden access"})
		return
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, messageBody{Message: "not found"})
		return
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, messageBody{Message: err.Error()})
		return
	case errors.Is(err, common.ErrorSettlementInProgress):
		writeJSON(w, http.StatusConflict, messageBody{Message: "payment settlement in progress"})
		return
	}

	for _, c := range conflictMessages {
		if errors.Is(err, c.err) {
			writeJSON(w, http.StatusOK, ackBody{Acknowledged: false, Message: c.msg})
			return
		}
	}

	logger.Error(ctx, "request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, messageBody{Message: "internal error"})
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty body", common.ErrorValidation)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json", common.ErrorValidation)
	}
	return nil
}

// amount accepts both JSON numbers and numeric strings, as form-driven
// clients send prices either way.
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*a = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid number %q", s)
	}
	*a = amount(f)
	return nil
}

// count is an amount that must be a whole number, e.g. years of use.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	var a amount
	if err := a.UnmarshalJSON(b); err != nil {
		return err
	}
	f := float64(a)
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("invalid whole number %v", f)
	}
	*c = count(f)
	return nil
}
