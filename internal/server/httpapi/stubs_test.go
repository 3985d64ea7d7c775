package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/logging"
	"github.com/dmitrijs2005/basementofbooks/internal/server/auth"
	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/dmitrijs2005/basementofbooks/internal/server/services"
)

// stubTokens accepts "token-<email>" and rejects everything else.
type stubTokens struct{ known map[string]bool }

func (s stubTokens) Issue(_ context.Context, email string) (string, error) {
	if !s.known[email] {
		return "", common.ErrorForbidden
	}
	return "token-" + email, nil
}

func (stubTokens) Verify(token string) (string, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}
	email, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return "", common.ErrInvalidToken
	}
	return email, nil
}

type stubUsers struct {
	registered []services.RegisterInput
	err        error
}

func (s *stubUsers) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.registered = append(s.registered, in)
	return &models.User{ID: "u-1", Email: in.Email, Role: in.Role}, nil
}

func (s *stubUsers) List(context.Context) ([]models.User, error) {
	return []models.User{{ID: "u-1", Email: "a@example.com", Role: models.RoleBuyer}}, s.err
}

func (s *stubUsers) RoleOf(_ context.Context, email string) (*services.RoleInfo, error) {
	return &services.RoleInfo{Role: models.RoleSeller, IsSeller: true}, s.err
}

func (s *stubUsers) IsVerifiedSeller(context.Context, string) (bool, error) { return true, s.err }

func (s *stubUsers) ListSellers(ctx context.Context) ([]models.User, error) {
	if email, _ := auth.EmailFromContext(ctx); email != "admin@example.com" {
		return nil, common.ErrorForbidden
	}
	return []models.User{}, s.err
}

func (s *stubUsers) VerifySeller(context.Context, string) (services.WriteResult, error) {
	return services.WriteResult{Matched: 1, Modified: 1}, s.err
}

func (s *stubUsers) DeleteSeller(context.Context, string) (int64, error) { return 1, s.err }

type stubCategories struct{}

func (stubCategories) List(context.Context) ([]models.Category, error) {
	return []models.Category{{ID: "1", Name: "Fiction"}}, nil
}

type stubProducts struct {
	created []services.ProductInput
	err     error
	caller  string
}

func (s *stubProducts) Create(ctx context.Context, in services.ProductInput) (*models.Product, error) {
	s.caller, _ = auth.EmailFromContext(ctx)
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, in)
	return &models.Product{ID: "p-1"}, nil
}

func (s *stubProducts) Advertise(context.Context, string) (services.WriteResult, error) {
	return services.WriteResult{Matched: 1, Modified: 1}, s.err
}

func (s *stubProducts) Delete(context.Context, string) (int64, error) { return 1, s.err }

func (s *stubProducts) ListByCategory(_ context.Context, id string) ([]models.Product, error) {
	if id != "1" {
		return nil, common.ErrorNotFound
	}
	return []models.Product{{ID: "p-1", CategoryID: "1"}}, nil
}

func (s *stubProducts) ListAdvertised(context.Context) ([]models.Product, error) {
	return []models.Product{{ID: "p-1", Advertised: true}}, s.err
}

func (s *stubProducts) ListBySeller(context.Context, string) ([]models.Product, error) {
	return []models.Product{}, s.err
}

func (s *stubProducts) Get(_ context.Context, id string) (*models.Product, error) {
	if id != "p-1" {
		return nil, common.ErrorNotFound
	}
	return &models.Product{ID: "p-1"}, nil
}

type stubBookings struct {
	booked []services.BookingInput
	err    error
}

func (s *stubBookings) Book(_ context.Context, in services.BookingInput) (*models.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.booked = append(s.booked, in)
	return &models.Booking{ID: "b-1"}, nil
}

func (s *stubBookings) ListByBuyer(ctx context.Context, email string) ([]models.Booking, error) {
	if caller, _ := auth.EmailFromContext(ctx); caller != email {
		return nil, common.ErrorForbidden
	}
	return []models.Booking{{ID: "b-1", BuyerEmail: email}}, nil
}

func (s *stubBookings) Get(context.Context, string) (*models.Booking, error) {
	return &models.Booking{ID: "b-1"}, s.err
}

type stubPayments struct {
	price   float64
	settled services.SettleInput
	created bool
	err     error
}

func (s *stubPayments) CreateIntent(_ context.Context, price float64) (string, error) {
	s.price = price
	return "src_1", s.err
}

func (s *stubPayments) Settle(_ context.Context, in services.SettleInput) (*models.Payment, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	s.settled = in
	return &models.Payment{ID: "pay-1", BookingID: in.BookingID}, s.created, nil
}

type stubImages struct{}

func (stubImages) UploadURL(context.Context) (*services.ImageUpload, error) {
	return &services.ImageUpload{Key: "products/k", URL: "http://s3/products/k"}, nil
}

type testAPI struct {
	users    *stubUsers
	products *stubProducts
	bookings *stubBookings
	payments *stubPayments
	router   http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	a := &testAPI{
		users:    &stubUsers{},
		products: &stubProducts{},
		bookings: &stubBookings{},
		payments: &stubPayments{created: true},
	}
	h := NewHandler(Services{
		Tokens:     stubTokens{known: map[string]bool{"buyer@example.com": true}},
		Users:      a.users,
		Categories: stubCategories{},
		Products:   a.products,
		Bookings:   a.bookings,
		Payments:   a.payments,
		Images:     stubImages{},
	}, logging.Nop{})
	a.router = NewRouter(h, 0)
	return a
}

// do sends a request; a non-empty email is sent as its bearer token.
func (a *testAPI) do(method, target, body, email string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		req.Header.Set("Authorization", "Bearer token-"+email)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}
