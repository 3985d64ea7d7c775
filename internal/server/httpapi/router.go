package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/basementofbooks/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const banner = "Basement of books server is running"

// Handler serves the marketplace REST surface.
type Handler struct {
	svc    Services
	logger logging.Logger
}

func NewHandler(svc Services, logger logging.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With("module", "http_api")}
}

// NewRouter mounts every route. Requests are cut off after timeout.
func NewRouter(h *Handler, timeout time.Duration) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, accessLog(h.logger), middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(banner))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public
	r.Get("/jwt", h.issueToken)
	r.Get("/users", h.listUsers)
	r.Post("/users", h.registerUser)
	r.Get("/users/verifiedSeller/{email}", h.verifiedSeller)
	r.Get("/categories", h.listCategories)
	r.Get("/advertisedProducts", h.listAdvertised)
	r.Post("/create-payment-intent", h.createPaymentIntent)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/users/role/{email}", h.userRole)
		r.Get("/users/sellers", h.listSellers)
		r.Put("/users/sellers/{id}", h.verifySeller)
		r.Delete("/users/sellers/{id}", h.deleteSeller)

		r.Get("/products", h.getProduct)
		r.Get("/products/{categoryId}", h.listByCategory)
		r.Post("/products", h.createProduct)
		r.Post("/products/image-upload-url", h.imageUploadURL)
		r.Delete("/products/{id}", h.deleteProduct)
		r.Put("/product/advertise/{id}", h.advertiseProduct)
		r.Get("/sellerProducts/{email}", h.listSellerProducts)

		r.Get("/bookings", h.listBookings)
		r.Get("/bookings/{id}", h.getBooking)
		r.Post("/bookings", h.createBooking)

		r.Post("/payments", h.settlePayment)
	})

	return r
}
