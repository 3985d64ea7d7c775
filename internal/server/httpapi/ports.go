package httpapi

import (
	"context"

	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/dmitrijs2005/basementofbooks/internal/server/services"
)

// The handlers only see the operations below. *services.XService values
// satisfy them; tests substitute stubs.

type TokenService interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(token string) (string, error)
}

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	RoleOf(ctx context.Context, email string) (*services.RoleInfo, error)
	IsVerifiedSeller(ctx context.Context, email string) (bool, error)
	ListSellers(ctx context.Context) ([]models.User, error)
	VerifySeller(ctx context.Context, id string) (services.WriteResult, error)
	DeleteSeller(ctx context.Context, id string) (int64, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
}

type ProductService interface {
	Create(ctx context.Context, in services.ProductInput) (*models.Product, error)
	Advertise(ctx context.Context, id string) (services.WriteResult, error)
	Delete(ctx context.Context, id string) (int64, error)
	ListByCategory(ctx context.Context, categoryID string) ([]models.Product, error)
	ListAdvertised(ctx context.Context) ([]models.Product, error)
	ListBySeller(ctx context.Context, email string) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
}

type BookingService interface {
	Book(ctx context.Context, in services.BookingInput) (*models.Booking, error)
	ListByBuyer(ctx context.Context, email string) ([]models.Booking, error)
	Get(ctx context.Context, id string) (*models.Booking, error)
}

type PaymentService interface {
	CreateIntent(ctx context.Context, price float64) (string, error)
	Settle(ctx context.Context, in services.SettleInput) (*models.Payment, bool, error)
}

type ImageService interface {
	UploadURL(ctx context.Context) (*services.ImageUpload, error)
}

// Services groups the collaborators a Handler serves.
type Services struct {
	Tokens     TokenService
	Users      UserService
	Categories CategoryService
	Products   ProductService
	Bookings   BookingService
	Payments   PaymentService
	Images     ImageService
}
