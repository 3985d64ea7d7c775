package products

import (
	"context"

	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// LockByID reads the product with a row lock. Only meaningful inside
	// a transaction.
	LockByID(ctx context.Context, id string) (*models.Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]models.Product, error)
	ListAdvertised(ctx context.Context) ([]models.Product, error)
	ListBySeller(ctx context.Context, sellerEmail string) ([]models.Product, error)
	// Advertise and Delete only touch an unsold product owned by
	// sellerEmail and return the number of rows matched.
	Advertise(ctx context.Context, id, sellerEmail string) (int64, error)
	Delete(ctx context.Context, id, sellerEmail string) (int64, error)
	// MarkSold flips sold_status on an unsold product. A product that is
	// already sold yields common.ErrorProductSold.
	MarkSold(ctx context.Context, id string) error
}
