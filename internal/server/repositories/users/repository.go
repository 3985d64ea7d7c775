package users

import (
	"context"

	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
)

type Repository interface {
	// Create inserts user unless the email is taken, in which case it
	// returns common.ErrorEmailInUse and writes nothing.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	// VerifySeller and DeleteSeller only touch rows whose role is Seller and
	// return the number of rows matched.
	VerifySeller(ctx context.Context, id string) (int64, error)
	DeleteSeller(ctx context.Context, id string) (int64, error)
}
