package categories

import (
	"context"

	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
}
