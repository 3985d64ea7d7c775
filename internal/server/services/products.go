package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/logging"
	"github.com/dmitrijs2005/basementofbooks/internal/server/events"
	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/repomanager"
)

type ProductInput struct {
	CategoryID    string
	SellerName    string
	Name          string
	Image         string
	Location      string
	Price         float64
	OriginalPrice float64
	YearsOfUse    int
	Condition     string
	Phone         string
	Description   string
}

// ProductService drives a product through listed, advertised and sold.
// Sold is terminal; the seller can no longer advertise or delete it.
type ProductService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	guard       *RoleGuard
	cache       ListingCache
	publisher   EventPublisher
	logger      logging.Logger
}

func NewProductService(db *sql.DB, m repomanager.RepositoryManager, guard *RoleGuard, cache ListingCache, pub EventPublisher, logger logging.Logger) *ProductService {
	if cache == nil {
		cache = nopCache{}
	}
	if pub == nil {
		pub = nopPublisher{}
	}
	return &ProductService{db: db, repomanager: m, guard: guard, cache: cache, publisher: pub, logger: logger}
}

// Create lists a new product for the calling verified seller.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	seller, err := s.guard.RequireSeller(ctx)
	if err != nil {
		return nil, err
	}
	if !seller.Verified {
		return nil, common.ErrorForbidden
	}

	if err := validateProduct(in); err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Categories(s.db).GetByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown category %q", common.ErrorValidation, in.CategoryID)
		}
		return nil, err
	}

	sellerName := strings.TrimSpace(in.SellerName)
	if sellerName == "" {
		sellerName = seller.Name
	}

	p, err := s.repomanager.Products(s.db).Create(ctx, &models.Product{
		SellerEmail:   seller.Email,
		SellerName:    sellerName,
		CategoryID:    in.CategoryID,
		Name:          strings.TrimSpace(in.Name),
		Image:         in.Image,
		Location:      in.Location,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		YearsOfUse:    in.YearsOfUse,
		Condition:     in.Condition,
		Phone:         in.Phone,
		Description:   in.Description,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventProductCreated, p.ID, events.ProductPayload{
		ProductID: p.ID, SellerEmail: p.SellerEmail, CategoryID: p.CategoryID, Price: p.Price,
	})
	return p, nil
}

func validateProduct(in ProductInput) error {
	switch {
	case in.CategoryID == "":
		return fmt.Errorf("%w: categoryId is required", common.ErrorValidation)
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", common.ErrorValidation)
	case !finiteNonNegative(in.Price):
		return fmt.Errorf("%w: price must be a finite non-negative number", common.ErrorValidation)
	case !finiteNonNegative(in.OriginalPrice):
		return fmt.Errorf("%w: originalPrice must be a finite non-negative number", common.ErrorValidation)
	case in.YearsOfUse < 0:
		return fmt.Errorf("%w: yearsOfUse must be non-negative", common.ErrorValidation)
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// ownedUnsold loads id and checks that the caller may still mutate it.
func (s *ProductService) ownedUnsold(ctx context.Context, id string) (*models.User, *models.Product, error) {
	seller, err := s.guard.RequireSeller(ctx)
	if err != nil {
		return nil, nil, err
	}

	p, err := s.repomanager.Products(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p.SellerEmail != seller.Email {
		return nil, nil, common.ErrorForbidden
	}
	if p.SoldStatus {
		return nil, nil, common.ErrorProductSold
	}
	return seller, p, nil
}

// lostRace classifies a conditional write that matched no rows after the
// pre-checks passed: the product was sold or deleted in between.
func (s *ProductService) lostRace(ctx context.Context, id string) error {
	p, err := s.repomanager.Products(s.db).GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.SoldStatus {
		return common.ErrorProductSold
	}
	return common.ErrorConflict
}

// Advertise marks the caller's unsold product as advertised. Advertising
// twice is a no-op success.
func (s *ProductService) Advertise(ctx context.Context, id string) (WriteResult, error) {
	seller, p, err := s.ownedUnsold(ctx, id)
	if err != nil {
		return WriteResult{}, err
	}
	if p.Advertised {
		return WriteResult{Matched: 1}, nil
	}

	n, err := s.repomanager.Products(s.db).Advertise(ctx, id, seller.Email)
	if err != nil {
		return WriteResult{}, err
	}
	if n == 0 {
		return WriteResult{}, s.lostRace(ctx, id)
	}

	s.invalidateListing(ctx)
	s.publish(ctx, events.EventProductAdvertised, id, events.ProductPayload{ProductID: id, SellerEmail: seller.Email})
	return WriteResult{Matched: n, Modified: n}, nil
}

// Delete removes the caller's unsold product.
func (s *ProductService) Delete(ctx context.Context, id string) (int64, error) {
	seller, _, err := s.ownedUnsold(ctx, id)
	if err != nil {
		return 0, err
	}

	n, err := s.repomanager.Products(s.db).Delete(ctx, id, seller.Email)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, s.lostRace(ctx, id)
	}

	s.invalidateListing(ctx)
	s.publish(ctx, events.EventProductDeleted, id, events.ProductPayload{ProductID: id, SellerEmail: seller.Email})
	return n, nil
}

// ListByCategory returns the unsold products of an existing category.
func (s *ProductService) ListByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	if _, err := s.repomanager.Categories(s.db).GetByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.repomanager.Products(s.db).ListByCategory(ctx, categoryID)
}

// ListAdvertised serves advertised unsold products, from cache when warm.
// Cache failures degrade to a database read. The generation is read before
// the rows so a concurrent invalidation wins over this fill.
func (s *ProductService) ListAdvertised(ctx context.Context) ([]models.Product, error) {
	items, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.Warn(ctx, "advertised cache read failed", "error", err)
	}
	if ok {
		return items, nil
	}

	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.Warn(ctx, "advertised cache generation read failed", "error", genErr)
	}

	items, err = s.repomanager.Products(s.db).ListAdvertised(ctx)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		if _, err := s.cache.Set(ctx, gen, items); err != nil {
			s.logger.Warn(ctx, "advertised cache write failed", "error", err)
		}
	}
	return items, nil
}

// ListBySeller returns every product of the calling seller, sold ones included.
func (s *ProductService) ListBySeller(ctx context.Context, email string) ([]models.Product, error) {
	if _, err := s.guard.RequireSeller(ctx); err != nil {
		return nil, err
	}
	if err := s.guard.RequireSelf(ctx, email); err != nil {
		return nil, err
	}
	return s.repomanager.Products(s.db).ListBySeller(ctx, email)
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repomanager.Products(s.db).GetByID(ctx, id)
}

func (s *ProductService) invalidateListing(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn(ctx, "advertised cache invalidation failed", "error", err)
	}
}

func (s *ProductService) publish(ctx context.Context, eventType, key string, payload any) {
	if err := s.publisher.Publish(ctx, eventType, key, payload); err != nil {
		s.logger.Warn(ctx, "event not published", "event", eventType, "key", key, "error", err)
	}
}
