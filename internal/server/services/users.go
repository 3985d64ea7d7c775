package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/logging"
	"github.com/dmitrijs2005/basementofbooks/internal/server/events"
	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/repomanager"
)

type RegisterInput struct {
	Name  string
	Email string
	Role  models.Role
}

// RoleInfo answers the role-flag queries of the frontend.
type RoleInfo struct {
	Role     models.Role `json:"role"`
	IsAdmin  bool        `json:"isAdmin"`
	IsSeller bool        `json:"isSeller"`
	IsBuyer  bool        `json:"isBuyer"`
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	guard       *RoleGuard
	publisher   EventPublisher
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, guard *RoleGuard, pub EventPublisher, logger logging.Logger) *UserService {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &UserService{db: db, repomanager: m, guard: guard, publisher: pub, logger: logger}
}

// Register stores a new user. A missing role means Buyer; Admin cannot be
// self-assigned. A taken email yields common.ErrorEmailInUse.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrorValidation)
	}

	role := in.Role
	if role == "" {
		role = models.RoleBuyer
	}
	if !role.Valid() || role == models.RoleAdmin {
		return nil, fmt.Errorf("%w: role %q cannot be registered", common.ErrorValidation, role)
	}

	user := &models.User{Name: strings.TrimSpace(in.Name), Email: email, Role: role}
	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, u.ID, events.UserRegisteredPayload{
		UserID: u.ID, Email: u.Email, Role: string(u.Role),
	})
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.repomanager.Users(s.db).List(ctx)
}

// RoleOf reports the flags for email. Unknown users get all flags false.
func (s *UserService) RoleOf(ctx context.Context, email string) (*RoleInfo, error) {
	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &RoleInfo{}, nil
		}
		return nil, err
	}
	return &RoleInfo{
		Role:     u.Role,
		IsAdmin:  u.Role == models.RoleAdmin,
		IsSeller: u.Role == models.RoleSeller,
		IsBuyer:  u.Role == models.RoleBuyer,
	}, nil
}

func (s *UserService) IsVerifiedSeller(ctx context.Context, email string) (bool, error) {
	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.Role == models.RoleSeller && u.Verified, nil
}

func (s *UserService) ListSellers(ctx context.Context) ([]models.User, error) {
	if _, err := s.guard.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).ListByRole(ctx, models.RoleSeller)
}

func (s *UserService) VerifySeller(ctx context.Context, id string) (WriteResult, error) {
	if _, err := s.guard.RequireAdmin(ctx); err != nil {
		return WriteResult{}, err
	}
	n, err := s.repomanager.Users(s.db).VerifySeller(ctx, id)
	if err != nil {
		return WriteResult{}, err
	}
	if n == 0 {
		return WriteResult{}, common.ErrorNotFound
	}
	return WriteResult{Matched: n, Modified: n}, nil
}

func (s *UserService) DeleteSeller(ctx context.Context, id string) (int64, error) {
	if _, err := s.guard.RequireAdmin(ctx); err != nil {
		return 0, err
	}
	n, err := s.repomanager.Users(s.db).DeleteSeller(ctx, id)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, common.ErrorNotFound
	}
	return n, nil
}

func (s *UserService) publish(ctx context.Context, eventType, key string, payload any) {
	if err := s.publisher.Publish(ctx, eventType, key, payload); err != nil {
		s.logger.Warn(ctx, "event not published", "event", eventType, "key", key, "error", err)
	}
}
