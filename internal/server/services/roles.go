package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/server/auth"
	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/repomanager"
)

// RoleGuard resolves the caller's role from the users table on every call.
// Tokens carry only an email, so role changes take effect immediately.
type RoleGuard struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRoleGuard(db *sql.DB, m repomanager.RepositoryManager) *RoleGuard {
	return &RoleGuard{db: db, repomanager: m}
}

// Caller returns the user behind the verified email on ctx.
func (g *RoleGuard) Caller(ctx context.Context) (*models.User, error) {
	email, ok := auth.EmailFromContext(ctx)
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	user, err := g.repomanager.Users(g.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorForbidden
		}
		return nil, fmt.Errorf("error resolving caller: %w", err)
	}
	return user, nil
}

// RequireRole returns the caller if they hold role and ErrorForbidden otherwise.
func (g *RoleGuard) RequireRole(ctx context.Context, role models.Role) (*models.User, error) {
	user, err := g.Caller(ctx)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		return nil, common.ErrorForbidden
	}
	return user, nil
}

func (g *RoleGuard) RequireSeller(ctx context.Context) (*models.User, error) {
	return g.RequireRole(ctx, models.RoleSeller)
}

func (g *RoleGuard) RequireBuyer(ctx context.Context) (*models.User, error) {
	return g.RequireRole(ctx, models.RoleBuyer)
}

func (g *RoleGuard) RequireAdmin(ctx context.Context) (*models.User, error) {
	return g.RequireRole(ctx, models.RoleAdmin)
}

// RequireSelf fails unless the verified email on ctx equals targetEmail.
func (g *RoleGuard) RequireSelf(ctx context.Context, targetEmail string) error {
	email, ok := auth.EmailFromContext(ctx)
	if !ok {
		return common.ErrorUnauthorized
	}
	if targetEmail == "" || email != targetEmail {
		return common.ErrorForbidden
	}
	return nil
}
