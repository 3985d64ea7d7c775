package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/basementofbooks/internal/common"
	"github.com/dmitrijs2005/basementofbooks/internal/server/auth"
	"github.com/dmitrijs2005/basementofbooks/internal/server/config"
	"github.com/dmitrijs2005/basementofbooks/internal/server/repositories/repomanager"
)

// TokenService issues access tokens to registered users and verifies them.
type TokenService struct {
	db                  *sql.DB
	repomanager         repomanager.RepositoryManager
	jwtSecret           []byte
	tokenValidityPeriod time.Duration
}

func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	return &TokenService{
		db:                  db,
		repomanager:         m,
		jwtSecret:           []byte(cfg.SecretKey),
		tokenValidityPeriod: cfg.TokenValidityDuration,
	}
}

// Issue signs a token for email. Unknown emails get ErrorForbidden.
func (s *TokenService) Issue(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", common.ErrorForbidden
	}

	if _, err := s.repomanager.Users(s.db).GetByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorForbidden
		}
		return "", fmt.Errorf("error looking up user: %w", err)
	}

	token, err := auth.GenerateToken(email, s.jwtSecret, s.tokenValidityPeriod)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Verify returns the email carried by token. An empty token is
// ErrorUnauthorized; a bad or expired one is ErrInvalidToken or ErrTokenExpired.
func (s *TokenService) Verify(token string) (string, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}
	return auth.GetEmailFromToken(token, s.jwtSecret)
}
