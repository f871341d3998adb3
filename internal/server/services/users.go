package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/onoff/todo-api/internal/common"
	"github.com/onoff/todo-api/internal/server/auth"
	sc "github.com/onoff/todo-api/internal/server/config"
	"github.com/onoff/todo-api/internal/server/models"
	"github.com/onoff/todo-api/internal/server/repositories/repomanager"
)

// LoginResult is what a successful login hands back to the transport layer:
// the opaque signed token plus the plaintext display fields.
type LoginResult struct {
	Token    string
	UserName string
	Email    string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokenParams auth.TokenParams
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokenParams: auth.TokenParams{
			Secret:           []byte(cfg.JWTSecretKey),
			Issuer:           cfg.JWTIssuer,
			Audience:         cfg.JWTAudience,
			ValidityDuration: cfg.AccessTokenValidityDuration,
		},
	}
}

// NormalizeEmail lowercases and trims an e-mail so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies credentials and issues a signed access token. An unknown
// e-mail, an unconfirmed account and a wrong password all fail with
// common.ErrInvalidCredentials; the miss paths burn a bcrypt comparison so
// none of the three is distinguishable by response or timing.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			auth.BurnPasswordCheck(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrStoreUnavailable
	}

	if !user.EmailConfirmed {
		auth.BurnPasswordCheck(password)
		return nil, common.ErrInvalidCredentials
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.FullName, s.tokenParams)
	if err != nil {
		return nil, common.ErrInternal
	}

	return &LoginResult{
		Token:    token,
		UserName: user.FullName,
		Email:    user.Email,
	}, nil
}

// ValidateToken checks signature, issuer, audience and exact expiry and
// returns the subject user id. It is a pure computation and safe under
// unlimited concurrency.
func (s *UserService) ValidateToken(tokenString string) (int64, error) {
	return auth.GetUserIDFromToken(tokenString, s.tokenParams)
}

// GetByID returns the user record for an authenticated subject id.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {

	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrStoreUnavailable
	}

	return user, nil
}
