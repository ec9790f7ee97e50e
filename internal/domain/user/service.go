package user

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
)

// Service defines the business logic for accounts and authentication.
type Service interface {
	// Register creates a new account. Only admins may create analyst or
	// admin accounts.
	Register(ctx context.Context, actor auth.Actor, u *User, password string) (int64, error)

	// Login verifies credentials and mints a token pair
	Login(ctx context.Context, email, password string) (*User, auth.TokenPair, error)

	// Refresh mints a new token pair from a valid refresh token
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)
}

// TokenConfig carries signing material and lifetimes for issued tokens.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type service struct {
	repo   Repository
	tokens TokenConfig
}

// NewService creates a new user service
func NewService(repo Repository, tokens TokenConfig) Service {
	return &service{repo: repo, tokens: tokens}
}

var validRoles = map[string]bool{
	RoleSecurityAnalyst:   true,
	RoleITHelpdeskAnalyst: true,
	RoleTenantAdmin:       true,
	RoleSuperAdmin:        true,
	RoleUser:              true,
}

func (s *service) Register(ctx context.Context, actor auth.Actor, u *User, password string) (int64, error) {
	if !validRoles[u.Role] {
		return 0, errors.ValidationError("Unknown role", map[string]string{"role": u.Role})
	}
	if u.Role != RoleUser {
		switch actor.Role {
		case RoleSuperAdmin:
		case RoleTenantAdmin:
			if u.Role == RoleSuperAdmin || u.TenantID != actor.TenantID {
				return 0, errors.Permission("Tenant admins can only create accounts in their own tenant")
			}
		default:
			return 0, errors.Permission("Only administrators can create analyst accounts")
		}
	}
	if len(password) < 8 {
		return 0, errors.ValidationError("Password too short", map[string]string{"password": "at least 8 characters required"})
	}

	if existing, err := s.repo.GetByEmail(ctx, strings.ToLower(u.Email)); err == nil && existing != nil {
		return 0, errors.Conflict("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, errors.Internal("Failed to hash password", err)
	}

	u.Email = strings.ToLower(u.Email)
	u.PasswordHash = string(hash)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	if err := s.repo.Create(ctx, u); err != nil {
		return 0, err
	}
	return u.ID, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, auth.TokenPair, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil || u == nil {
		return nil, auth.TokenPair{}, errors.Unauthorized("Invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, auth.TokenPair{}, errors.Unauthorized("Invalid email or password")
	}

	pair, err := auth.MintTokens(auth.Actor{UserID: u.ID, Role: u.Role, TenantID: u.TenantID},
		s.tokens.Secret, s.tokens.AccessTTL, s.tokens.RefreshTTL)
	if err != nil {
		return nil, auth.TokenPair{}, errors.Internal("Failed to mint tokens", err)
	}
	return u, pair, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := auth.ParseClaims(refreshToken, s.tokens.Secret)
	if err != nil {
		return auth.TokenPair{}, errors.Unauthorized("Invalid refresh token")
	}

	// Re-read the account so role or tenant changes take effect on refresh.
	u, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return auth.TokenPair{}, errors.Unauthorized("Account no longer exists")
	}

	pair, err := auth.MintTokens(auth.Actor{UserID: u.ID, Role: u.Role, TenantID: u.TenantID},
		s.tokens.Secret, s.tokens.AccessTTL, s.tokens.RefreshTTL)
	if err != nil {
		return auth.TokenPair{}, errors.Internal("Failed to mint tokens", err)
	}
	return pair, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
