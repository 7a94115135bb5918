// Package service contains application services for authentication, timers,
// clients and tasks.
package service

import (
	"context"
	"fmt"
	"time"

	pkgcrypto "github.com/Stickybrown8/timetrack/internal/crypto"
	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/limiter"
	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/Stickybrown8/timetrack/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// AuthService defines account and token operations.
type AuthService interface {
	// Register creates a new user with secure password hashing.
	Register(ctx context.Context, username, password string) (userID string, err error)
	// Login applies rate limiting by (username, ip) and authenticates the user.
	Login(ctx context.Context, username, password, ip string) (tokens model.Tokens, user model.User, err error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// Register creates a new user record with a per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	saltAuth, err := pkgcrypto.NewSalt(pkgcrypto.SaltLen)
	if err != nil {
		return "", err
	}

	u := &model.User{
		ID:       uid,
		Username: username,
		PwdHash:  pkgcrypto.HashPassword([]byte(password), saltAuth),
		SaltAuth: saltAuth,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	return uid.String(), nil
}

// Login authenticates the user and issues a signed access token. Repeated
// failures from the same (username, ip) pair place a temporary block.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, ip string) (model.Tokens, model.User, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// hide existence of the user on wrong password
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	// reset counters, best effort
	_ = s.lim.Success(ctx, username, ipHash)

	access, exp, err := s.issueAccessToken(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, *u, nil
}

// issueAccessToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueAccessToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}
