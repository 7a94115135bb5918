package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Stickybrown8/timetrack/internal/errs"
	"github.com/Stickybrown8/timetrack/internal/limiter"
	"github.com/Stickybrown8/timetrack/internal/model"
	"github.com/Stickybrown8/timetrack/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

type fakeUsers struct {
	byName map[string]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byName == nil {
		f.byName = map[string]*model.User{}
	}
	if _, exists := f.byName[u.Username]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	f.byName[u.Username] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byName {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

type fakeLimiter struct {
	allow       bool
	failures    int
	blockOnFail bool
	successes   int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (f *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return f.allow, 0, nil
}
func (f *fakeLimiter) Success(context.Context, string, []byte) error {
	f.successes++
	return nil
}
func (f *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	f.failures++
	return f.blockOnFail, 0, nil
}

func openLimiter() *fakeLimiter { return &fakeLimiter{allow: true} }

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()
	s := NewAuthService(&fakeUsers{}, []byte("k"), time.Minute, openLimiter())

	if _, err := s.Register(context.Background(), "", "p"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on empty username, got %v", err)
	}
	if _, err := s.Register(context.Background(), "u", ""); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation on empty password, got %v", err)
	}
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	lim := openLimiter()
	s := NewAuthService(users, []byte("secret"), 15*time.Minute, lim)
	ctx := context.Background()

	uid, err := s.Register(ctx, "alice", "pa55")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	tok, u, err := s.Login(ctx, "alice", "pa55", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID.String() != uid {
		t.Fatalf("user id mismatch: %s vs %s", u.ID, uid)
	}
	if tok.AccessToken == "" || !tok.ExpiresAt.After(time.Now()) {
		t.Fatalf("bad tokens: %+v", tok)
	}
	if lim.successes != 1 {
		t.Fatalf("success should reset the limiter, got %d calls", lim.successes)
	}

	// subject must round-trip through the signed JWT
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok.AccessToken, &claims, func(*jwt.Token) (any, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != uid {
		t.Fatalf("subject=%s, want %s", claims.Subject, uid)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	lim := openLimiter()
	s := NewAuthService(users, []byte("secret"), time.Minute, lim)
	ctx := context.Background()

	if _, err := s.Register(ctx, "bob", "right"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := s.Login(ctx, "bob", "wrong", "10.0.0.1"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	// unknown user is indistinguishable from wrong password
	if _, _, err := s.Login(ctx, "nobody", "x", "10.0.0.1"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for unknown user, got %v", err)
	}
	if lim.failures != 2 {
		t.Fatalf("each failed login must be recorded, got %d", lim.failures)
	}
}

func TestAuthService_Login_RateLimited(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	s := NewAuthService(users, []byte("secret"), time.Minute, &fakeLimiter{allow: false})
	ctx := context.Background()

	if _, err := s.Register(ctx, "eve", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := s.Login(ctx, "eve", "pw", "10.0.0.1"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
}

func TestAuthService_Login_BlockedAtThreshold(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	lim := &fakeLimiter{allow: true, blockOnFail: true}
	s := NewAuthService(users, []byte("secret"), time.Minute, lim)
	ctx := context.Background()

	if _, err := s.Register(ctx, "mallory", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := s.Login(ctx, "mallory", "wrong", "10.0.0.1"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited when the failure blocks, got %v", err)
	}
}
