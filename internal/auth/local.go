package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jjenkins/husbandry/internal/model"
	"github.com/jjenkins/husbandry/internal/store"
)

// UserRepository is the slice of store.UserStore the local provider needs
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSessionUser(ctx context.Context, token string, now time.Time) (*model.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// LocalProvider authenticates against the users and sessions tables
type LocalProvider struct {
	users UserRepository
	ttl   time.Duration
	now   func() time.Time
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider creates a provider issuing sessions valid for ttl
func NewLocalProvider(users UserRepository, ttl time.Duration) *LocalProvider {
	return &LocalProvider{
		users: users,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Identity resolves a session token to its user
func (p *LocalProvider) Identity(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}
	u, err := p.users.GetSessionUser(ctx, token, p.now())
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return &Identity{ID: u.ID, Email: u.Email}, nil
}

// SignIn checks the password and opens a new session
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return p.openSession(ctx, u)
}

// SignUp registers a new account and signs it in
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := ValidateSignUp(email, password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{Email: email, PasswordHash: hash}
	if err := p.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return p.openSession(ctx, u)
}

// SignOut deletes the session
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoSession
	}
	return p.users.DeleteSession(ctx, token)
}

func (p *LocalProvider) openSession(ctx context.Context, u *model.User) (*Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	sess := &model.Session{Token: token, UserID: u.ID, ExpiresAt: p.now().Add(p.ttl)}
	if err := p.users.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		Identity:  Identity{ID: u.ID, Email: u.Email},
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
