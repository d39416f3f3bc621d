package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jjenkins/husbandry/internal/auth"
)

// AuthProvider implements auth.Provider on the Supabase GoTrue API
type AuthProvider struct {
	client *Client
	now    func() time.Time
}

var _ auth.Provider = (*AuthProvider)(nil)

// NewAuthProvider creates a session provider sharing c's transport
func NewAuthProvider(c *Client) *AuthProvider {
	return &AuthProvider{client: c, now: time.Now}
}

type gotrueUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type gotrueSession struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int        `json:"expires_in"`
	User        gotrueUser `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity resolves an access token. Rejected tokens yield nil, nil.
func (p *AuthProvider) Identity(ctx context.Context, token string) (*auth.Identity, error) {
	if token == "" {
		return nil, nil
	}
	body, err := p.client.do(ctx, http.MethodGet, "/auth/v1/user", nil, token, nil, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	var u gotrueUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	return &auth.Identity{ID: u.ID, Email: u.Email, AccessToken: token}, nil
}

// SignIn exchanges email and password for an access token
func (p *AuthProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	q := url.Values{}
	q.Set("grant_type", "password")

	body, err := p.client.do(ctx, http.MethodPost, "/auth/v1/token", q, "", credentials{Email: email, Password: password}, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return p.session(body)
}

// SignUp registers an account. Projects requiring email confirmation
// return no session, reported as auth.ErrConfirmationPending.
func (p *AuthProvider) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	body, err := p.client.do(ctx, http.MethodPost, "/auth/v1/signup", nil, "", credentials{Email: email, Password: password}, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message+apiErr.Msg), "already") {
			return nil, auth.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}
	return p.session(body)
}

// SignOut revokes the access token
func (p *AuthProvider) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return auth.ErrNoSession
	}
	if _, err := p.client.do(ctx, http.MethodPost, "/auth/v1/logout", nil, token, nil, nil); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func (p *AuthProvider) session(body []byte) (*auth.Session, error) {
	var s gotrueSession
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if s.AccessToken == "" {
		return nil, auth.ErrConfirmationPending
	}
	return &auth.Session{
		Token:     s.AccessToken,
		ExpiresAt: p.now().Add(time.Duration(s.ExpiresIn) * time.Second),
		Identity: auth.Identity{
			ID:          s.User.ID,
			Email:       s.User.Email,
			AccessToken: s.AccessToken,
		},
	}, nil
}
