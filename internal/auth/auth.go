// Package auth resolves the identity behind a session cookie and issues
// sessions for the login and sign-up pages.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned for a wrong email or password
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up with a registered email
	ErrEmailTaken = errors.New("email already registered")
	// ErrConfirmationPending is returned when the account exists but the
	// provider wants the email confirmed before issuing a session
	ErrConfirmationPending = errors.New("email confirmation pending")
	// ErrNoSession is returned when no usable session token was presented
	ErrNoSession = errors.New("no session")
	// ErrInvalidEmail and ErrWeakPassword reject a sign-up before it
	// reaches the provider
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

// Identity is the authenticated user of a request
type Identity struct {
	ID          uuid.UUID
	Email       string
	AccessToken string // bearer token forwarded to the data source, if any
}

// Session is what a successful sign-in hands back to the browser
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  Identity
}

// Provider is the session provider behind the portal
type Provider interface {
	// Identity resolves a session token; it returns nil, nil when the token
	// is unknown or expired
	Identity(ctx context.Context, token string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
}

// MinPasswordLength is the shortest password accepted at sign-up
const MinPasswordLength = 6

// ValidateSignUp checks the sign-up form fields
func ValidateSignUp(email, password string) error {
	if at := strings.Index(email, "@"); at <= 0 || at == len(email)-1 {
		return fmt.Errorf("%w %q", ErrInvalidEmail, email)
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the identity
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity carried by ctx, or nil
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
