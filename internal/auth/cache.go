package auth

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedProvider memoizes token lookups of another provider for a short TTL
type CachedProvider struct {
	Provider
	identities *cache.Cache
}

// NewCachedProvider wraps p with an identity cache
func NewCachedProvider(p Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		Provider:   p,
		identities: cache.New(ttl, 2*ttl),
	}
}

// Identity returns the cached identity for token, resolving it on a miss.
// Unknown tokens are not cached so a fresh sign-in is seen immediately.
func (c *CachedProvider) Identity(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}
	if v, ok := c.identities.Get(token); ok {
		return v.(*Identity), nil
	}

	id, err := c.Provider.Identity(ctx, token)
	if err != nil || id == nil {
		return id, err
	}
	c.identities.Set(token, id, cache.DefaultExpiration)
	return id, nil
}

// SignIn primes the cache with the new session
func (c *CachedProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, err := c.Provider.SignIn(ctx, email, password)
	if err == nil && sess != nil {
		id := sess.Identity
		c.identities.Set(sess.Token, &id, cache.DefaultExpiration)
	}
	return sess, err
}

// SignOut evicts the token before revoking it
func (c *CachedProvider) SignOut(ctx context.Context, token string) error {
	c.identities.Delete(token)
	return c.Provider.SignOut(ctx, token)
}
