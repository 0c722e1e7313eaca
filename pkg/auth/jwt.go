// pkg/auth/jwt.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// jwksCache caches the JWKS set per URL.
type jwksCache struct {
	mu   sync.RWMutex
	sets map[string]cachedJWKS
}

type cachedJWKS struct {
	set     jwk.Set
	expires time.Time
}

func (c *jwksCache) get(ctx context.Context, url string, ttl time.Duration) (jwk.Set, error) {
	c.mu.RLock()
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		c.mu.RUnlock()
		return e.set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sets == nil {
		c.sets = map[string]cachedJWKS{}
	}
	if e, ok := c.sets[url]; ok && time.Now().Before(e.expires) {
		return e.set, nil
	}
	set, err := jwk.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.sets[url] = cachedJWKS{set: set, expires: time.Now().Add(ttl)}
	return set, nil
}

// JWTAuthenticator verifies dashboard Bearer tokens against the identity
// provider's JWKS. The user id comes from the sub claim.
type JWTAuthenticator struct {
	issuer   string
	jwksURL  string
	clientID string
	jwksTTL  time.Duration
	cache    *jwksCache
}

func NewJWTAuthenticator(issuer, jwksURL, clientID string, jwksTTL time.Duration) (*JWTAuthenticator, error) {
	if issuer == "" || jwksURL == "" {
		return nil, fmt.Errorf("auth: jwt issuer and jwks url are required")
	}
	return &JWTAuthenticator{
		issuer:   strings.TrimRight(issuer, "/"),
		jwksURL:  jwksURL,
		clientID: clientID,
		jwksTTL:  jwksTTL,
		cache:    &jwksCache{},
	}, nil
}

func (a *JWTAuthenticator) AuthenticateUser(ctx context.Context, h http.Header) (uuid.UUID, error) {
	authz := h.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return uuid.Nil, fmt.Errorf("missing bearer token: %w", ErrMalformed)
	}
	raw := strings.TrimSpace(authz[len("Bearer "):])

	set, err := a.cache.get(ctx, a.jwksURL, a.jwksTTL)
	if err != nil {
		return uuid.Nil, fmt.Errorf("jwks fetch: %w", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(set),
		jwt.WithIssuer(a.issuer),
		jwt.WithValidate(true),
		jwt.WithVerify(true),
	}
	if a.clientID != "" {
		opts = append(opts, jwt.WithClaimValue("client_id", a.clientID))
	}
	tok, err := jwt.Parse([]byte(raw), opts...)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token verification failed: %w", ErrInvalid)
	}

	if use, ok := tok.Get("token_use"); ok {
		if s, _ := use.(string); s != "" && s != "access" {
			return uuid.Nil, fmt.Errorf("token is not an access token: %w", ErrInvalid)
		}
	}

	userID, err := uuid.Parse(tok.Subject())
	if err != nil {
		return uuid.Nil, fmt.Errorf("sub claim is not a uuid: %w", ErrInvalid)
	}
	return userID, nil
}
