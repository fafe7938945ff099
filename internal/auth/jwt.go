// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/blogsy/internal/config"
	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/middleware"
)

const (
	jwksRefreshInterval = time.Hour
	defaultRole         = "user"
)

// Verifier validates session tokens minted by the identity provider
// against its published JWKS, or a static PEM public key.
type Verifier struct {
	mu        sync.RWMutex
	keys      jwk.Set
	fetchedAt time.Time
	jwksURL   string
	issuer    string
	audience  string
	now       func() time.Time
}

func NewVerifier(ctx context.Context, cfg config.IdentityConfig) (*Verifier, error) {
	v := &Verifier{
		jwksURL:  cfg.JWKSURL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}

	if cfg.JWKSURL != "" {
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
		return v, nil
	}

	pem, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read identity public key: %w", err)
	}

	key, err := jwk.ParseKey(pem, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse identity public key: %w", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, fmt.Errorf("add key to set: %w", err)
	}
	v.keys = set

	return v, nil
}

func (v *Verifier) refresh(ctx context.Context) error {
	set, err := jwk.Fetch(ctx, v.jwksURL)
	if err != nil {
		return fmt.Errorf("fetch identity jwks: %w", err)
	}

	v.mu.Lock()
	v.keys = set
	v.fetchedAt = v.now()
	v.mu.Unlock()

	return nil
}

func (v *Verifier) keySet(ctx context.Context) jwk.Set {
	v.mu.RLock()
	keys, stale := v.keys, v.jwksURL != "" &&
		v.now().Sub(v.fetchedAt) > jwksRefreshInterval
	v.mu.RUnlock()

	if stale {
		if err := v.refresh(ctx); err == nil {
			v.mu.RLock()
			keys = v.keys
			v.mu.RUnlock()
		}
	}

	return keys
}

func (v *Verifier) VerifySessionToken(
	ctx context.Context,
	tokenString string,
) (*middleware.SessionClaims, error) {
	opts := []jwt.ParseOption{
		jwt.WithKeySet(
			v.keySet(ctx),
			jws.WithInferAlgorithmFromKey(true),
			jws.WithRequireKid(false),
		),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(5 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	var email string
	//nolint:errcheck // email claim is optional
	_ = token.Get("email", &email)

	role := defaultRole
	var roleClaim string
	if err := token.Get("role", &roleClaim); err == nil && roleClaim != "" {
		role = roleClaim
	}

	return &middleware.SessionClaims{
		UserID: subject,
		Email:  email,
		Role:   role,
	}, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}

var _ middleware.TokenVerifier = (*Verifier)(nil)
