package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	keySetPath    = "/.well-known/jwks.json"
	maxKeySetSize = 1 << 20
)

// TokenVerifier verifies RS256 bearer tokens against the key set published
// by the token's issuer.
type TokenVerifier struct {
	client  *http.Client
	cache   KeySetCache
	trusted map[string]struct{}
	logger  *zap.Logger
}

type VerifierOption func(*TokenVerifier)

func WithHTTPClient(client *http.Client) VerifierOption {
	return func(v *TokenVerifier) { v.client = client }
}

// WithKeySetCache enables key set caching. Without it every verification fetches.
func WithKeySetCache(cache KeySetCache) VerifierOption {
	return func(v *TokenVerifier) { v.cache = cache }
}

// WithTrustedIssuers restricts verification to the listed issuers.
func WithTrustedIssuers(issuers ...string) VerifierOption {
	return func(v *TokenVerifier) {
		for _, iss := range issuers {
			v.trusted[strings.TrimRight(iss, "/")] = struct{}{}
		}
	}
}

func WithVerifierLogger(logger *zap.Logger) VerifierOption {
	return func(v *TokenVerifier) { v.logger = logger }
}

// NewTokenVerifier creates a verifier whose key set requests are bounded by timeout.
func NewTokenVerifier(timeout time.Duration, opts ...VerifierOption) *TokenVerifier {
	v := &TokenVerifier{
		client:  &http.Client{Timeout: timeout},
		trusted: make(map[string]struct{}),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the signature of raw and returns its claims.
func (v *TokenVerifier) Verify(ctx context.Context, raw string) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	unverified, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w: %w", custom_errors.ErrMalformedInput, err)
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("token header has no kid: %w", custom_errors.ErrMalformedInput)
	}
	iss, err := unverified.Claims.GetIssuer()
	if err != nil || iss == "" {
		return nil, fmt.Errorf("token has no issuer: %w", custom_errors.ErrMalformedInput)
	}
	iss = strings.TrimRight(iss, "/")
	if len(v.trusted) > 0 {
		if _, ok := v.trusted[iss]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUntrustedIssuer, iss)
		}
	}

	ks, err := v.keySetWithKey(ctx, iss, kid)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	_, err = parser.ParseWithClaims(raw, claims, ks.Keyfunc(ctx))
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	return claims, nil
}

// Subject verifies raw and returns its subject claim.
func (v *TokenVerifier) Subject(ctx context.Context, raw string) (string, error) {
	claims, err := v.Verify(ctx, raw)
	if err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// keySetWithKey returns the issuer's key set once it holds kid.
func (v *TokenVerifier) keySetWithKey(ctx context.Context, issuer, kid string) (*KeySet, error) {
	ks, cached, err := v.keySet(ctx, issuer, true)
	if err != nil {
		return nil, err
	}
	err = ks.Lookup(ctx, kid)
	if errors.Is(err, ErrKeyNotFound) && cached {
		// The issuer may have rotated its keys since the set was cached.
		if ks, _, err = v.keySet(ctx, issuer, false); err != nil {
			return nil, err
		}
		err = ks.Lookup(ctx, kid)
	}
	if err != nil {
		return nil, err
	}
	return ks, nil
}

func (v *TokenVerifier) keySet(ctx context.Context, issuer string, useCache bool) (*KeySet, bool, error) {
	if v.cache != nil && useCache {
		raw, ok, err := v.cache.Get(ctx, issuer)
		if err != nil {
			v.logger.Warn("key set cache read failed", zap.String("issuer", issuer), zap.Error(err))
		}
		if ok {
			if ks, err := ParseKeySet(raw); err == nil {
				return ks, true, nil
			}
		}
	}

	raw, err := v.fetch(ctx, issuer)
	if err != nil {
		return nil, false, err
	}
	ks, err := ParseKeySet(raw)
	if err != nil {
		return nil, false, err
	}
	if v.cache != nil {
		if err := v.cache.Set(ctx, issuer, raw); err != nil {
			v.logger.Warn("key set cache write failed", zap.String("issuer", issuer), zap.Error(err))
		}
	}
	return ks, false, nil
}

func (v *TokenVerifier) fetch(ctx context.Context, issuer string) ([]byte, error) {
	url := issuer + keySetPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("key set request %s: %w", url, err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch key set %s: %w: %w", url, custom_errors.ErrExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch key set %s: status %d: %w", url, resp.StatusCode, custom_errors.ErrExternal)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySetSize))
	if err != nil {
		return nil, fmt.Errorf("read key set %s: %w: %w", url, custom_errors.ErrExternal, err)
	}
	v.logger.Debug("fetched key set", zap.String("issuer", issuer))
	return raw, nil
}
