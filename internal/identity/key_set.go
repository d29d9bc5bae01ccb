package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrKeyNotFound     = errors.New("public key not found")
	ErrMalformedKeySet = errors.New("malformed key set")
	ErrUntrustedIssuer = errors.New("untrusted issuer")
)

// KeySet is an issuer's published set of public keys.
type KeySet struct {
	keys keyfunc.Keyfunc
}

// ParseKeySet loads a JWK Set document. Every key in it must be valid.
func ParseKeySet(raw []byte) (*KeySet, error) {
	var set jwkset.JWKSMarshal
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedKeySet, err)
	}
	if len(set.Keys) == 0 {
		return nil, fmt.Errorf("%w: no keys", ErrMalformedKeySet)
	}
	keys, err := keyfunc.NewJWKSetJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedKeySet, err)
	}
	return &KeySet{keys: keys}, nil
}

// Lookup returns ErrKeyNotFound when the set holds no key with kid.
func (ks *KeySet) Lookup(ctx context.Context, kid string) error {
	_, err := ks.keys.Storage().KeyRead(ctx, kid)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwkset.ErrKeyNotFound):
		return fmt.Errorf("%w: kid=%s", ErrKeyNotFound, kid)
	}
	return fmt.Errorf("%w: %w", ErrMalformedKeySet, err)
}

// Keyfunc selects the verification key by the token's kid header.
func (ks *KeySet) Keyfunc(ctx context.Context) jwt.Keyfunc {
	return ks.keys.KeyfuncCtx(ctx)
}
