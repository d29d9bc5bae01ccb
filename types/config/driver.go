package config

import (
	"fmt"
	"strings"
)

// IdentityMode selects the identity resolution strategy.
type IdentityMode int

const (
	// ModeDefault always resolves to the configured placeholder identity.
	ModeDefault IdentityMode = iota + 1
	// ModeExplicit reads the identity verbatim from a query parameter or object metadata field.
	ModeExplicit
	// ModeToken verifies a bearer token stored in object metadata and uses its subject.
	ModeToken
	// ModeClaim reads the subject claim placed on the request by an upstream authorizer.
	ModeClaim
)

func (m IdentityMode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeExplicit:
		return "explicit"
	case ModeToken:
		return "token"
	case ModeClaim:
		return "claim"
	}
	return "unknown"
}

// ParseIntakeMode parses USER_INFO. "none" keeps the placeholder identity.
func ParseIntakeMode(value string) (IdentityMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "default":
		return ModeDefault, nil
	case "user", "explicit":
		return ModeExplicit, nil
	case "token":
		return ModeToken, nil
	case "cognito", "claim":
		return 0, fmt.Errorf("USER_INFO=%s: object events carry no authorizer claims", value)
	}
	return 0, fmt.Errorf("USER_INFO=%s: unsupported identity mode", value)
}

// ParseQueryMode parses AUTH_METHOD. "none" means the caller names itself in the
// user query parameter.
func ParseQueryMode(value string) (IdentityMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "explicit":
		return ModeExplicit, nil
	case "cognito", "claim":
		return ModeClaim, nil
	case "default":
		return ModeDefault, nil
	}
	return 0, fmt.Errorf("AUTH_METHOD=%s: unsupported identity mode", value)
}

// CacheDriver selects where fetched issuer key sets are cached.
type CacheDriver int

const (
	CacheNone CacheDriver = iota + 1
	CacheMemory
	CacheRedis
)

func (d CacheDriver) String() string {
	switch d {
	case CacheNone:
		return "none"
	case CacheMemory:
		return "memory"
	case CacheRedis:
		return "redis"
	}
	return "unknown"
}

func ParseCacheDriver(value string) (CacheDriver, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return CacheNone, nil
	case "memory":
		return CacheMemory, nil
	case "redis":
		return CacheRedis, nil
	}
	return 0, fmt.Errorf("JWKS_CACHE=%s: unsupported cache driver", value)
}
