package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/types/config"
	"go.uber.org/zap"
)

// SubjectClaim is the claim that names the caller in verified tokens.
const SubjectClaim = "sub"

// Source carries every identity signal attached to one request or object.
type Source struct {
	// Claims were verified upstream, by an authorizer or by the HTTP adapter.
	Claims map[string]string
	// Params are the request's query string parameters.
	Params map[string]string
	// Metadata is the user metadata stored on an uploaded object.
	Metadata map[string]string
}

// Resolver derives the owner identity of a request or uploaded object.
type Resolver interface {
	Resolve(ctx context.Context, src Source) (string, error)
	// NeedsMetadata reports whether Resolve reads Source.Metadata, so callers
	// can skip the object metadata lookup when it does not.
	NeedsMetadata() bool
	Mode() config.IdentityMode
}

// New selects the resolver for cfg.Mode. verifier is only used in token mode
// and must not be nil there.
func New(cfg config.IdentityConfig, verifier *TokenVerifier, logger *zap.Logger) (Resolver, error) {
	if cfg.DefaultIdentity == "" {
		return nil, fmt.Errorf("identity: default identity is empty: %w", custom_errors.ErrConfiguration)
	}
	switch cfg.Mode {
	case config.ModeDefault:
		return DefaultResolver{Identity: cfg.DefaultIdentity}, nil
	case config.ModeExplicit:
		return ExplicitResolver{Field: cfg.UserField, Default: cfg.DefaultIdentity}, nil
	case config.ModeClaim:
		return ClaimResolver{}, nil
	case config.ModeToken:
		if verifier == nil {
			return nil, fmt.Errorf("identity: token mode without a verifier: %w", custom_errors.ErrConfiguration)
		}
		return &TokenResolver{
			Field:    cfg.TokenField,
			Default:  cfg.DefaultIdentity,
			verifier: verifier,
			logger:   logger,
		}, nil
	}
	return nil, fmt.Errorf("identity: unsupported mode %s: %w", cfg.Mode, custom_errors.ErrConfiguration)
}

// DefaultResolver always returns the placeholder identity.
type DefaultResolver struct {
	Identity string
}

func (r DefaultResolver) Resolve(context.Context, Source) (string, error) {
	return r.Identity, nil
}

func (DefaultResolver) NeedsMetadata() bool       { return false }
func (DefaultResolver) Mode() config.IdentityMode { return config.ModeDefault }

// ExplicitResolver reads the identity verbatim from a query parameter, or
// from the object metadata when there is no such parameter.
type ExplicitResolver struct {
	Field   string
	Default string
}

func (r ExplicitResolver) Resolve(_ context.Context, src Source) (string, error) {
	if v := src.Params[r.Field]; v != "" {
		return v, nil
	}
	if v := src.Metadata[r.Field]; v != "" {
		return v, nil
	}
	return r.Default, nil
}

func (ExplicitResolver) NeedsMetadata() bool       { return true }
func (ExplicitResolver) Mode() config.IdentityMode { return config.ModeExplicit }

// ClaimResolver trusts the subject claim an upstream authorizer already verified.
type ClaimResolver struct{}

func (ClaimResolver) Resolve(_ context.Context, src Source) (string, error) {
	if sub := src.Claims[SubjectClaim]; sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("no authorizer claims on request: %w", custom_errors.ErrNoIdentity)
}

func (ClaimResolver) NeedsMetadata() bool       { return false }
func (ClaimResolver) Mode() config.IdentityMode { return config.ModeClaim }

// TokenResolver verifies the bearer token stored in the object metadata and
// returns its subject. A token that does not verify falls back to Default.
// Failing to reach the issuer is returned so the record is retried.
type TokenResolver struct {
	Field    string
	Default  string
	verifier *TokenVerifier
	logger   *zap.Logger
}

func (r *TokenResolver) Resolve(ctx context.Context, src Source) (string, error) {
	raw := src.Metadata[r.Field]
	if raw == "" {
		return r.Default, nil
	}
	sub, err := r.verifier.Subject(ctx, raw)
	if err != nil {
		if errors.Is(err, custom_errors.ErrExternal) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("resolve token identity: %w", err)
		}
		r.logger.Warn("token validation failed, using default identity",
			zap.String("default", r.Default), zap.Error(err))
		return r.Default, nil
	}
	return sub, nil
}

func (*TokenResolver) NeedsMetadata() bool       { return true }
func (*TokenResolver) Mode() config.IdentityMode { return config.ModeToken }
