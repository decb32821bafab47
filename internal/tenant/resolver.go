// Package tenant resolves an inbound widget request to a concrete tenant
// record. A request may carry a signed token, an explicit tenant id, or a raw
// slug; the resolver tries an ordered chain of strategies and records which
// one succeeded as the request's auth mode.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seatwise/go-booking-backend/internal/domain"
)

// AuthMode identifies the strategy that resolved a request's tenant.
type AuthMode string

const (
	AuthModeToken        AuthMode = "token"
	AuthModeExplicitID   AuthMode = "explicit_id"
	AuthModeSlugFallback AuthMode = "slug_fallback"
	AuthModeSlugPublic   AuthMode = "slug_public"
)

// Request carries the identity material supplied by the caller.
// MetadataOnly is true when the caller is asking for public tenant metadata
// only (not search/hold/confirm); it unlocks the open-slug last resort.
type Request struct {
	Token        string
	TenantID     string
	Slug         string
	MetadataOnly bool
}

// Result pairs the resolved tenant with the mode that won.
type Result struct {
	Tenant   *domain.Tenant
	AuthMode AuthMode
}

// Attempt records one strategy that ran and why it did not resolve a tenant.
type Attempt struct {
	Strategy string `json:"strategy"`
	Reason   string `json:"reason"`
}

// AuthError is returned when every applicable strategy failed. The attempt
// trail aids debugging; reasons never include secrets or full tokens.
type AuthError struct {
	Attempts []Attempt
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if len(e.Attempts) == 0 {
		return "tenant resolution failed: no identity material supplied"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Strategy+": "+a.Reason)
	}
	return "tenant resolution failed: " + strings.Join(parts, "; ")
}

// Options gates the optional fallback strategies. Both map directly to the
// engine configuration flags.
type Options struct {
	SlugFallback         bool
	SingleTenantFallback bool
}

// Resolver runs the strategy chain. It is read-only and safe for concurrent
// use.
type Resolver struct {
	store Store
	chain []strategy
}

// NewResolver builds a resolver over store, verifying tokens with v.
// Strategy order is fixed: token, explicit id, then (when opts.SlugFallback)
// exact slug, slug fragment, name fragment, then (when additionally
// opts.SingleTenantFallback) the only-tenant heuristic, and finally the
// public-slug lookup for metadata-only requests.
func NewResolver(store Store, v Verifier, opts Options) *Resolver {
	chain := []strategy{tokenStrategy(v), explicitIDStrategy()}
	if opts.SlugFallback {
		chain = append(chain, slugExactStrategy(), slugFragmentStrategy(), nameFragmentStrategy())
		if opts.SingleTenantFallback {
			chain = append(chain, singleTenantStrategy())
		}
	}
	chain = append(chain, publicSlugStrategy())
	return &Resolver{store: store, chain: chain}
}

// Resolve tries each strategy in order and returns the first success. When
// none succeeds it returns an *AuthError carrying the attempt trail; the
// caller must report it as an authorization failure, never default a tenant.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.Slug = strings.TrimSpace(req.Slug)
	req.Token = strings.TrimSpace(req.Token)

	authErr := &AuthError{}
	for _, s := range r.chain {
		// Single-tenant fallback only runs when slug material was supplied;
		// a fully anonymous request must not land on an arbitrary tenant.
		if s.Name == "single_tenant" && req.Slug == "" {
			continue
		}
		t, err := s.Run(ctx, r.store, req)
		if err == nil && t != nil {
			return &Result{Tenant: t, AuthMode: s.Mode}, nil
		}
		if errors.Is(err, errSkip) {
			continue
		}
		reason := "no match"
		if err != nil {
			reason = err.Error()
		}
		authErr.Attempts = append(authErr.Attempts, Attempt{Strategy: s.Name, Reason: reason})
	}
	return nil, authErr
}

// ResolveSlug is a convenience wrapper for flows that only have a raw slug
// (token issuance validation). It fails with the same AuthError semantics.
func (r *Resolver) ResolveSlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	t, err := r.store.GetTenantBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, &AuthError{Attempts: []Attempt{{
			Strategy: "slug_exact",
			Reason:   fmt.Sprintf("no tenant with slug %q", slug),
		}}}
	}
	return t, nil
}
