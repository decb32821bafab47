// Package tenant – resolution strategies.
//
// Each strategy is a small, pure step that either produces a tenant, declines
// (not applicable / no match), or fails. The resolver runs them in a fixed
// order and stops at the first success, recording why every earlier strategy
// declined so authorization failures are debuggable without leaking secrets.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seatwise/go-booking-backend/internal/domain"
	"github.com/seatwise/go-booking-backend/internal/repo"
)

// Store is the read-only tenant lookup surface required by the resolver.
type Store interface {
	// GetTenantBySlug fetches a tenant by exact slug, repo.ErrNotFound when absent.
	GetTenantBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
	// GetTenantByID fetches a tenant by primary key, repo.ErrNotFound when absent.
	GetTenantByID(ctx context.Context, id string) (*domain.Tenant, error)
	// FindTenantsBySlugFragment returns tenants whose slug contains fragment
	// (case-insensitive).
	FindTenantsBySlugFragment(ctx context.Context, fragment string) ([]domain.Tenant, error)
	// FindTenantsByNameFragment returns tenants whose name contains fragment
	// (case-insensitive).
	FindTenantsByNameFragment(ctx context.Context, fragment string) ([]domain.Tenant, error)
	// ListTenants returns every tenant in the store.
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
}

// Verifier validates a widget token and yields the slug it is scoped to.
// Implemented by token.Service.
type Verifier interface {
	VerifySlug(raw string) (slug string, err error)
}

// strategy is one step in the resolution chain. Run returns:
//   - (tenant, nil): success
//   - (nil, errSkip): not applicable for this request
//   - (nil, err):     attempted and failed, err is the recorded reason
type strategy struct {
	Name string
	Mode AuthMode
	Run  func(ctx context.Context, st Store, req Request) (*domain.Tenant, error)
}

// errSkip marks a strategy as not applicable rather than failed.
var errSkip = errors.New("skip")

func tokenStrategy(v Verifier) strategy {
	return strategy{
		Name: "token",
		Mode: AuthModeToken,
		Run: func(ctx context.Context, st Store, req Request) (*domain.Tenant, error) {
			if req.Token == "" {
				return nil, errSkip
			}
			slug, err := v.VerifySlug(req.Token)
			if err != nil {
				return nil, fmt.Errorf("token rejected (prefix %q)", tokenPrefix(req.Token))
			}
			t, err := st.GetTenantBySlug(ctx, slug)
			if errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("token slug %q has no tenant", slug)
			}
			return t, err
		},
	}
}

func explicitIDStrategy() strategy {
	return strategy{
		Name: "explicit_id",
		Mode: AuthModeExplicitID,
		Run: func(ctx context.Context, st Store, req Request) (*domain.Tenant, error) {
			if req.TenantID == "" {
				return nil, errSkip
			}
			t, err := st.GetTenantByID(ctx, req.TenantID)
			if errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("no tenant with id %q", req.TenantID)
			}
			return t, err
		},
	}
}

func slugExactStrategy() strategy {
	return strategy{
		Name: "slug_exact",
		Mode: AuthModeSlugFallback,
		Run: func(ctx context.Context, st Store, req Request) (*domain.Tenant, error) {
			if req.Slug == "" {
				return nil, errSkip
			}
			t, err := st.GetTenantBySlug(ctx, req.Slug)
			if errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("no tenant with slug %q", req.Slug)
			}
			return t, err
		},
	}
}

// slugFragmentStrategy matches a case-insensitive substring of the slug, and
// only accepts an unambiguous (single) match.
func slugFragmentStrategy() strategy {
	return strategy{
		Name: "slug_fragment",
		Mode: AuthModeSlugFallback,
		Run: func(ctx context.Context, st Store, req Request) (*domain.Tenant, error) {
			return fragmentMatch(ctx, st.FindTenantsBySlugFragment, req.Slug, "slug")
		},
	}
}

// nameFragmentStrategy matches a case-insensitive substring of the display
// name, single match only.
func nameFragmentStrategy() strategy {
	return strategy{
		Name: "name_fragment",
		Mode: AuthModeSlugFallback,
		Run: func(ctx context.Context, st Store, req Request) (*domain.Tenant, error) {
			return fragmentMatch(ctx, st.FindTenantsByNameFragment, req.Slug, "name")
		},
	}
}

// singleTenantStrategy uses the only tenant in the store, when exactly one
// exists. Gated behind EngineConfig.SingleTenantFallback; never enabled in
// multi-tenant production.
func singleTenantStrategy() strategy {
	return strategy{
		Name: "single_tenant",
		Mode: AuthModeSlugFallback,
		Run: func(ctx context.Context, st Store, req Request) (*domain.Tenant, error) {
			all, err := st.ListTenants(ctx)
			if err != nil {
				return nil, err
			}
			if len(all) != 1 {
				return nil, fmt.Errorf("store has %d tenants, need exactly 1", len(all))
			}
			t := all[0]
			return &t, nil
		},
	}
}

// publicSlugStrategy is the open-slug last resort, permitted only for public
// tenant-metadata requests.
func publicSlugStrategy() strategy {
	return strategy{
		Name: "slug_public",
		Mode: AuthModeSlugPublic,
		Run: func(ctx context.Context, st Store, req Request) (*domain.Tenant, error) {
			if !req.MetadataOnly || req.Slug == "" {
				return nil, errSkip
			}
			t, err := st.GetTenantBySlug(ctx, req.Slug)
			if errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("no tenant with slug %q", req.Slug)
			}
			return t, err
		},
	}
}

func fragmentMatch(ctx context.Context, find func(context.Context, string) ([]domain.Tenant, error), fragment, field string) (*domain.Tenant, error) {
	if fragment == "" {
		return nil, errSkip
	}
	matches, err := find(ctx, strings.ToLower(fragment))
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 1:
		t := matches[0]
		return &t, nil
	case 0:
		return nil, fmt.Errorf("no %s contains %q", field, fragment)
	default:
		return nil, fmt.Errorf("%d tenants match %s fragment %q, need exactly 1", len(matches), field, fragment)
	}
}

// tokenPrefix returns a short, safe-to-log prefix of a raw token.
func tokenPrefix(raw string) string {
	const n = 8
	if len(raw) <= n {
		return raw
	}
	return raw[:n] + "…"
}
