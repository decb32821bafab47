// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-only repository functions for the
// Tenant model; tenants are provisioned externally and never written here.
//
// All functions are context-aware and accept a *gorm.DB handle. When a tenant
// is not found, functions return ErrNotFound (gorm.ErrRecordNotFound); other
// DB errors propagate raw. Lookups preload the weekly hours and holiday
// children because every consumer (metadata, search) needs them.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/seatwise/go-booking-backend/internal/domain"
)

// GetTenantBySlug fetches a tenant by exact slug with hours and holidays
// preloaded.
func GetTenantBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := db.WithContext(ctx).
		Preload("Hours").
		Preload("Holidays").
		Where("slug = ?", slug).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenantByID fetches a tenant by primary key with hours and holidays
// preloaded.
func GetTenantByID(ctx context.Context, db *gorm.DB, id string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := db.WithContext(ctx).
		Preload("Hours").
		Preload("Holidays").
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindTenantsBySlugFragment returns tenants whose slug contains fragment,
// case-insensitively. Children are preloaded so a single unambiguous match is
// immediately usable.
func FindTenantsBySlugFragment(ctx context.Context, db *gorm.DB, fragment string) ([]domain.Tenant, error) {
	return findTenantsByFragment(ctx, db, "slug", fragment)
}

// FindTenantsByNameFragment returns tenants whose display name contains
// fragment, case-insensitively.
func FindTenantsByNameFragment(ctx context.Context, db *gorm.DB, fragment string) ([]domain.Tenant, error) {
	return findTenantsByFragment(ctx, db, "name", fragment)
}

func findTenantsByFragment(ctx context.Context, db *gorm.DB, column, fragment string) ([]domain.Tenant, error) {
	var out []domain.Tenant
	pattern := "%" + strings.ToLower(fragment) + "%"
	err := db.WithContext(ctx).
		Preload("Hours").
		Preload("Holidays").
		Where("LOWER("+column+") LIKE ?", pattern).
		Order("slug asc").
		Find(&out).Error
	return out, err
}

// ListTenants returns every tenant in the store, ordered by slug. Used only
// by the single-tenant resolution fallback, which the resolver gates.
func ListTenants(ctx context.Context, db *gorm.DB) ([]domain.Tenant, error) {
	var out []domain.Tenant
	err := db.WithContext(ctx).
		Preload("Hours").
		Preload("Holidays").
		Order("slug asc").
		Find(&out).Error
	return out, err
}
