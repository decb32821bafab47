// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for table
// inventory.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/seatwise/go-booking-backend/internal/domain"
)

// ListActiveTables returns the tenant's active tables ordered by capacity
// ascending. Capacity filtering happens in the slot generator, which needs
// the full eligible set anyway.
func ListActiveTables(ctx context.Context, db *gorm.DB, tenantID string) ([]domain.RestaurantTable, error) {
	var out []domain.RestaurantTable
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("capacity asc").
		Find(&out).Error
	return out, err
}

// CountActiveTablesWithCapacity returns how many active tables can seat at
// least partySize guests. Used by the confirmation capacity re-check.
func CountActiveTablesWithCapacity(ctx context.Context, db *gorm.DB, tenantID string, partySize int) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.RestaurantTable{}).
		Where("tenant_id = ? AND active = ? AND capacity >= ?", tenantID, true, partySize).
		Count(&total).Error
	return total, err
}
