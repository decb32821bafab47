// Package domain defines the persistence models for the reservation engine:
// tenants and their weekly hours, holiday closures, table inventory, bookings,
// and short-lived checkout holds. These types are mapped with GORM and form
// the core data layer shared by the repository and service layers.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Booking lifecycle statuses. A booking is created as pending by the
// confirmation workflow; later transitions are owned by staff tooling.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// DateLayout is the canonical calendar-date representation used for holiday
// entries and service dates (tenant-local, no time component).
const DateLayout = "2006-01-02"

// Tenant represents one restaurant on the platform. Tenants are created by
// external provisioning and are read-only to this engine.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Slug: unique human-readable identifier used by the embeddable widget.
//   - Name: display name shown to guests.
//   - Timezone: IANA zone name (e.g. "America/New_York"); all wall-clock
//     reasoning for this tenant happens in this zone.
//   - Currency: ISO-4217 code used by downstream pricing surfaces.
//   - Hours / Holidays / Tables: owned child rows, cascade-deleted with the
//     tenant.
type Tenant struct {
	ID        string         `json:"id"       gorm:"type:char(36);primaryKey"`
	Slug      string         `json:"slug"     gorm:"type:varchar(64);not null;uniqueIndex"`
	Name      string         `json:"name"     gorm:"type:varchar(255);not null"`
	Timezone  string         `json:"timezone" gorm:"type:varchar(64);not null;default:'UTC'"`
	Currency  string         `json:"currency" gorm:"type:varchar(8);not null;default:'USD'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"        gorm:"index"`

	Hours    []BusinessHours   `json:"hours,omitempty"    gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Holidays []Holiday         `json:"holidays,omitempty" gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tables   []RestaurantTable `json:"-"                  gorm:"foreignKey:TenantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Tenant.
func (Tenant) TableName() string { return "tenants" }

// BusinessHours is one row of a tenant's weekly hours table. Weekday uses
// time.Weekday numbering (0 = Sunday). Open/Close are wall-clock "HH:MM"
// strings in the tenant's timezone. A row with Closed=true (or a missing row)
// means the tenant does not take bookings that day.
type BusinessHours struct {
	ID       uint   `json:"-"       gorm:"primaryKey"`
	TenantID string `json:"-"       gorm:"type:char(36);not null;uniqueIndex:ux_hours_tenant_day,priority:1"`
	Weekday  int    `json:"weekday" gorm:"not null;uniqueIndex:ux_hours_tenant_day,priority:2;check:weekday BETWEEN 0 AND 6"`
	Open     string `json:"open"    gorm:"type:varchar(5);not null;default:''"`
	Close    string `json:"close"   gorm:"type:varchar(5);not null;default:''"`
	Closed   bool   `json:"closed"  gorm:"not null;default:false"`
}

// TableName returns the database table name for BusinessHours.
func (BusinessHours) TableName() string { return "business_hours" }

// Holiday marks a single calendar date on which the tenant is closed
// regardless of weekly hours. Date uses DateLayout.
type Holiday struct {
	ID       uint   `json:"-"    gorm:"primaryKey"`
	TenantID string `json:"-"    gorm:"type:char(36);not null;uniqueIndex:ux_holiday_tenant_date,priority:1"`
	Date     string `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:ux_holiday_tenant_date,priority:2"`
	Label    string `json:"label,omitempty" gorm:"type:varchar(120)"`
}

// TableName returns the database table name for Holiday.
func (Holiday) TableName() string { return "holidays" }

// RestaurantTable is one seating unit. Only active tables with capacity at
// least the requested party size are candidates during availability search.
type RestaurantTable struct {
	ID       string `json:"id"       gorm:"type:char(36);primaryKey"`
	TenantID string `json:"-"        gorm:"type:char(36);not null;index"`
	Label    string `json:"label"    gorm:"type:varchar(50);not null;default:''"`
	Capacity int    `json:"capacity" gorm:"not null;check:capacity > 0"`
	Active   bool   `json:"active"   gorm:"not null;default:true"`
}

// TableName returns the database table name for RestaurantTable.
func (RestaurantTable) TableName() string { return "restaurant_tables" }

// Booking is a durable reservation row. It is created exactly once by the
// confirmation workflow with status pending and is immutable here afterwards;
// status transitions belong to staff tooling.
//
// TableID is empty until staff assigns a specific table: the engine reserves
// capacity, not furniture.
type Booking struct {
	ID              string         `json:"id"         gorm:"type:char(36);primaryKey"`
	TenantID        string         `json:"tenant_id"  gorm:"type:char(36);not null;index:idx_bookings_tenant_start,priority:1"`
	TableID         string         `json:"table_id,omitempty" gorm:"type:char(36);index"`
	StartTime       time.Time      `json:"start_time" gorm:"not null;index:idx_bookings_tenant_start,priority:2"`
	DurationMinutes int            `json:"duration_minutes" gorm:"not null;default:120"`
	PartySize       int            `json:"party_size" gorm:"not null;check:party_size > 0"`
	GuestName       string         `json:"guest_name" gorm:"type:varchar(255);not null"`
	GuestEmail      string         `json:"guest_email" gorm:"type:varchar(255);not null;index"`
	GuestPhone      string         `json:"guest_phone,omitempty" gorm:"type:varchar(50)"`
	SpecialRequests string         `json:"special_requests,omitempty" gorm:"type:text"`
	Status          string         `json:"status"     gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','confirmed','cancelled')"`
	DepositRequired bool           `json:"deposit_required" gorm:"not null;default:false"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Booking.
func (Booking) TableName() string { return "bookings" }

// End returns the instant at which the booking's seating window closes.
func (b Booking) End() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// Hold is a short-lived reservation lock on a time/party-size combination,
// letting a guest finish a multi-step checkout without losing the slot. It is
// consumed by the confirmation workflow or left to expire; a hold past its
// ExpiresAt must never be honored.
//
// Deployments differ in how they store the target instant: most carry the
// absolute StartTime, some older schemas split it into HoldDate/HoldTime
// wall-clock columns. Both shapes are modeled; the repository writes whichever
// the store accepts (see repo.CreateHold).
type Hold struct {
	ID              string    `json:"id"         gorm:"type:char(36);primaryKey"`
	TenantID        string    `json:"tenant_id"  gorm:"type:char(36);not null;index"`
	StartTime       time.Time `json:"start_time"`
	HoldDate        string    `json:"-"          gorm:"type:varchar(10);default:''"`
	HoldTime        string    `json:"-"          gorm:"type:varchar(8);default:''"`
	PartySize       int       `json:"party_size" gorm:"not null;check:party_size > 0"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null;default:120"`
	SessionID       string    `json:"session_id" gorm:"type:char(36);not null"`
	ExpiresAt       time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for Hold.
func (Hold) TableName() string { return "holds" }

// Expired reports whether the hold must no longer be honored at now.
func (h Hold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Start returns the hold's target instant, reconstructing it from the split
// date/time columns when the absolute representation is unset.
func (h Hold) Start() time.Time {
	if !h.StartTime.IsZero() {
		return h.StartTime
	}
	if h.HoldDate == "" {
		return time.Time{}
	}
	layout := DateLayout + " 15:04:05"
	if len(h.HoldTime) == 5 {
		layout = DateLayout + " 15:04"
	}
	t, err := time.Parse(layout, h.HoldDate+" "+h.HoldTime)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
