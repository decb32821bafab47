// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - A CORS and security posture fit for a public embeddable widget
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/seatwise/go-booking-backend/internal/config"
	"github.com/seatwise/go-booking-backend/internal/domain"
	"github.com/seatwise/go-booking-backend/internal/http/handlers"
	"github.com/seatwise/go-booking-backend/internal/http/middleware"
	"github.com/seatwise/go-booking-backend/internal/repo"
	"github.com/seatwise/go-booking-backend/internal/services"
	"github.com/seatwise/go-booking-backend/internal/tenant"
	"github.com/seatwise/go-booking-backend/internal/token"
)

// tenantStoreShim adapts the repository free functions to the tenant.Store
// interface expected by the resolver. It carries the DB handle because the
// resolver is deliberately persistence-agnostic.
type tenantStoreShim struct{ db *gorm.DB }

// GetTenantBySlug proxies repo.GetTenantBySlug.
func (s tenantStoreShim) GetTenantBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return repo.GetTenantBySlug(ctx, s.db, slug)
}

// GetTenantByID proxies repo.GetTenantByID.
func (s tenantStoreShim) GetTenantByID(ctx context.Context, id string) (*domain.Tenant, error) {
	return repo.GetTenantByID(ctx, s.db, id)
}

// FindTenantsBySlugFragment proxies repo.FindTenantsBySlugFragment.
func (s tenantStoreShim) FindTenantsBySlugFragment(ctx context.Context, fragment string) ([]domain.Tenant, error) {
	return repo.FindTenantsBySlugFragment(ctx, s.db, fragment)
}

// FindTenantsByNameFragment proxies repo.FindTenantsByNameFragment.
func (s tenantStoreShim) FindTenantsByNameFragment(ctx context.Context, fragment string) ([]domain.Tenant, error) {
	return repo.FindTenantsByNameFragment(ctx, s.db, fragment)
}

// ListTenants proxies repo.ListTenants.
func (s tenantStoreShim) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	return repo.ListTenants(ctx, s.db)
}

// engineRepoShim adapts the repository free functions to the service-layer
// repo interfaces (availability, hold, confirm). This keeps services decoupled
// from the concrete repo package while reusing existing functions.
type engineRepoShim struct{}

// ListActiveTables proxies repo.ListActiveTables.
func (engineRepoShim) ListActiveTables(ctx context.Context, db *gorm.DB, tenantID string) ([]domain.RestaurantTable, error) {
	return repo.ListActiveTables(ctx, db, tenantID)
}

// ListBookingsBetween proxies repo.ListBookingsBetween.
func (engineRepoShim) ListBookingsBetween(ctx context.Context, db *gorm.DB, tenantID string, from, to time.Time) ([]domain.Booking, error) {
	return repo.ListBookingsBetween(ctx, db, tenantID, from, to)
}

// CreateHold proxies repo.CreateHold.
func (engineRepoShim) CreateHold(ctx context.Context, db *gorm.DB, h *domain.Hold) error {
	return repo.CreateHold(ctx, db, h)
}

// DeleteExpiredHolds proxies repo.DeleteExpiredHolds.
func (engineRepoShim) DeleteExpiredHolds(ctx context.Context, db *gorm.DB, tenantID string, now time.Time) (int64, error) {
	return repo.DeleteExpiredHolds(ctx, db, tenantID, now)
}

// GetHold proxies repo.GetHold.
func (engineRepoShim) GetHold(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Hold, error) {
	return repo.GetHold(ctx, db, tenantID, id)
}

// DeleteHold proxies repo.DeleteHold.
func (engineRepoShim) DeleteHold(ctx context.Context, db *gorm.DB, tenantID, id string) error {
	return repo.DeleteHold(ctx, db, tenantID, id)
}

// CreateBooking proxies repo.CreateBooking.
func (engineRepoShim) CreateBooking(ctx context.Context, db *gorm.DB, b *domain.Booking) (*domain.Booking, error) {
	return repo.CreateBooking(ctx, db, b)
}

// LatestBookingByGuestEmail proxies repo.LatestBookingByGuestEmail.
func (engineRepoShim) LatestBookingByGuestEmail(ctx context.Context, db *gorm.DB, tenantID, email string) (*domain.Booking, error) {
	return repo.LatestBookingByGuestEmail(ctx, db, tenantID, email)
}

// GetIdempotency proxies repo.GetIdempotency.
func (engineRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, tenantID, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, tenantID, key, now)
}

// CreateIdempotency proxies repo.CreateIdempotency.
func (engineRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, tenantID, key string, status int, body string, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, tenantID, key, status, body, ttl)
}

// CountActiveTablesWithCapacity proxies repo.CountActiveTablesWithCapacity.
func (engineRepoShim) CountActiveTablesWithCapacity(ctx context.Context, db *gorm.DB, tenantID string, partySize int) (int64, error) {
	return repo.CountActiveTablesWithCapacity(ctx, db, tenantID, partySize)
}

// CountBookingsOverlapping proxies repo.CountBookingsOverlapping.
func (engineRepoShim) CountBookingsOverlapping(ctx context.Context, db *gorm.DB, tenantID string, from, to time.Time, duration time.Duration) (int64, error) {
	return repo.CountBookingsOverlapping(ctx, db, tenantID, from, to, duration)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// versioned widget API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per IP)
//  8. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, version string) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (guest PII travels in confirm
	// bodies; headers carry tokens)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Widget-Token",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 8) CORS posture. The widget is embedded on arbitrary restaurant sites,
	// so the default is allow-any-origin without credentials; deployments that
	// know their embedder domains can pin them via CORS_ALLOWED_ORIGINS.
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		// Force ACAO: * even for requests without an Origin header (helps
		// tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/config
	tokenSvc := token.New(cfg.Token.Secret)
	resolver := tenant.NewResolver(tenantStoreShim{db: db}, tokenSvc, tenant.Options{
		SlugFallback:         cfg.Engine.SlugFallback,
		SingleTenantFallback: cfg.Engine.SingleTenantFallback,
	})
	availSvc := services.NewAvailabilityService(db, engineRepoShim{}, cfg.Engine)
	holdSvc := services.NewHoldService(db, engineRepoShim{}, cfg.Engine.HoldTTL, cfg.Engine.DefaultDuration)
	confirmSvc := services.NewConfirmService(db, engineRepoShim{}, cfg.IdempotencyTTL)
	h := handlers.New(resolver, availSvc, holdSvc, confirmSvc, tokenSvc, cfg.Token.DefaultTTL, version)

	// Public widget API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		api.POST("/widget", h.Widget)
		api.POST("/widget/token", h.IssueToken)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
