// Widget HTTP handlers.
//
// This file exposes the single multiplexed widget endpoint:
//   - POST /api/v1/widget   (JSON body, "action" field dispatches)
//
// Supported actions: tenant, search, hold, confirm, ping, diag. All actions
// except ping/diag resolve a tenant first; the winning strategy is echoed back
// as auth_mode so embedders can see how they were identified.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seatwise/go-booking-backend/internal/domain"
	"github.com/seatwise/go-booking-backend/internal/http/middleware"
	"github.com/seatwise/go-booking-backend/internal/schedule"
	"github.com/seatwise/go-booking-backend/internal/services"
	"github.com/seatwise/go-booking-backend/internal/tenant"
)

//
// Service contracts (context-aware)
//

// TenantResolver resolves inbound identity material (token, explicit id, slug)
// to a tenant record.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type TenantResolver interface {
	// Resolve runs the strategy chain and returns the winning tenant and mode.
	Resolve(ctx context.Context, req tenant.Request) (*tenant.Result, error)
	// ResolveSlug looks up a tenant by exact slug (token issuance validation).
	ResolveSlug(ctx context.Context, slug string) (*domain.Tenant, error)
}

// AvailabilitySearcher computes bookable slots for a tenant and date.
type AvailabilitySearcher interface {
	// Search returns the slots plus a machine reason when the day is closed.
	Search(ctx context.Context, t *domain.Tenant, date string, partySize int) ([]schedule.Slot, string, error)
}

// HoldCreator creates short-lived checkout holds.
type HoldCreator interface {
	// Create persists a hold on start (UTC) for partySize guests.
	Create(ctx context.Context, t *domain.Tenant, start time.Time, partySize int) (*domain.Hold, error)
}

// BookingConfirmer converts holds into durable bookings.
type BookingConfirmer interface {
	// Confirm turns a hold into a pending booking, or replays a recorded
	// response for a repeated idempotency key.
	Confirm(ctx context.Context, t *domain.Tenant, holdID string, guest services.GuestDetails, idempotencyKey string) (*services.Result, error)
	// Record stores the rendered response against (tenant, key), best-effort.
	Record(ctx context.Context, t *domain.Tenant, idempotencyKey string, status int, body string)
}

// TokenIssuer signs widget tokens.
type TokenIssuer interface {
	Issue(slug, widgetType string, configVersion int, ttl time.Duration) (string, time.Time, error)
}

//
// Handler wiring
//

// Handlers groups the widget API endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	resolver      TenantResolver
	availability  AvailabilitySearcher
	holds         HoldCreator
	confirmations BookingConfirmer
	tokens        TokenIssuer

	tokenTTL time.Duration
	version  string
	started  time.Time
}

// New constructs a Handlers instance bound to the given services.
// defaultTokenTTL applies when a token request omits ttl_seconds; version is
// echoed by the diag action.
func New(resolver TenantResolver, availability AvailabilitySearcher, holds HoldCreator, confirmations BookingConfirmer, tokens TokenIssuer, defaultTokenTTL time.Duration, version string) *Handlers {
	return &Handlers{
		resolver:      resolver,
		availability:  availability,
		holds:         holds,
		confirmations: confirmations,
		tokens:        tokens,
		tokenTTL:      defaultTokenTTL,
		version:       version,
		started:       time.Now().UTC(),
	}
}

//
// DTOs
//

// SlotRef identifies the slot a hold targets.
type SlotRef struct {
	// Time is the slot start instant, ISO-8601 UTC as returned by search.
	Time time.Time `json:"time"`
}

// GuestDetailsRequest carries the guest contact fields for confirm.
type GuestDetailsRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
}

// WidgetRequest is the JSON payload of the multiplexed widget endpoint. Only
// the fields relevant to the requested action need to be set.
type WidgetRequest struct {
	// Action selects the operation: tenant, search, hold, confirm, ping, diag.
	Action string `json:"action" binding:"required"`

	// Identity material, in precedence order.
	Token    string `json:"token"`
	TenantID string `json:"tenant_id"`
	Slug     string `json:"slug"`

	// search
	PartySize   int    `json:"party_size"`
	ServiceDate string `json:"service_date"`

	// hold
	Slot *SlotRef `json:"slot"`

	// confirm
	HoldID         string               `json:"hold_id"`
	GuestDetails   *GuestDetailsRequest `json:"guest_details"`
	IdempotencyKey string               `json:"idempotency_key"`
}

//
// Helpers
//

// bearerToken extracts a bearer credential from the Authorization header, as
// an alternative to the token field in the body.
func bearerToken(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return ""
	}
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authIssues converts a resolution attempt trail into envelope issues.
func authIssues(e *tenant.AuthError) []any {
	out := make([]any, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		out = append(out, a)
	}
	return out
}

// failAuth reports a failed tenant resolution. A request whose only identity
// material was a token gets the more specific INVALID_TOKEN code so the
// embedder knows to mint a fresh one.
func failAuth(c *gin.Context, req tenant.Request, e *tenant.AuthError) {
	code := ErrCodeAuthFailure
	if req.Token != "" && req.TenantID == "" && req.Slug == "" {
		code = ErrCodeInvalidToken
	}
	fail(c, http.StatusUnauthorized, code, "could not resolve a tenant for this request", authIssues(e)...)
}

//
// Handlers
//

// Widget dispatches the multiplexed widget endpoint on the request's action
// field. ping and diag short-circuit before tenant resolution; every other
// action resolves a tenant first and fails with 401 when it cannot.
func (h *Handlers) Widget(c *gin.Context) {
	var req WidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "invalid JSON body: action is required")
		return
	}

	action := strings.ToLower(strings.TrimSpace(req.Action))
	middleware.SetWidgetAction(c, action)

	switch action {
	case "ping":
		ok(c, http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
		return
	case "diag":
		ok(c, http.StatusOK, gin.H{
			"status":  "ok",
			"time":    time.Now().UTC(),
			"version": h.version,
			"uptime":  time.Since(h.started).Round(time.Second).String(),
		})
		return
	case "tenant", "search", "hold", "confirm":
	default:
		fail(c, http.StatusBadRequest, ErrCodeValidation, "unknown action "+strconv.Quote(action))
		return
	}

	rreq := tenant.Request{
		Token:        req.Token,
		TenantID:     req.TenantID,
		Slug:         req.Slug,
		MetadataOnly: action == "tenant",
	}
	if rreq.Token == "" {
		rreq.Token = bearerToken(c)
	}

	res, err := h.resolver.Resolve(c.Request.Context(), rreq)
	if err != nil {
		var ae *tenant.AuthError
		if errors.As(err, &ae) {
			failAuth(c, rreq, ae)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "tenant resolution failed")
		return
	}
	middleware.SetTenantSlug(c, res.Tenant.Slug)

	switch action {
	case "tenant":
		h.tenantMeta(c, res)
	case "search":
		h.search(c, res, req)
	case "hold":
		h.hold(c, res.Tenant, req)
	case "confirm":
		h.confirm(c, res.Tenant, req)
	}
}

// tenantMeta returns the public tenant metadata the widget needs to render,
// plus the auth mode that resolved this request.
func (h *Handlers) tenantMeta(c *gin.Context, res *tenant.Result) {
	t := res.Tenant
	ok(c, http.StatusOK, gin.H{
		"tenant": gin.H{
			"id":       t.ID,
			"slug":     t.Slug,
			"name":     t.Name,
			"timezone": t.Timezone,
			"currency": t.Currency,
			"hours":    t.Hours,
			"holidays": t.Holidays,
		},
		"features": gin.H{
			"booking":  true,
			"catering": false,
		},
		"auth_mode": res.AuthMode,
	})
}

func (h *Handlers) search(c *gin.Context, res *tenant.Result, req WidgetRequest) {
	slots, reason, err := h.availability.Search(c.Request.Context(), res.Tenant, strings.TrimSpace(req.ServiceDate), req.PartySize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "availability search failed")
		return
	}

	// The widget UI shows which restaurant it is booking for and how the
	// request was identified.
	body := gin.H{
		"tenant":    res.Tenant.Slug,
		"auth_mode": res.AuthMode,
		"slots":     slots,
	}
	if reason != "" {
		body["reason"] = reason
	}
	ok(c, http.StatusOK, body)
}

func (h *Handlers) hold(c *gin.Context, t *domain.Tenant, req WidgetRequest) {
	if req.Slot == nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "slot.time is required")
		return
	}

	hold, err := h.holds.Create(c.Request.Context(), t, req.Slot.Time, req.PartySize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeHoldFailed, "could not create hold")
		return
	}
	ok(c, http.StatusCreated, gin.H{
		"hold_id":    hold.ID,
		"expires_at": hold.ExpiresAt,
	})
}

func (h *Handlers) confirm(c *gin.Context, t *domain.Tenant, req WidgetRequest) {
	var guest services.GuestDetails
	if req.GuestDetails != nil {
		guest = services.GuestDetails{
			Name:            req.GuestDetails.Name,
			Email:           req.GuestDetails.Email,
			Phone:           req.GuestDetails.Phone,
			SpecialRequests: req.GuestDetails.SpecialRequests,
		}
	}

	res, err := h.confirmations.Confirm(c.Request.Context(), t, req.HoldID, guest, req.IdempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, services.ErrHoldNotFound):
			fail(c, http.StatusNotFound, ErrCodeHoldNotFound, "hold not found or expired")
		case errors.Is(err, services.ErrNoCapacity):
			fail(c, http.StatusConflict, ErrCodeConfirmationFailed, "no capacity remains for the held time")
		case errors.Is(err, services.ErrBookingNotCreated):
			fail(c, http.StatusInternalServerError, ErrCodeBookingNotCreated, "booking could not be verified after create")
		case errors.Is(err, services.ErrConfirmationFailed):
			fail(c, http.StatusInternalServerError, ErrCodeConfirmationFailed, "confirmation failed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "confirmation failed")
		}
		return
	}

	if res.Replayed {
		c.Data(res.ReplayStatus, "application/json; charset=utf-8", []byte(res.ReplayBody))
		return
	}

	b := res.Booking
	body := envelope(c, gin.H{
		"reservation_id":      b.ID,
		"confirmation_number": res.ConfirmationNumber,
		"status":              b.Status,
		"summary": gin.H{
			"start_time":       b.StartTime,
			"duration_minutes": b.DurationMinutes,
			"party_size":       b.PartySize,
			"guest_name":       b.GuestName,
		},
	})

	// Render once so the recorded idempotent response is byte-identical to
	// what this caller receives.
	raw, merr := json.Marshal(body)
	if merr != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "response encoding failed")
		return
	}
	c.Data(http.StatusCreated, "application/json; charset=utf-8", raw)
	h.confirmations.Record(c.Request.Context(), t, req.IdempotencyKey, http.StatusCreated, string(raw))
}
