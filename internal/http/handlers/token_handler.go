// Token issuance handler.
//
// This file exposes the endpoint embed generators call to mint a widget token:
//   - POST /api/v1/widget/token
//
// The slug must belong to an existing tenant; issuance never creates one.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seatwise/go-booking-backend/internal/token"
)

// IssueTokenRequest is the JSON payload for minting a widget token.
type IssueTokenRequest struct {
	// Slug identifies the tenant the token is scoped to.
	Slug string `json:"slug" binding:"required"`
	// WidgetType is the widget surface: booking or catering.
	WidgetType string `json:"widget_type" binding:"required"`
	// ConfigVersion pins the embed configuration the token was generated for.
	ConfigVersion int `json:"config_version"`
	// TTLSeconds overrides the default token lifetime; the service clamps it.
	TTLSeconds int `json:"ttl_seconds"`
}

// IssueToken mints a signed widget token for an existing tenant slug.
func (h *Handlers) IssueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "invalid JSON body: slug and widget_type are required")
		return
	}

	slug := strings.TrimSpace(req.Slug)
	if _, err := h.resolver.ResolveSlug(c.Request.Context(), slug); err != nil {
		fail(c, http.StatusNotFound, ErrCodeTenantNotFound, "no tenant with slug "+strconv.Quote(slug))
		return
	}

	ttl := h.tokenTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	tok, exp, err := h.tokens.Issue(slug, strings.TrimSpace(req.WidgetType), req.ConfigVersion, ttl)
	if err != nil {
		if errors.Is(err, token.ErrBadWidgetType) {
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "token signing failed")
		return
	}

	ok(c, http.StatusOK, gin.H{
		"token":      tok,
		"expires_at": exp,
	})
}
