// Package token issues and verifies the short-lived bearer tokens that scope
// a widget request to one tenant slug and one widget type. Tokens are
// standard HS256 JWTs (header.payload.signature, base64url, HMAC-SHA256);
// nothing is stored server-side, the claims carry the full contract.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Widget types a token may be scoped to.
const (
	WidgetBooking  = "booking"
	WidgetCatering = "catering"
)

// TTL clamp bounds applied on issue.
const (
	MinTTL = 60 * time.Second
	MaxTTL = 6 * time.Hour
)

var (
	// ErrInvalidToken is returned by Verify for any token that is malformed,
	// carries a bad signature, or is expired. Callers get one stable error;
	// details are not leaked to clients.
	ErrInvalidToken = errors.New("invalid widget token")

	// ErrBadWidgetType is returned by Issue when the widget type is not a
	// known value.
	ErrBadWidgetType = errors.New("widget type must be booking or catering")
)

// Claims is the widget token payload. The registered claims carry iat/exp;
// the custom fields scope the token to a tenant slug, a widget surface, and
// the config version the embed was generated against.
type Claims struct {
	Slug          string `json:"slug"`
	WidgetType    string `json:"widget_type"`
	ConfigVersion int    `json:"config_version"`
	jwt.RegisteredClaims
}

// Service signs and verifies widget tokens with a server-held secret.
// The zero value is not usable; construct with New.
type Service struct {
	secret []byte
	now    func() time.Time
}

// New returns a Service signing with secret. The secret must be non-empty;
// rotation is a deploy-time concern.
func New(secret string) *Service {
	return &Service{secret: []byte(secret), now: time.Now}
}

// Issue creates a signed token for slug and widgetType with the given TTL.
// The TTL is clamped to [MinTTL, MaxTTL]; a zero or negative TTL gets MinTTL.
// It returns the compact token and its expiry instant.
func (s *Service) Issue(slug, widgetType string, configVersion int, ttl time.Duration) (string, time.Time, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", time.Time{}, errors.New("slug must not be empty")
	}
	switch widgetType {
	case WidgetBooking, WidgetCatering:
	default:
		return "", time.Time{}, ErrBadWidgetType
	}

	if ttl < MinTTL {
		ttl = MinTTL
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}

	now := s.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Slug:          slug,
		WidgetType:    widgetType,
		ConfigVersion: configVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

// Verify parses and validates a compact token. It returns the claims on
// success and ErrInvalidToken for any structural, signature, or expiry
// failure. No audience or issuer checks are performed.
func (s *Service) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Slug == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// VerifySlug verifies raw and returns only the tenant slug it is scoped to.
// It exists so consumers (the tenant resolver) can depend on a one-method
// surface instead of the full claims type.
func (s *Service) VerifySlug(raw string) (string, error) {
	c, err := s.Verify(raw)
	if err != nil {
		return "", err
	}
	return c.Slug, nil
}
