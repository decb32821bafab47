package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("WIDGET_TOKEN_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// App
	t.Setenv("DB_PATH", "db.sqlite")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 10.0
	t.Setenv("RATE_BURST", "nope") // -> default 20

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Idempotency
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// Widget tokens
	t.Setenv("WIDGET_TOKEN_SECRET", "s3cret")
	t.Setenv("WIDGET_TOKEN_TTL", "30m")

	// Engine
	t.Setenv("HOLD_TTL", "5m")
	t.Setenv("SLOT_INTERVAL", "15m")
	t.Setenv("DEFAULT_DURATION", "90m")
	t.Setenv("PRE_BUFFER", "10m")
	t.Setenv("POST_BUFFER", "15m")
	t.Setenv("TENANT_SLUG_FALLBACK", "0")
	t.Setenv("TENANT_SINGLE_FALLBACK", "1")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging fields unexpected: %+v", cfg)
	}

	// App
	if cfg.DBPath != "db.sqlite" {
		t.Fatalf("app fields unexpected: %+v", cfg)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 10.0 || cfg.RateBurst != 20 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// Idempotency
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}

	// Widget tokens
	if cfg.Token.Secret != "s3cret" || cfg.Token.DefaultTTL != 30*time.Minute {
		t.Fatalf("token unexpected: %+v", cfg.Token)
	}

	// Engine
	if cfg.Engine.HoldTTL != 5*time.Minute ||
		cfg.Engine.SlotInterval != 15*time.Minute ||
		cfg.Engine.DefaultDuration != 90*time.Minute ||
		cfg.Engine.PreBuffer != 10*time.Minute ||
		cfg.Engine.PostBuffer != 15*time.Minute ||
		cfg.Engine.SlugFallback ||
		!cfg.Engine.SingleTenantFallback {
		t.Fatalf("engine unexpected: %+v", cfg.Engine)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_EngineDefaults(t *testing.T) {
	t.Setenv("WIDGET_TOKEN_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Engine.HoldTTL != 10*time.Minute ||
		cfg.Engine.SlotInterval != 30*time.Minute ||
		cfg.Engine.DefaultDuration != 120*time.Minute ||
		cfg.Engine.PreBuffer != 0 ||
		cfg.Engine.PostBuffer != 0 {
		t.Fatalf("engine defaults unexpected: %+v", cfg.Engine)
	}
	if !cfg.Engine.SlugFallback {
		t.Fatalf("slug fallback should default on")
	}
	if cfg.Engine.SingleTenantFallback {
		t.Fatalf("single-tenant fallback must default off")
	}
	if cfg.Token.DefaultTTL != time.Hour {
		t.Fatalf("token ttl default unexpected: %v", cfg.Token.DefaultTTL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	base := func(t *testing.T) {
		t.Helper()
		t.Setenv("WIDGET_TOKEN_SECRET", "s3cret")
	}

	cases := []struct {
		name string
		set  func(t *testing.T)
		want string
	}{
		{"invalid LOG_LEVEL", func(t *testing.T) { base(t); t.Setenv("LOG_LEVEL", "verbose") }, "LOG_LEVEL"},
		{"bad timeout", func(t *testing.T) { base(t); t.Setenv("READ_TIMEOUT", "-1s") }, "timeouts"},
		{"bad MAX_HEADER_BYTES", func(t *testing.T) { base(t); t.Setenv("MAX_HEADER_BYTES", "-5") }, "MAX_HEADER_BYTES"},
		{"negative RATE_RPS", func(t *testing.T) { base(t); t.Setenv("RATE_RPS", "-1") }, "RATE_RPS"},
		{"zero RATE_BURST", func(t *testing.T) { base(t); t.Setenv("RATE_BURST", "0") }, "RATE_BURST"},
		{"negative HSTS_MAX_AGE", func(t *testing.T) { base(t); t.Setenv("HSTS_MAX_AGE", "-1h") }, "HSTS_MAX_AGE"},
		{"zero IDEMPOTENCY_TTL", func(t *testing.T) { base(t); t.Setenv("IDEMPOTENCY_TTL", "-1h") }, "IDEMPOTENCY_TTL"},
		{"missing secret", func(t *testing.T) { t.Setenv("WIDGET_TOKEN_SECRET", "  ") }, "WIDGET_TOKEN_SECRET"},
		{"zero WIDGET_TOKEN_TTL", func(t *testing.T) { base(t); t.Setenv("WIDGET_TOKEN_TTL", "-1m") }, "WIDGET_TOKEN_TTL"},
		{"zero HOLD_TTL", func(t *testing.T) { base(t); t.Setenv("HOLD_TTL", "-1m") }, "HOLD_TTL"},
		{"zero SLOT_INTERVAL", func(t *testing.T) { base(t); t.Setenv("SLOT_INTERVAL", "-1m") }, "SLOT_INTERVAL"},
		{"zero DEFAULT_DURATION", func(t *testing.T) { base(t); t.Setenv("DEFAULT_DURATION", "-1m") }, "DEFAULT_DURATION"},
		{"negative buffer", func(t *testing.T) { base(t); t.Setenv("PRE_BUFFER", "-5m") }, "buffers"},
		{"sampler out of range", func(t *testing.T) { base(t); t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5") }, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.set(t)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

// --- helpers ---

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/":        "/",
		"api":      "/api",
		"/api/":    "/api",
		"api/v1//": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	if got := splitCSV(""); got != nil {
		t.Fatalf("empty input should return nil, got %#v", got)
	}
	got := splitCSV(" a ,, b,")
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("splitCSV unexpected: %#v", got)
	}
}
