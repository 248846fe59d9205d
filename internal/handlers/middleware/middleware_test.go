package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"vmtracker/config"
	"vmtracker/internal/database"
	"vmtracker/internal/repositories/memory"
	"vmtracker/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(t *testing.T, cfg config.Config) (Middleware, services.Service, *testclock.Clock) {
	t.Helper()

	cfg.JWTSecret = "middleware-test-secret"
	cfg.JWTIssuer = "vmtracker"
	cfg.JWTAudience = "vmtracker-api"

	clk := testclock.NewClock(time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC))
	svc, err := services.New(database.DB{}, cfg, clk)
	require.NoError(t, err)

	store, repos := memory.New(clk)
	svc.Transaction = store

	return New(database.DB{}, cfg, repos, svc), svc, clk
}

func signed(t *testing.T, svc services.Service, subject, role string) string {
	t.Helper()

	token, err := svc.Auth.SignToken(services.Claims{
		Username:         subject,
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}, time.Hour)
	require.NoError(t, err)
	return token
}

func protectedApp(m *Middleware) *fiber.App {
	app := fiber.New()
	app.Use(m.TraceID())
	app.Get("/me", m.RequireAuth(), func(c *fiber.Ctx) error {
		user := GetUser(c)
		return c.JSON(fiber.Map{"username": user.Username, "role": user.Role})
	})
	app.Get("/admin", m.RequireAuth(), m.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestRequireAuth(t *testing.T) {
	m, svc, _ := newTestMiddleware(t, config.Config{})
	app := protectedApp(&m)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "no header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + signed(t, svc, "driver", "User"), status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + signed(t, svc, "driver", "User"), status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == http.StatusUnauthorized {
				assert.Contains(t, resp.Header.Get(fiber.HeaderWWWAuthenticate), "Bearer")
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	m, svc, _ := newTestMiddleware(t, config.Config{})
	app := protectedApp(&m)

	tests := []struct {
		name   string
		role   string
		status int
	}{
		{name: "user", role: "User", status: http.StatusForbidden},
		{name: "admin", role: "Admin", status: http.StatusNoContent},
		{name: "unknown role", role: "Owner", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signed(t, svc, tt.name, tt.role))

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestTraceID(t *testing.T) {
	m, _, _ := newTestMiddleware(t, config.Config{})
	app := fiber.New()
	app.Use(m.TraceID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(GetTraceID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "trace-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "trace-123", resp.Header.Get(TraceIDHeader))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(TraceIDHeader), 36)
}

func TestRateLimiter_RefillsWithClock(t *testing.T) {
	clk := testclock.NewClock(time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(60, 2, clk)

	allowed, remaining := limiter.Allow("10.0.0.1")
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, _ = limiter.Allow("10.0.0.1")
	assert.True(t, allowed)

	allowed, remaining = limiter.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, _ = limiter.Allow("10.0.0.2")
	assert.True(t, allowed, "buckets are per client")

	clk.Advance(time.Second)
	allowed, _ = limiter.Allow("10.0.0.1")
	assert.True(t, allowed)
}

func trackedClients(rl *RateLimiter) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	clk := testclock.NewClock(time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(60, 1, clk)

	limiter.Allow("a")
	limiter.Allow("b")
	require.Equal(t, 2, trackedClients(limiter))

	clk.Advance(limiterIdleTTL)
	limiter.Allow("c")
	assert.Equal(t, 1, trackedClients(limiter))
}

func TestRateLimit_Middleware(t *testing.T) {
	m, _, _ := newTestMiddleware(t, config.Config{RateLimitPerMinute: 1, RateLimitBurst: 1})
	app := fiber.New()
	app.Use(m.RateLimit())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
}

func TestRateLimit_Disabled(t *testing.T) {
	m, _, _ := newTestMiddleware(t, config.Config{})
	app := fiber.New()
	app.Use(m.RateLimit())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for range 5 {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
	}
}
