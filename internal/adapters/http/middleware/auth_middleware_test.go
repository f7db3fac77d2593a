package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokens accepts "<role>" as an access token and "r-<role>" as a refresh token
type fakeTokens struct{}

func (fakeTokens) ValidateAccessToken(token string) (domain.Principal, error) {
	if token == "expired" {
		return domain.Principal{}, jwt.ErrTokenExpired
	}
	role := domain.Role(token)
	if !role.Valid() {
		return domain.Principal{}, jwt.ErrTokenInvalid
	}
	return domain.Principal{AccountID: 7, Email: token + "@example.com", Role: role}, nil
}

func (fakeTokens) ValidateRefreshToken(token string) (domain.Principal, error) {
	if len(token) < 3 || token[:2] != "r-" {
		return domain.Principal{}, jwt.ErrTokenInvalid
	}
	return fakeTokens{}.ValidateAccessToken(token[2:])
}

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: CustomErrorHandler})
	auth := AuthMiddleware(fakeTokens{})

	app.Get("/me", auth, func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(string(p.Role))
	})
	app.Get("/staff", auth, StaffOnly(), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/admin", auth, AdminOnly(), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Post("/refresh", RefreshAuth(fakeTokens{}), func(c *fiber.Ctx) error {
		return c.SendString(RefreshTokenFrom(c))
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, bearer string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp()

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/me", ""))
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/me", "garbage"))
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/me", "expired"))
	assert.Equal(t, fiber.StatusOK, do(t, app, "GET", "/me", "user"))
}

func TestAuthMiddleware_CookieWins(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer garbage")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "admin"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRoleGates(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		role  string
		staff int
		admin int
	}{
		{"user", fiber.StatusForbidden, fiber.StatusForbidden},
		{"employee", fiber.StatusForbidden, fiber.StatusForbidden},
		{"librarian", fiber.StatusOK, fiber.StatusForbidden},
		{"admin", fiber.StatusOK, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.staff, do(t, app, "GET", "/staff", tt.role))
			assert.Equal(t, tt.admin, do(t, app, "GET", "/admin", tt.role))
		})
	}
}

func TestRefreshAuth(t *testing.T) {
	app := newTestApp()

	// an access token is not a refresh token
	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "POST", "/refresh", "user"))
	assert.Equal(t, fiber.StatusOK, do(t, app, "POST", "/refresh", "r-user"))
}

func TestRoleGate_WithoutPrincipal(t *testing.T) {
	app := fiber.New()
	app.Get("/", StaffOnly(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	assert.Equal(t, fiber.StatusUnauthorized, do(t, app, "GET", "/", ""))
}
