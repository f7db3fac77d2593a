package middleware

import (
	"errors"
	"strings"

	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/jwt"
	"libraryhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	principalKey    = "principal"
	refreshTokenKey = "refreshToken"
)

// bearerToken reads the token from the named cookie first, then the Authorization header
func bearerToken(c *fiber.Ctx, cookie string) string {
	if token := c.Cookies(cookie); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// AuthMiddleware requires a valid access token and stores the principal
func AuthMiddleware(tokens services.TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := bearerToken(c, "access_token")
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		principal, err := tokens.ValidateAccessToken(accessToken)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// RefreshAuth requires a valid refresh token. The raw token is kept so the
// service can compare it with the stored hash.
func RefreshAuth(tokens services.TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		refreshToken := bearerToken(c, "refresh_token")
		if refreshToken == "" {
			return response.Unauthorized(c, "Refresh token required")
		}

		principal, err := tokens.ValidateRefreshToken(refreshToken)
		if err != nil {
			return response.Unauthorized(c, "Invalid refresh token")
		}

		c.Locals(principalKey, principal)
		c.Locals(refreshTokenKey, refreshToken)
		return c.Next()
	}
}

// PrincipalFrom returns the authenticated caller set by AuthMiddleware or RefreshAuth
func PrincipalFrom(c *fiber.Ctx) (domain.Principal, bool) {
	p, ok := c.Locals(principalKey).(domain.Principal)
	return p, ok
}

// RefreshTokenFrom returns the raw refresh token set by RefreshAuth
func RefreshTokenFrom(c *fiber.Ctx) string {
	token, _ := c.Locals(refreshTokenKey).(string)
	return token
}

// RequireRoles creates role-based authorization middleware
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, role := range allowed {
			if principal.Role == role {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only the admin role
func AdminOnly() fiber.Handler {
	return RequireRoles(domain.RoleAdmin)
}

// StaffOnly middleware allows librarians and admins
func StaffOnly() fiber.Handler {
	return RequireRoles(domain.RoleLibrarian, domain.RoleAdmin)
}
