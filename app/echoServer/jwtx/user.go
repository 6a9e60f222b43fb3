// app/echoServer/jwtx/user.go
package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserIDFromContext reads the authenticated caller id set by the JWT middleware.
func UserIDFromContext(c echo.Context) (uuid.UUID, error) {
	if id, ok := c.Get("user_id").(uuid.UUID); ok && id != uuid.Nil {
		return id, nil
	}
	return uuid.Nil, errors.New("no user id in context")
}

// RoleFromContext reads the caller role set by the JWT middleware.
func RoleFromContext(c echo.Context) string {
	if r, ok := c.Get("role").(string); ok {
		return r
	}
	return ""
}

// IsAdmin reports whether the caller carries the admin role claim.
func IsAdmin(c echo.Context) bool { return RoleFromContext(c) == "admin" }

// ExtractClaims pulls sub and role out of the verified token and stashes them
// in the echo context for handlers.
func ExtractClaims(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok, ok := c.Get("user").(*jwt.Token)
		if !ok || tok == nil {
			return echo.NewHTTPError(401, "unauthenticated")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return echo.NewHTTPError(401, "unauthenticated")
		}
		sub, ok := claims["sub"].(string)
		if !ok {
			return echo.NewHTTPError(401, "unauthenticated")
		}
		id, err := uuid.Parse(sub)
		if err != nil {
			return echo.NewHTTPError(401, "unauthenticated")
		}
		c.Set("user_id", id)
		if role, ok := claims["role"].(string); ok {
			c.Set("role", role)
		}
		return next(c)
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return echo.NewHTTPError(403, "admin role required")
		}
		return next(c)
	}
}
