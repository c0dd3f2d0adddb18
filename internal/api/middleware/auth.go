package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/streamscout/streamscout/internal/auth"
)

// ClaimsKey is the echo context key holding validated claims.
const ClaimsKey = "claims"

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Enabled() bool
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// BearerAuth requires a valid bearer token on every request not matched by
// skip. It passes everything through when the validator is disabled.
func BearerAuth(validator TokenValidator, skip func(c echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !validator.Enabled() || (skip != nil && skip(c)) {
				return next(c)
			}
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}

			token := extractBearerToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// GetClaims returns the claims set by BearerAuth, or nil.
func GetClaims(c echo.Context) *auth.Claims {
	claims, ok := c.Get(ClaimsKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
