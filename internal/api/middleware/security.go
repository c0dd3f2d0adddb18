package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets browser hardening headers on every response and
// disables caching under the given path prefixes ("/api" when none given).
func SecurityHeaders(noStorePrefixes ...string) echo.MiddlewareFunc {
	if len(noStorePrefixes) == 0 {
		noStorePrefixes = []string{"/api"}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			// Prevent MIME type sniffing
			h.Set("X-Content-Type-Options", "nosniff")

			// Gateway responses are never meant to be framed
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "frame-ancestors 'none'")

			// Control referrer information
			h.Set("Referrer-Policy", "no-referrer")

			path := c.Request().URL.Path
			for _, prefix := range noStorePrefixes {
				if strings.HasPrefix(path, prefix) {
					h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
					h.Set("Pragma", "no-cache")
					break
				}
			}

			return next(c)
		}
	}
}
