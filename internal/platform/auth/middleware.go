package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// Middleware extracts the bearer token, verifies it, and places the principal
// in the request context. Requests without a valid, unexpired credential fail
// Unauthenticated before any policy evaluation.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return apperr.Respond(c, apperr.New(apperr.KindUnauthenticated, "missing authorization header"))
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return apperr.Respond(c, apperr.New(apperr.KindUnauthenticated, "authorization header is not a bearer token"))
			}

			principal, err := ParseToken(secret, parts[1])
			if err != nil {
				return apperr.Respond(c, err)
			}

			ctx := ContextWithPrincipal(c.Request().Context(), principal)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
