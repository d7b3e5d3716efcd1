package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/contact-book-api/internal/auth"
	"github.com/iliyamo/contact-book-api/internal/model"
)

// Resolver resolves a bearer access token into the requesting account. It
// is implemented by service.AuthService.
type Resolver interface {
	ResolveCurrentUser(ctx context.Context, bearer string) (*model.User, error)
}

// Authenticate returns an Echo middleware that validates the Authorization
// bearer token through the resolver and stores the account in the request
// context. Handlers read it back via CurrentUser; the role middleware reads
// the "role" key. Token failures of any kind answer 401 without detail
// about whether the account exists.
func Authenticate(resolver Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			u, err := resolver.ResolveCurrentUser(c.Request().Context(), raw)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				case errors.Is(err, auth.ErrTokenInvalid),
					errors.Is(err, auth.ErrTokenIntentMismatch),
					errors.Is(err, auth.ErrUserNotFound):
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				default:
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "auth lookup failed"})
				}
			}

			c.Set("user", u)
			c.Set("user_id", u.ID)
			c.Set("role", u.Role)
			return next(c)
		}
	}
}

// CurrentUser returns the account stored by Authenticate, or nil when the
// route is not behind it.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get("user").(*model.User)
	return u
}
