package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/playersden/gamehub/internal/roles"
	"github.com/playersden/gamehub/internal/service"
	"github.com/playersden/gamehub/pkg/tokens"
)

const principalKey = "principal"

type Guard struct {
	Codec *tokens.Codec
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth verifies the bearer access token and attaches the principal to
// the request context.
func (g *Guard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		p, err := g.Codec.Verify(raw, time.Now().UTC())
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		c.Set(principalKey, p)
		return next(c)
	}
}

// Require gates a route on one permission. BANNED has no permissions, so
// every banned principal is refused here.
func (g *Guard) Require(p roles.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := Principal(c)
			if principal == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			if !principal.Role.Has(p) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": service.ErrForbidden.Error()})
			}
			return next(c)
		}
	}
}

func Principal(c echo.Context) *tokens.Principal {
	if v, ok := c.Get(principalKey).(*tokens.Principal); ok {
		return v
	}
	return nil
}
