package middleware

import (
	"strconv"

	"github.com/deppfellow/appointment-service/internal/server"
	"github.com/labstack/echo/v4"
)

// Headers set by the API gateway after it authenticates the caller.
const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
)

// IdentityMiddleware copies the gateway identity headers into the echo
// context. The service does not authenticate requests itself; the identity
// is only attached to logs and traces.
type IdentityMiddleware struct {
	server *server.Server
}

func NewIdentityMiddleware(s *server.Server) *IdentityMiddleware {
	return &IdentityMiddleware{
		server: s,
	}
}

func (im *IdentityMiddleware) GatewayIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Request().Header.Get(UserIDHeader)
		if userID != "" {
			if _, err := strconv.ParseInt(userID, 10, 64); err != nil {
				im.server.Logger.Warn().
					Str("request_id", GetRequestID(c)).
					Str("header", UserIDHeader).
					Str("value", userID).
					Msg("ignoring non-numeric gateway user id")
				userID = ""
			}
		}

		if userID != "" {
			c.Set(UserIDKey, userID)
		}

		if role := c.Request().Header.Get(UserRoleHeader); role != "" {
			c.Set(UserRoleKey, role)
		}

		return next(c)
	}
}
