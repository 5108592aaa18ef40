package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type actorKey struct{}

// Actor extracts the pre-authenticated actor id from the X-Actor-ID
// header and stores it on the request context. Authentication happens
// upstream; this layer only requires that some actor is named, since
// every mutating operation records who performed it.
func Actor(required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := c.Request().Header.Get("X-Actor-ID")
			if actor == "" && required && c.Request().Method != http.MethodGet {
				return echo.NewHTTPError(http.StatusBadRequest, "X-Actor-ID header is required")
			}
			ctx := context.WithValue(c.Request().Context(), actorKey{}, actor)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("actor_id", actor)
			return next(c)
		}
	}
}

// ActorFromContext returns the acting user id, or empty when anonymous.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
