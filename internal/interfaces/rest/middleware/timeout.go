package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

// AbortRequestOption ...
type AbortRequestOption struct {
	Timeout time.Duration
}

// AbortRequest bound the request context with a deadline, store calls made by
// the handler fail once it passes
func AbortRequest(option *AbortRequestOption) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if option == nil || option.Timeout <= 0 {
			return next
		}
		return func(c echo.Context) error {
			if c.IsWebSocket() {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), option.Timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
