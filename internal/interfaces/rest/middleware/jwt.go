package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-reader/internal/infrastructure/auth"
	"github.com/pot-code/course-reader/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// VerifyToken validate the identity token and put its claims into the echo context
func VerifyToken(ju *auth.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := ju.ExtractToken(c)
			if err != nil {
				return c.NoContent(http.StatusUnauthorized)
			}

			token, err := ju.Validate(tokenStr)
			if err != nil {
				logging.ExtractLoggerFromContext(c.Request().Context()).Debug("Rejected identity token", zap.Error(err))
				return c.NoContent(http.StatusUnauthorized)
			}
			ju.SetContextToken(c, token)
			return next(c)
		}
	}
}
