package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// uploadLimitMiddleware caps the request body at limit bytes; reads past it fail with *http.MaxBytesError.
func uploadLimitMiddleware(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if limit > 0 {
				req := ctx.Request()
				req.Body = http.MaxBytesReader(ctx.Response(), req.Body, limit)
			}
			return next(ctx)
		}
	}
}
