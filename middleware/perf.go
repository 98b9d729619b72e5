package middleware

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"
)

var staticAsset = regexp.MustCompile(`\.(css|js|jpe?g|png|gif|webp|ico|svg|woff2?|ttf|eot|map|mp4|glb)$`)

func isStaticAsset(c echo.Context) bool {
	return staticAsset.MatchString(c.Request().URL.Path)
}

type RequestRecorder interface {
	RecordRequest(d time.Duration, status int)
}

// Performance reports each non-asset request's duration and status.
func Performance(rec RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isStaticAsset(c) {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			rec.RecordRequest(time.Since(start), responseStatus(c, err))
			return err
		}
	}
}

// responseStatus predicts the status of a response the error handler has
// not written yet.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
