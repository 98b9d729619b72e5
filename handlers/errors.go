package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Gaurav021106/GS-Infra-Estate/middleware"
	"github.com/Gaurav021106/GS-Infra-Estate/views"
)

// ErrorHandler renders failed requests as JSON for API clients and as the
// error page for browsers. Internal details are only shown outside
// production.
func ErrorHandler(logger *zap.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := "Something went wrong"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else if !production {
			msg = err.Error()
		}

		req := c.Request()
		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Error(err),
			)
		}

		var werr error
		switch {
		case req.Method == http.MethodHead:
			werr = c.NoContent(code)
		case middleware.WantsJSON(c):
			werr = jsonError(c, code, msg)
		case code == http.StatusNotFound:
			werr = notFoundPage(c)
		default:
			werr = c.Render(code, "error", &views.Page{
				Title:   http.StatusText(code),
				NoIndex: true,
				Data:    views.ErrorData{Code: code, Message: msg},
			})
		}
		if werr != nil {
			logger.Error("writing error response", zap.Error(werr))
		}
	}
}
