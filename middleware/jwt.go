package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Gaurav021106/GS-Infra-Estate/session"
	"github.com/Gaurav021106/GS-Infra-Estate/utils"
)

const (
	ContextAdminEmail = "admin_email"
	// XMLHttpRequest is the X-Requested-With value sent by fetch/XHR helpers.
	XMLHttpRequest = "XMLHttpRequest"
	loginPath      = "/admin/login"
)

// RequireAdmin lets through requests whose session is logged in as admin or
// that carry a valid admin bearer token. JSON clients get 401, browsers are
// sent to the login page.
func RequireAdmin(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sess := session.Get(c); sess != nil && sess.Data.IsAdmin {
				c.Set(ContextAdminEmail, sess.Data.AdminEmail)
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader != "" {
				tokenParts := strings.Split(authHeader, " ")
				if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
					return c.JSON(http.StatusUnauthorized, map[string]any{
						"ok":    false,
						"error": "Invalid authorization header format",
					})
				}
				claims, err := utils.ValidateJWT(jwtSecret, tokenParts[1])
				if err != nil {
					return c.JSON(http.StatusUnauthorized, map[string]any{
						"ok":    false,
						"error": "Invalid token",
					})
				}
				c.Set(ContextAdminEmail, claims.Email)
				return next(c)
			}

			if WantsJSON(c) {
				return c.JSON(http.StatusUnauthorized, map[string]any{
					"ok":    false,
					"error": "Unauthorized",
				})
			}
			return c.Redirect(http.StatusFound, loginPath)
		}
	}
}

// WantsJSON reports whether the client asked for a JSON response rather than
// an HTML page.
func WantsJSON(c echo.Context) bool {
	req := c.Request()
	if req.Header.Get(echo.HeaderXRequestedWith) == XMLHttpRequest {
		return true
	}
	if strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return true
	}
	return strings.Contains(req.Header.Get(echo.HeaderContentType), "json")
}
