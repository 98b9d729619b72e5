package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Gaurav021106/GS-Infra-Estate/middleware"
	"github.com/Gaurav021106/GS-Infra-Estate/views"
)

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]any{"ok": false, "error": msg})
}

func notFoundPage(c echo.Context) error {
	if middleware.WantsJSON(c) {
		return jsonError(c, http.StatusNotFound, "Not found")
	}
	return c.Render(http.StatusNotFound, "404", &views.Page{
		Title:   "404 - Page Not Found",
		NoIndex: true,
	})
}

func movedTo(c echo.Context, path string) error {
	if q := c.QueryString(); q != "" {
		path += "?" + q
	}
	return c.Redirect(http.StatusMovedPermanently, path)
}
