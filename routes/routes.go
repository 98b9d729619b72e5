package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Gaurav021106/GS-Infra-Estate/handlers"
	"github.com/Gaurav021106/GS-Infra-Estate/middleware"
	"github.com/Gaurav021106/GS-Infra-Estate/views"
)

type Handlers struct {
	Public  *handlers.PublicController
	API     *handlers.APIController
	Enquiry *handlers.EnquiryController
	Alerts  *handlers.AlertsController
	Auth    *handlers.AdminAuthController
	Admin   *handlers.AdminController
	Health  *handlers.HealthController
}

type Options struct {
	JWTSecret          string
	RateLimitPerMinute int
	UploadDir          string
	// MaxBodyMB caps a whole admin form submission, all files included.
	MaxBodyMB int64
}

func RegisterRoutes(e *echo.Echo, h Handlers, opts Options) {
	static := middleware.CacheControl(7 * 24 * time.Hour)
	e.Group("/static", static).StaticFS("/", views.Public())
	e.Group("/uploads", static).Static("/", opts.UploadDir)

	e.GET("/health", h.Health.Health, middleware.NoStore())
	e.GET("/sitemap.xml", h.Public.Sitemap)
	e.GET("/robots.txt", h.Public.Robots)

	limited := middleware.RateLimit(opts.RateLimitPerMinute)
	api := e.Group("/api", limited)
	api.GET("/properties", h.API.ListProperties)
	api.GET("/properties/:id", h.API.GetProperty)

	e.POST("/enquiry", h.Enquiry.Submit, limited)
	alerts := e.Group("/alerts", limited)
	alerts.POST("/subscribe", h.Alerts.Subscribe)
	alerts.POST("/unsubscribe", h.Alerts.Unsubscribe)
	alerts.POST("/test-mail", h.Alerts.TestMail, middleware.RequireAdmin(opts.JWTSecret))

	registerAdmin(e, h, opts)
	registerPublic(e, h.Public)
}

func registerAdmin(e *echo.Echo, h Handlers, opts Options) {
	admin := e.Group("/admin", middleware.NoStore())
	admin.GET("", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/admin/dashboard")
	})
	login := middleware.RateLimit(opts.RateLimitPerMinute)
	admin.GET("/login", h.Auth.LoginPage)
	admin.POST("/login", h.Auth.Login, login)
	admin.POST("/login/verify", h.Auth.Verify, login)
	admin.GET("/logout", h.Auth.Logout)

	panel := admin.Group("", middleware.RequireAdmin(opts.JWTSecret))
	panel.GET("/dashboard", h.Admin.Dashboard)
	panel.GET("/metrics", h.Admin.Metrics)
	panel.GET("/properties/json", h.Admin.List)
	panel.GET("/properties/:id/edit", h.Admin.Edit)
	panel.POST("/properties/:id/delete", h.Admin.Delete)

	bodyLimit := echomw.BodyLimit(strconv.FormatInt(opts.MaxBodyMB, 10) + "M")
	panel.POST("/properties/new", h.Admin.Create, bodyLimit)
	panel.POST("/properties/:id/update", h.Admin.Update, bodyLimit)
}

func registerPublic(e *echo.Echo, pc *handlers.PublicController) {
	short := middleware.CacheControl(5 * time.Minute)
	long := middleware.CacheControl(10 * time.Minute)

	e.GET("/", pc.Home, short)
	e.GET("/properties", pc.Properties, short)
	e.GET("/category/:category", pc.Category, long)
	e.GET("/about", pc.About, long)
	e.GET("/services", pc.Services, long)
	e.GET("/contact", pc.Contact, long)

	e.GET("/property", pc.PropertyIndex)
	e.GET("/property/:ref", pc.Property, short)
	e.GET("/properties/:location/:category/:ref", pc.LegacyProperty)

	// City and type-in-city landing pages. Static routes above take
	// precedence, so only unmatched single segments reach Landing.
	e.GET("/:seo", pc.Landing, short)
	e.GET("/:seo/:page", pc.Landing, short)
}
