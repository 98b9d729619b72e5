package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Gaurav021106/GS-Infra-Estate/middleware"
	"github.com/Gaurav021106/GS-Infra-Estate/utils"
)

type emailRequest struct {
	Email string `json:"email" form:"email"`
}

// AlertsController manages new-listing email subscriptions.
type AlertsController struct {
	subscribers SubscriberStore
	notifier    AlertNotifier
	logger      *zap.Logger
}

func NewAlertsController(subscribers SubscriberStore, notifier AlertNotifier, logger *zap.Logger) *AlertsController {
	return &AlertsController{subscribers: subscribers, notifier: notifier, logger: logger}
}

func bindEmail(c echo.Context) (string, bool) {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return "", false
	}
	return utils.NormalizeEmail(req.Email)
}

func (ac *AlertsController) Subscribe(c echo.Context) error {
	email, ok := bindEmail(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "A valid email is required")
	}
	if err := ac.subscribers.Subscribe(c.Request().Context(), email); err != nil {
		ac.logger.Error("subscribing", zap.String("email", email), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to subscribe")
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "message": "Subscribed to property alerts"})
}

func (ac *AlertsController) Unsubscribe(c echo.Context) error {
	email, ok := bindEmail(c)
	if !ok {
		return jsonError(c, http.StatusBadRequest, "A valid email is required")
	}
	if err := ac.subscribers.Unsubscribe(c.Request().Context(), email); err != nil {
		ac.logger.Error("unsubscribing", zap.String("email", email), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to unsubscribe")
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "message": "Unsubscribed from property alerts"})
}

// TestMail sends a sample alert to the given address, or to the signed-in
// admin when none is given.
func (ac *AlertsController) TestMail(c echo.Context) error {
	var req emailRequest
	_ = c.Bind(&req)
	to, ok := utils.NormalizeEmail(req.Email)
	if req.Email == "" {
		admin, _ := c.Get(middleware.ContextAdminEmail).(string)
		to, ok = utils.NormalizeEmail(admin)
	}
	if !ok {
		return jsonError(c, http.StatusBadRequest, "A valid email is required")
	}

	id, err := ac.notifier.Test(c.Request().Context(), to)
	if err != nil {
		ac.logger.Error("sending test alert", zap.String("to", to), zap.Error(err))
		return jsonError(c, http.StatusBadGateway, "Failed to send test email")
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "to": to, "id": id})
}
