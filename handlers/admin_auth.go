package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Gaurav021106/GS-Infra-Estate/mailer"
	"github.com/Gaurav021106/GS-Infra-Estate/session"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
	"github.com/Gaurav021106/GS-Infra-Estate/utils"
	"github.com/Gaurav021106/GS-Infra-Estate/views"
)

const (
	otpTTL         = 10 * time.Minute
	maxOTPAttempts = 5
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type verifyRequest struct {
	Code string `json:"verificationCode" form:"verificationCode"`
}

// AdminAuthController runs the two step admin login: password, then a
// one-time code sent by email.
type AdminAuthController struct {
	sessions      SessionStore
	sender        mailer.Sender
	site          *site.Site
	adminEmail    string
	adminPassword string
	jwtSecret     string
	jwtTTL        time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

type AdminCredentials struct {
	Email     string
	Password  string
	JWTSecret string
	JWTTTL    time.Duration
}

func NewAdminAuthController(sessions SessionStore, sender mailer.Sender, s *site.Site, creds AdminCredentials, logger *zap.Logger) *AdminAuthController {
	return &AdminAuthController{
		sessions:      sessions,
		sender:        sender,
		site:          s,
		adminEmail:    strings.ToLower(strings.TrimSpace(creds.Email)),
		adminPassword: creds.Password,
		jwtSecret:     creds.JWTSecret,
		jwtTTL:        creds.JWTTTL,
		logger:        logger,
		now:           time.Now,
	}
}

func (ac *AdminAuthController) LoginPage(c echo.Context) error {
	sess := session.Get(c)
	if sess.Data.IsAdmin {
		return c.Redirect(http.StatusFound, "/admin/dashboard")
	}
	return c.Render(http.StatusOK, "admin/login", &views.Page{
		Title:   "Admin Login | " + ac.site.Brand,
		NoIndex: true,
		Data:    views.LoginData{Email: sess.Data.AdminEmail},
	})
}

func (ac *AdminAuthController) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Username))
	if email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "Email and password are required")
	}

	// Both checks always run so timing does not reveal which one failed.
	emailOK := ac.adminEmail != "" && utils.SecureEqual(ac.adminEmail, email)
	passwordOK := utils.CheckPassword(ac.adminPassword, req.Password)
	if !emailOK || !passwordOK {
		ac.logger.Warn("admin login rejected", zap.String("email", email), zap.String("ip", c.RealIP()))
		return jsonError(c, http.StatusUnauthorized, "Invalid credentials")
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generating otp: %w", err)
	}
	sess := session.Get(c)
	sess.Data.AdminEmail = email
	sess.Data.OTP = &session.OTP{Code: code, Expiry: ac.now().Add(otpTTL)}
	if err := ac.sessions.Save(c, sess); err != nil {
		return fmt.Errorf("saving login session: %w", err)
	}

	msg, err := mailer.OTPMessage(ac.adminEmail, mailer.OTPData{
		Brand:        ac.site.Brand,
		Email:        ac.adminEmail,
		Code:         code,
		ValidMinutes: int(otpTTL / time.Minute),
	})
	if err == nil {
		_, err = ac.sender.Send(c.Request().Context(), msg)
	}
	if err != nil {
		ac.logger.Error("sending login code", zap.Error(err))
		sess.Data.OTP = nil
		if err := ac.sessions.Save(c, sess); err != nil {
			ac.logger.Warn("clearing otp", zap.Error(err))
		}
		return jsonError(c, http.StatusServiceUnavailable, "Unable to send verification code")
	}

	ac.logger.Info("admin login code sent", zap.String("email", email))
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "message": "Verification code sent to your email"})
}

func (ac *AdminAuthController) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return jsonError(c, http.StatusBadRequest, "Verification code is required")
	}

	sess := session.Get(c)
	otp := sess.Data.OTP
	if otp == nil {
		return jsonError(c, http.StatusBadRequest, "No verification in progress. Please log in again")
	}

	reset := func(msg string) error {
		sess.Data.OTP = nil
		if err := ac.sessions.Save(c, sess); err != nil {
			return fmt.Errorf("clearing otp: %w", err)
		}
		return jsonError(c, http.StatusBadRequest, msg)
	}
	if otp.Attempts >= maxOTPAttempts {
		return reset("Too many attempts")
	}
	if ac.now().After(otp.Expiry) {
		return reset("Code expired")
	}
	if !utils.SecureEqual(otp.Code, code) {
		otp.Attempts++
		if err := ac.sessions.Save(c, sess); err != nil {
			return fmt.Errorf("recording otp attempt: %w", err)
		}
		return jsonError(c, http.StatusBadRequest, fmt.Sprintf("Invalid code. Attempt %d/%d", otp.Attempts, maxOTPAttempts))
	}

	sess.Data = session.Data{IsAdmin: true, AdminEmail: sess.Data.AdminEmail}
	if err := ac.sessions.Regenerate(c, sess); err != nil {
		return fmt.Errorf("regenerating session: %w", err)
	}
	token, err := utils.GenerateJWT(ac.jwtSecret, sess.Data.AdminEmail, ac.jwtTTL)
	if err != nil {
		return fmt.Errorf("issuing admin token: %w", err)
	}

	ac.logger.Info("admin signed in", zap.String("email", sess.Data.AdminEmail), zap.String("ip", c.RealIP()))
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "redirect": "/admin/dashboard", "token": token})
}

func (ac *AdminAuthController) Logout(c echo.Context) error {
	if err := ac.sessions.Destroy(c, session.Get(c)); err != nil {
		ac.logger.Warn("destroying session", zap.Error(err))
	}
	return c.Redirect(http.StatusFound, "/")
}
