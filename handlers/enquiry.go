package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Gaurav021106/GS-Infra-Estate/mailer"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
	"github.com/Gaurav021106/GS-Infra-Estate/store"
	"github.com/Gaurav021106/GS-Infra-Estate/utils"
)

const enquiryTimeLayout = "2/1/2006, 3:04:05 pm"

// flag accepts the ways browsers and scripts submit a checkbox.
type flag bool

func (f *flag) UnmarshalParam(v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "yes", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

func (f *flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*f = flag(t)
	case string:
		return f.UnmarshalParam(t)
	default:
		*f = false
	}
	return nil
}

type enquiryRequest struct {
	Name        string `json:"name" form:"name"`
	Phone       string `json:"phone" form:"phone"`
	Location    string `json:"location" form:"location"`
	Requirement string `json:"requirement" form:"requirement"`
	PropertyID  string `json:"propertyId" form:"propertyId"`
	Subscribe   flag   `json:"subscribe" form:"subscribe"`
	Email       string `json:"email" form:"email"`
}

type EnquiryController struct {
	sender      mailer.Sender
	subscribers SubscriberStore
	properties  PropertyStore
	site        *site.Site
	inbox       string
	logger      *zap.Logger
	location    *time.Location
}

func NewEnquiryController(sender mailer.Sender, subscribers SubscriberStore, properties PropertyStore, s *site.Site, inbox string, logger *zap.Logger) *EnquiryController {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.UTC
	}
	return &EnquiryController{
		sender:      sender,
		subscribers: subscribers,
		properties:  properties,
		site:        s,
		inbox:       inbox,
		logger:      logger,
		location:    loc,
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// Submit emails a visitor's enquiry to the site inbox.
func (ec *EnquiryController) Submit(c echo.Context) error {
	var req enquiryRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		return jsonError(c, http.StatusBadRequest, "Name and phone are required")
	}

	ctx := c.Request().Context()
	email, validEmail := utils.NormalizeEmail(req.Email)
	data := mailer.EnquiryData{
		Name:        req.Name,
		Phone:       req.Phone,
		Location:    orDefault(req.Location, "Rishikesh"),
		Requirement: orDefault(req.Requirement, "Not specified"),
		Property:    ec.propertyLabel(c, req.PropertyID),
		Subscribe:   bool(req.Subscribe),
		Email:       orDefault(email, "Not provided"),
		Source:      c.Request().Referer(),
		Received:    time.Now().In(ec.location).Format(enquiryTimeLayout),
	}

	msg, err := mailer.EnquiryMessage(ec.inbox, ec.site.Brand, data)
	if err == nil {
		_, err = ec.sender.Send(ctx, msg)
	}
	if err != nil {
		ec.logger.Error("sending enquiry", zap.String("phone", req.Phone), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to send enquiry")
	}

	if bool(req.Subscribe) && validEmail {
		if err := ec.subscribers.Subscribe(ctx, email); err != nil {
			ec.logger.Warn("subscribing enquiry email", zap.String("email", email), zap.Error(err))
		}
	}

	ec.logger.Info("enquiry sent", zap.String("property", data.Property), zap.Bool("subscribe", data.Subscribe))
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "message": "Enquiry sent successfully"})
}

// propertyLabel names the enquired listing, falling back to the raw id.
func (ec *EnquiryController) propertyLabel(c echo.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "General Enquiry"
	}
	id, ok := utils.ParsePropertyID(ref)
	if !ok {
		return ref
	}
	p, err := ec.properties.Get(c.Request().Context(), id, store.ListingFields)
	if err != nil {
		return ref
	}
	return p.Title + " (" + ref + ")"
}
