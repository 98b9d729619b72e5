package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Gaurav021106/GS-Infra-Estate/media"
	"github.com/Gaurav021106/GS-Infra-Estate/middleware"
	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/seo"
	"github.com/Gaurav021106/GS-Infra-Estate/session"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
	"github.com/Gaurav021106/GS-Infra-Estate/store"
	"github.com/Gaurav021106/GS-Infra-Estate/utils"
	"github.com/Gaurav021106/GS-Infra-Estate/views"
	"github.com/Gaurav021106/GS-Infra-Estate/worker"
)

// AdminController manages listings from the admin panel.
type AdminController struct {
	properties PropertyStore
	cache      QueryCache
	uploads    MediaStorage
	media      MediaQueue
	alerts     AlertNotifier
	jobs       Background
	health     HealthReporter
	site       *site.Site
	maxMB      int64
	logger     *zap.Logger
}

type AdminDeps struct {
	Properties PropertyStore
	Cache      QueryCache
	Uploads    MediaStorage
	Media      MediaQueue
	Alerts     AlertNotifier
	Jobs       Background
	Health     HealthReporter
	Site       *site.Site
	MaxMB      int64
	Logger     *zap.Logger
}

func NewAdminController(d AdminDeps) *AdminController {
	return &AdminController{
		properties: d.Properties,
		cache:      d.Cache,
		uploads:    d.Uploads,
		media:      d.Media,
		alerts:     d.Alerts,
		jobs:       d.Jobs,
		health:     d.Health,
		site:       d.Site,
		maxMB:      d.MaxMB,
		logger:     d.Logger,
	}
}

// fail reports an error as JSON to scripted clients and as a dashboard
// notice to the browser form.
func (ac *AdminController) fail(c echo.Context, status int, msg string) error {
	if middleware.WantsJSON(c) {
		return jsonError(c, status, msg)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard?error="+url.QueryEscape(msg))
}

func (ac *AdminController) done(c echo.Context, status int, action string, p *models.Property) error {
	if middleware.WantsJSON(c) {
		body := map[string]any{"ok": true}
		if p != nil {
			body["property"] = p
		}
		return c.JSON(status, body)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard?status="+action)
}

func (ac *AdminController) invalidate(ctx context.Context) {
	if err := ac.cache.Invalidate(ctx, ListingsNamespace); err != nil {
		ac.logger.Warn("invalidating listing cache", zap.Error(err))
	}
}

func (ac *AdminController) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	data := views.DashboardData{
		Status:      c.QueryParam("status"),
		Error:       c.QueryParam("error"),
		Categories:  ac.site.Categories,
		Statuses:    models.Statuses,
		AdminEmail:  session.Get(c).Data.AdminEmail,
		MaxUploadMB: ac.maxMB,
	}

	buckets := map[string]*[]models.Property{
		models.StatusAvailable: &data.Available,
		models.StatusSold:      &data.Sold,
		models.StatusOnHold:    &data.OnHold,
	}
	g, gctx := errgroup.WithContext(ctx)
	for status, dst := range buckets {
		g.Go(func() error {
			props, err := ac.properties.List(gctx, store.PropertyQuery{Status: status, Fields: store.ListingFields})
			*dst = props
			return err
		})
	}
	if raw := c.QueryParam("id"); raw != "" {
		g.Go(func() error {
			id, ok := utils.ParsePropertyID(raw)
			if !ok {
				return nil
			}
			p, err := ac.properties.Get(gctx, id, store.DetailFields)
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			data.Edit = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading dashboard: %w", err)
	}

	return c.Render(http.StatusOK, "admin/dashboard", &views.Page{
		Title:   "Admin Dashboard | " + ac.site.Brand,
		NoIndex: true,
		Data:    data,
	})
}

const adminListLimit = 1000

// adminBuckets names the per-category lists of the admin JSON listing.
var adminBuckets = map[string]string{
	models.CategoryResidential: "residential",
	models.CategoryCommercial:  "commercialPlots",
	models.CategoryLand:        "landPlots",
	models.CategoryPremium:     "premiumInvestment",
}

func (ac *AdminController) List(c echo.Context) error {
	props, err := ac.properties.List(c.Request().Context(), store.PropertyQuery{
		Sort:   store.SortNewest,
		Limit:  adminListLimit,
		Fields: store.ListingFields,
	})
	if err != nil {
		ac.logger.Error("listing properties", zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to load properties")
	}

	res := map[string]any{"ok": true}
	for _, key := range adminBuckets {
		res[key] = []models.Property{}
	}
	for _, p := range props {
		if key, ok := adminBuckets[p.Category]; ok {
			res[key] = append(res[key].([]models.Property), p)
		}
	}
	return c.JSON(http.StatusOK, res)
}

func (ac *AdminController) Edit(c echo.Context) error {
	id, ok := utils.ParsePropertyID(c.Param("id"))
	if !ok {
		return jsonError(c, http.StatusNotFound, "Property not found")
	}
	if !middleware.WantsJSON(c) {
		return c.Redirect(http.StatusFound, "/admin/dashboard?id="+id.Hex())
	}
	p, err := ac.properties.Get(c.Request().Context(), id, store.AllFields)
	if errors.Is(err, store.ErrNotFound) {
		return jsonError(c, http.StatusNotFound, "Property not found")
	}
	if err != nil {
		return fmt.Errorf("loading property %s: %w", id.Hex(), err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "property": p})
}

// propertyForm keeps the raw submitted values so updates can tell an
// omitted field from an emptied one.
type propertyForm struct {
	values url.Values
	// explicit is set for JSON bodies, where an absent checkbox means
	// "unchanged" rather than "unticked".
	explicit bool
}

func (f propertyForm) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f propertyForm) get(key string) string {
	return strings.TrimSpace(f.values.Get(key))
}

func (f propertyForm) checked(key string) bool {
	switch strings.ToLower(f.get(key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func (f propertyForm) list(key string) []string {
	return utils.SplitList(f.values.Get(key))
}

const invalidPrice = "Price must be a positive number"

func (f propertyForm) price() (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(f.get("price"), ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// location resolves city and state, preferring explicit fields over the
// "City, State" location string.
func (f propertyForm) location(region string) (city, state string) {
	city, state = f.get("city"), f.get("state")
	derivedCity, derivedState := utils.SplitLocation(f.get("location"))
	if city == "" {
		city = derivedCity
	}
	if state == "" {
		state = derivedState
	}
	if state == "" {
		state = region
	}
	return city, state
}

// jsonValues flattens a JSON object into form values so both kinds of client
// share one validation path. Arrays become comma-separated lists.
func jsonValues(body io.Reader) (url.Values, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding json body: %w", err)
	}
	values := url.Values{}
	for key, raw := range doc {
		if v, ok := jsonScalar(raw); ok {
			values.Set(key, v)
			continue
		}
		items, ok := raw.([]any)
		if !ok {
			continue
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if v, ok := jsonScalar(item); ok && v != "" {
				parts = append(parts, v)
			}
		}
		values.Set(key, strings.Join(parts, ","))
	}
	return values, nil
}

func jsonScalar(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

func (ac *AdminController) parseForm(c echo.Context) (propertyForm, *media.Saved, error) {
	req := c.Request()
	if strings.Contains(req.Header.Get(echo.HeaderContentType), "json") {
		values, err := jsonValues(req.Body)
		if err != nil {
			return propertyForm{}, nil, err
		}
		return propertyForm{values: values, explicit: true}, &media.Saved{}, nil
	}

	values, err := c.FormParams()
	if err != nil {
		return propertyForm{}, nil, err
	}
	saved, err := ac.uploads.Save(c.Request().MultipartForm)
	return propertyForm{values: values}, saved, err
}

func (ac *AdminController) uploadFailed(c echo.Context, err error) error {
	ac.logger.Warn("rejected upload", zap.Error(err))
	switch {
	case errors.Is(err, media.ErrFileTooLarge):
		return ac.fail(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large. Maximum size is %dMB", ac.maxMB))
	case errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrTooManyFiles):
		return ac.fail(c, http.StatusBadRequest, err.Error())
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return ac.fail(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large. Maximum size is %dMB", ac.maxMB))
	}
	return ac.fail(c, http.StatusBadRequest, "Invalid form submission")
}

func (ac *AdminController) Create(c echo.Context) error {
	form, saved, err := ac.parseForm(c)
	if err != nil {
		return ac.uploadFailed(c, err)
	}

	p, msg := ac.newProperty(form)
	if msg != "" {
		ac.uploads.Remove(savedURLs(saved))
		return ac.fail(c, http.StatusBadRequest, msg)
	}
	p.Map3DURL = saved.Map3D
	p.VirtualTourURL = saved.VirtualTour
	p.ImageURLs = saved.Images
	p.VideoURLs = saved.Videos

	ctx := c.Request().Context()
	if err := ac.properties.Create(ctx, p); err != nil {
		ac.uploads.Remove(savedURLs(saved))
		ac.logger.Error("creating property", zap.Error(err))
		return ac.fail(c, http.StatusInternalServerError, "Failed to create property")
	}
	ac.invalidate(ctx)
	ac.logger.Info("property created", zap.String("id", p.ID.Hex()), zap.String("title", p.Title))

	ac.optimize(p, saved)
	ac.announce(p)
	return ac.done(c, http.StatusCreated, "created", p)
}

func (ac *AdminController) newProperty(form propertyForm) (*models.Property, string) {
	category := form.get("category")
	title := form.get("title")
	location := form.get("location")
	if category == "" || title == "" || location == "" || form.get("price") == "" {
		return nil, "Category, title, price and location are required"
	}
	cat, ok := ac.site.Category(category)
	if !ok {
		return nil, "Unknown category"
	}
	price, ok := form.price()
	if !ok {
		return nil, invalidPrice
	}
	status := form.get("status")
	if status == "" {
		status = models.StatusAvailable
	}
	if !models.IsValidStatus(status) {
		return nil, "Unknown status"
	}

	city, state := form.location(ac.site.Region)
	p := &models.Property{
		Category:           cat.Value,
		Title:              title,
		Description:        form.get("description"),
		Price:              price,
		Location:           location,
		SuitableFor:        form.list("suitableFor"),
		Features:           form.list("features"),
		Status:             status,
		Featured:           form.checked("featured"),
		Active:             true,
		BuiltupArea:        form.get("builtupArea"),
		City:               city,
		State:              state,
		Locality:           form.get("locality"),
		Pincode:            form.get("pincode"),
		SearchTags:         form.list("searchTags"),
		SEOMetaDescription: form.get("seoMetaDescription"),
	}
	if len(p.SearchTags) == 0 {
		p.SearchTags = seo.LocationSearchTags(p.City, p.State, p.Locality)
	}
	if p.SEOMetaDescription == "" {
		p.SEOMetaDescription = seo.MetaDescription(p.Title, p.City, cat.Label, p.Price)
	}
	return p, ""
}

func (ac *AdminController) Update(c echo.Context) error {
	id, ok := utils.ParsePropertyID(c.Param("id"))
	if !ok {
		return ac.fail(c, http.StatusNotFound, "Property not found")
	}
	ctx := c.Request().Context()
	existing, err := ac.properties.Get(ctx, id, store.AllFields)
	if errors.Is(err, store.ErrNotFound) {
		return ac.fail(c, http.StatusNotFound, "Property not found")
	}
	if err != nil {
		return fmt.Errorf("loading property %s: %w", id.Hex(), err)
	}

	form, saved, err := ac.parseForm(c)
	if err != nil {
		return ac.uploadFailed(c, err)
	}
	changes, msg := ac.changes(form, existing)
	if msg != "" {
		ac.uploads.Remove(savedURLs(saved))
		return ac.fail(c, http.StatusBadRequest, msg)
	}

	var replaced []string
	if saved.Map3D != "" {
		changes.Map3DURL = &saved.Map3D
		replaced = append(replaced, existing.Map3DURL)
	}
	if saved.VirtualTour != "" {
		changes.VirtualTourURL = &saved.VirtualTour
		replaced = append(replaced, existing.VirtualTourURL)
	}
	changes.AppendImages = saved.Images
	changes.AppendVideos = saved.Videos

	updated, err := ac.properties.Update(ctx, id, changes)
	if err != nil {
		ac.uploads.Remove(savedURLs(saved))
		if errors.Is(err, store.ErrNotFound) {
			return ac.fail(c, http.StatusNotFound, "Property not found")
		}
		ac.logger.Error("updating property", zap.String("id", id.Hex()), zap.Error(err))
		return ac.fail(c, http.StatusInternalServerError, "Failed to update property")
	}
	ac.uploads.Remove(replaced)
	ac.invalidate(ctx)
	ac.logger.Info("property updated", zap.String("id", id.Hex()))

	ac.optimize(updated, saved)
	return ac.done(c, http.StatusOK, "updated", updated)
}

// changes maps the submitted fields onto a partial update. HTML checkboxes
// are absent when unticked, so form posts always write active and featured.
func (ac *AdminController) changes(form propertyForm, existing *models.Property) (store.PropertyChanges, string) {
	var ch store.PropertyChanges
	str := func(key string) *string {
		if !form.has(key) {
			return nil
		}
		v := form.get(key)
		return &v
	}
	lst := func(key string) *[]string {
		if !form.has(key) {
			return nil
		}
		v := form.list(key)
		return &v
	}

	if v := str("category"); v != nil {
		cat, ok := ac.site.Category(*v)
		if !ok {
			return ch, "Unknown category"
		}
		ch.Category = &cat.Value
	}
	if v := str("title"); v != nil {
		if *v == "" {
			return ch, "Title is required"
		}
		ch.Title = v
	}
	if form.has("price") {
		price, ok := form.price()
		if !ok {
			return ch, invalidPrice
		}
		ch.Price = &price
	}
	if v := str("status"); v != nil {
		if !models.IsValidStatus(*v) {
			return ch, "Unknown status"
		}
		ch.Status = v
	}

	ch.Description = str("description")
	ch.Location = str("location")
	ch.BuiltupArea = str("builtupArea")
	ch.Locality = str("locality")
	ch.Pincode = str("pincode")
	ch.SEOMetaDescription = str("seoMetaDescription")
	ch.Features = lst("features")
	ch.SuitableFor = lst("suitableFor")
	ch.SearchTags = lst("searchTags")

	if form.has("location") || form.has("city") || form.has("state") {
		city, state := form.location(ac.site.Region)
		if city == "" {
			city = existing.City
		}
		ch.City, ch.State = &city, &state
	}
	if ch.SearchTags != nil && len(*ch.SearchTags) == 0 {
		city, state, locality := existing.City, existing.State, existing.Locality
		if ch.City != nil {
			city, state = *ch.City, *ch.State
		}
		if ch.Locality != nil {
			locality = *ch.Locality
		}
		tags := seo.LocationSearchTags(city, state, locality)
		ch.SearchTags = &tags
	}

	if !form.explicit || form.has("active") {
		active := form.checked("active")
		ch.Active = &active
	}
	if !form.explicit || form.has("featured") {
		featured := form.checked("featured")
		ch.Featured = &featured
	}
	return ch, ""
}

func (ac *AdminController) Delete(c echo.Context) error {
	id, ok := utils.ParsePropertyID(c.Param("id"))
	if !ok {
		return ac.fail(c, http.StatusNotFound, "Property not found")
	}
	ctx := c.Request().Context()
	p, err := ac.properties.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ac.fail(c, http.StatusNotFound, "Property not found")
	}
	if err != nil {
		ac.logger.Error("deleting property", zap.String("id", id.Hex()), zap.Error(err))
		return ac.fail(c, http.StatusInternalServerError, "Failed to delete property")
	}

	removed := ac.uploads.Remove(p.MediaURLs())
	ac.invalidate(ctx)
	ac.logger.Info("property deleted", zap.String("id", id.Hex()), zap.Int("filesRemoved", removed))
	return ac.done(c, http.StatusOK, "deleted", nil)
}

func (ac *AdminController) Metrics(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"ok":     true,
		"health": ac.health.Health(),
		"jobs":   ac.jobs.Stats(),
	})
}

func (ac *AdminController) optimize(p *models.Property, saved *media.Saved) {
	urls := saved.Optimizable()
	if len(urls) == 0 {
		return
	}
	if err := ac.media.Enqueue(media.Job{PropertyID: p.ID, URLs: urls}); err != nil {
		ac.logger.Warn("media optimization not scheduled", zap.String("id", p.ID.Hex()), zap.Error(err))
	}
}

// announce emails subscribers about a new listing in the background.
func (ac *AdminController) announce(p *models.Property) {
	if !p.IsAvailable() {
		return
	}
	listing := *p
	err := ac.jobs.Submit(worker.Job{
		Name: "property-alert:" + p.ID.Hex(),
		Run: func(ctx context.Context) error {
			_, err := ac.alerts.NewProperty(ctx, &listing)
			return err
		},
	})
	if err != nil {
		ac.logger.Warn("property alert not scheduled", zap.String("id", p.ID.Hex()), zap.Error(err))
	}
}

func savedURLs(s *media.Saved) []string {
	if s == nil {
		return nil
	}
	urls := s.Optimizable()
	if s.Map3D != "" {
		urls = append(urls, s.Map3D)
	}
	return urls
}
