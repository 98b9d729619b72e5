package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/store"
	"github.com/Gaurav021106/GS-Infra-Estate/utils"
)

const (
	apiDefaultLimit = 20
	apiMaxLimit     = 100
)

type propertyPage struct {
	OK         bool              `json:"ok"`
	Properties []models.Property `json:"properties"`
	Page       int               `json:"page"`
	HasMore    bool              `json:"hasMore"`
}

// APIController serves the public JSON API.
type APIController struct {
	properties PropertyStore
	cache      QueryCache
	logger     *zap.Logger
}

func NewAPIController(properties PropertyStore, cache QueryCache, logger *zap.Logger) *APIController {
	return &APIController{properties: properties, cache: cache, logger: logger}
}

func (ac *APIController) ListProperties(c echo.Context) error {
	ctx := c.Request().Context()
	page := utils.ParsePage(c.QueryParam("page"))
	limit := utils.ParseLimit(c.QueryParam("limit"), apiDefaultLimit, apiMaxLimit)
	params := map[string]string{
		"city":     strings.TrimSpace(c.QueryParam("city")),
		"state":    strings.TrimSpace(c.QueryParam("state")),
		"locality": strings.TrimSpace(c.QueryParam("locality")),
		"q":        strings.TrimSpace(c.QueryParam("q")),
		"page":     strconv.Itoa(page),
		"limit":    strconv.Itoa(limit),
	}

	key, err := ac.cache.Key(ctx, ListingsNamespace, params)
	if err != nil {
		ac.logger.Warn("building cache key", zap.Error(err))
		key = ""
	}
	if key != "" {
		var cached propertyPage
		if hit, err := ac.cache.GetCached(ctx, key, &cached); err != nil {
			ac.logger.Warn("reading cached properties", zap.String("key", key), zap.Error(err))
		} else if hit {
			c.Response().Header().Set("X-Cache", "HIT")
			return c.JSON(http.StatusOK, cached)
		}
	}

	// One extra row tells whether another page exists.
	props, err := ac.properties.List(ctx, publicQuery(store.PropertyQuery{
		City:     params["city"],
		State:    params["state"],
		Locality: params["locality"],
		Text:     params["q"],
		Skip:     int64((page - 1) * limit),
		Limit:    int64(limit + 1),
		Fields:   store.ListingFields,
	}))
	if err != nil {
		ac.logger.Error("listing properties", zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to fetch properties")
	}

	res := propertyPage{OK: true, Properties: props, Page: page}
	if len(props) > limit {
		res.Properties = props[:limit]
		res.HasMore = true
	}
	if key != "" {
		if err := ac.cache.SetCached(ctx, key, res); err != nil {
			ac.logger.Warn("caching properties", zap.String("key", key), zap.Error(err))
		}
	}
	c.Response().Header().Set("X-Cache", "MISS")
	return c.JSON(http.StatusOK, res)
}

func (ac *APIController) GetProperty(c echo.Context) error {
	id, ok := utils.ParsePropertyID(c.Param("id"))
	if !ok {
		return jsonError(c, http.StatusNotFound, "Property not found")
	}
	p, err := ac.properties.Get(c.Request().Context(), id, store.DetailFields)
	if errors.Is(err, store.ErrNotFound) || (err == nil && (!p.IsAvailable() || !p.Active)) {
		return jsonError(c, http.StatusNotFound, "Property not found")
	}
	if err != nil {
		ac.logger.Error("fetching property", zap.String("id", id.Hex()), zap.Error(err))
		return jsonError(c, http.StatusInternalServerError, "Failed to fetch property")
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "property": p})
}
