package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
)

func apiEcho(t *testing.T, props *fakeProperties, cache *fakeCache) *echo.Echo {
	t.Helper()
	e := newEcho(t)
	ac := NewAPIController(props, cache, zap.NewNop())
	e.GET("/api/properties", ac.ListProperties)
	e.GET("/api/properties/:id", ac.GetProperty)
	return e
}

func TestAPIListPaginatesAndCaches(t *testing.T) {
	props := &fakeProperties{}
	for range 3 {
		props.add(available("Plot", "Dehradun", models.CategoryLand))
	}
	props.add(available("Flat", "Rishikesh", models.CategoryResidential))
	cache := &fakeCache{}
	e := apiEcho(t, props, cache)

	rec := do(e, http.MethodGet, "/api/properties?city=dehradun&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	var page propertyPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.True(t, page.OK)
	assert.Len(t, page.Properties, 2)
	assert.Equal(t, 1, page.Page)
	assert.True(t, page.HasMore)

	rec = do(e, http.MethodGet, "/api/properties?city=dehradun&limit=2", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Len(t, props.queries, 1)

	rec = do(e, http.MethodGet, "/api/properties?city=dehradun&limit=2&page=2", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Properties, 1)
	assert.False(t, page.HasMore)
}

func TestAPIListBoundsLimit(t *testing.T) {
	props := &fakeProperties{}
	e := apiEcho(t, props, &fakeCache{})

	do(e, http.MethodGet, "/api/properties?limit=500", "")
	do(e, http.MethodGet, "/api/properties?limit=abc&page=2", "")
	require.Len(t, props.queries, 2)
	assert.EqualValues(t, apiMaxLimit+1, props.queries[0].Limit)
	assert.EqualValues(t, apiDefaultLimit+1, props.queries[1].Limit)
	assert.EqualValues(t, apiDefaultLimit, props.queries[1].Skip)
}

func TestAPIGetProperty(t *testing.T) {
	props := &fakeProperties{}
	p := props.add(available("Riverside Villa", "Rishikesh", models.CategoryResidential))
	sold := available("Sold", "Rishikesh", models.CategoryResidential)
	sold.Status = models.StatusSold
	s := props.add(sold)
	e := apiEcho(t, props, &fakeCache{})

	rec := do(e, http.MethodGet, "/api/properties/"+p.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Riverside Villa")

	for _, id := range []string{s.ID.Hex(), "nope", "0123456789abcdef01234567"} {
		rec = do(e, http.MethodGet, "/api/properties/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
	}
}
