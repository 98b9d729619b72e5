package views

import (
	"bytes"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/seo"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(site.Default(), "+91-9999999999", "info@example.com")
	require.NoError(t, err)
	return r
}

func render(t *testing.T, r *Renderer, name string, data any) string {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, data, c))
	return buf.String()
}

func TestAllPagesParse(t *testing.T) {
	r := newRenderer(t)
	for _, name := range []string{
		"home", "properties_listing", "property-listing", "property-detail",
		"about", "services", "contact", "404", "error", "admin/login", "admin/dashboard",
	} {
		assert.Contains(t, r.templates, name)
	}
}

func TestRenderDefaultsAndSchemas(t *testing.T) {
	r := newRenderer(t)
	schema := seo.Schema{"@context": "https://schema.org", "@type": "Thing", "name": "</script><b>"}
	out := render(t, r, "about", &Page{Canonical: "https://example.com/about", Schemas: JSONLD(schema)})

	assert.Contains(t, out, "<title>"+template.HTMLEscapeString(site.Default().SEO.Title)+"</title>")
	assert.Contains(t, out, `<link rel="canonical" href="https://example.com/about">`)
	assert.Contains(t, out, `<script type="application/ld+json">`)
	assert.NotContains(t, out, "</script><b>")
}

func TestRenderListingAndDetail(t *testing.T) {
	r := newRenderer(t)
	prop := models.Property{
		ID:        primitive.NewObjectID(),
		Title:     "Riverside <Villa>",
		Price:     4500000,
		City:      "Rishikesh",
		Category:  models.CategoryResidential,
		Status:    models.StatusSold,
		ImageURLs: []string{"/uploads/a-opt.webp"},
	}

	out := render(t, r, "property-listing", &Page{Data: ListingData{
		Heading:      "Properties in Rishikesh",
		City:         "Rishikesh",
		Properties:   []models.Property{prop},
		Pagination:   NewPagination(1, 30, 12, "/properties-in-rishikesh", true, ""),
		Filters:      ListingFilters{Type: "land-plots"},
		Categories:   site.Default().Categories,
		Budgets:      site.Default().Budgets,
		FilterAction: "/properties-in-rishikesh",
	}})
	assert.Contains(t, out, "Riverside &lt;Villa&gt;")
	assert.Contains(t, out, `href="/properties-in-rishikesh/2"`)
	assert.Contains(t, out, `value="land-plots" selected`)
	assert.Contains(t, out, seo.PropertyPath(&prop))

	out = render(t, r, "property-detail", &Page{Data: DetailData{Property: &prop, ShareURL: "https://example.com/p"}})
	assert.Contains(t, out, `src="/uploads/a-opt.webp"`)
	assert.Contains(t, out, prop.ID.Hex())
}

func TestRenderDashboard(t *testing.T) {
	r := newRenderer(t)
	edit := &models.Property{ID: primitive.NewObjectID(), Title: "Plot", Category: models.CategoryLand, Status: models.StatusOnHold, Active: true}
	out := render(t, r, "admin/dashboard", &Page{Data: DashboardData{
		Edit:       edit,
		OnHold:     []models.Property{*edit},
		Categories: site.Default().Categories,
		Statuses:   models.Statuses,
	}})
	assert.Contains(t, out, "/admin/properties/"+edit.ID.Hex()+"/update")
	assert.Contains(t, out, `value="land_plots" selected`)
	assert.Contains(t, out, `value="on_hold" selected`)
	assert.NotContains(t, out, `value="available" selected`)
	assert.Contains(t, out, "On hold (1)")
}

func TestRenderUnknownTemplate(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, newRenderer(t).Render(&buf, "missing", nil, nil))
}

func TestPagination(t *testing.T) {
	p := NewPagination(2, 30, 12, "/properties", false, "type=land-plots")
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, "/properties?type=land-plots", p.PrevURL())
	assert.Equal(t, "/properties?page=3&type=land-plots", p.NextURL())
	assert.Equal(t, []int{1, 2, 3}, p.Pages())

	path := NewPagination(1, 0, 12, "/properties-in-dehradun", true, "")
	assert.Equal(t, 1, path.TotalPages)
	assert.False(t, path.HasNext())
	assert.Equal(t, "", path.PrevURL())
	assert.Equal(t, "/properties-in-dehradun/2", path.URL(2))
}

func TestPublicAssets(t *testing.T) {
	for _, name := range []string{"css/site.css", "js/site.js", "img/logo.svg"} {
		f, err := Public().Open(name)
		require.NoError(t, err, name)
		f.Close()
	}
}
