package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/seo"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
	"github.com/Gaurav021106/GS-Infra-Estate/store"
	"github.com/Gaurav021106/GS-Infra-Estate/utils"
	"github.com/Gaurav021106/GS-Infra-Estate/views"
)

// visible loads a listing by its "<slug>-<id>" or bare id reference,
// returning store.ErrNotFound for anything a visitor may not see.
func (pc *PublicController) visible(c echo.Context, ref string) (*models.Property, error) {
	_, rawID := seo.SplitSlugID(ref)
	id, ok := utils.ParsePropertyID(rawID)
	if !ok {
		return nil, store.ErrNotFound
	}
	p, err := pc.properties.Get(c.Request().Context(), id, store.DetailFields)
	if err != nil {
		return nil, err
	}
	if !p.IsAvailable() || !p.Active {
		return nil, store.ErrNotFound
	}
	return p, nil
}

// Property renders a listing's detail page at its canonical URL.
func (pc *PublicController) Property(c echo.Context) error {
	p, err := pc.visible(c, c.Param("ref"))
	if errors.Is(err, store.ErrNotFound) {
		return notFoundPage(c)
	}
	if err != nil {
		return fmt.Errorf("loading property %q: %w", c.Param("ref"), err)
	}

	path := seo.PropertyPath(p)
	if "/property/"+c.Param("ref") != path {
		return movedTo(c, path)
	}

	related, err := pc.properties.List(c.Request().Context(), publicQuery(store.PropertyQuery{
		City:      p.City,
		ExcludeID: p.ID,
		Limit:     relatedLimit,
		Fields:    store.ListingFields,
	}))
	if err != nil {
		pc.logger.Warn("loading related properties", zap.String("property", p.ID.Hex()), zap.Error(err))
		related = nil
	}

	label := pc.site.CategoryLabel(p.Category)
	crumbs := []seo.Breadcrumb{{Name: "Home", URL: "/"}}
	if cat, ok := pc.site.Category(p.Category); ok {
		crumbs = append(crumbs, seo.Breadcrumb{Name: cat.Label, URL: "/category/" + cat.Slug})
	}
	if city := strings.ToLower(p.City); pc.site.IsCity(city) {
		crumbs = append(crumbs, seo.Breadcrumb{Name: site.Title(city), URL: "/properties-in-" + city})
	}
	crumbs = seo.MarkLast(append(crumbs, seo.Breadcrumb{Name: p.Title, URL: path}))

	desc := p.SEOMetaDescription
	if desc == "" {
		desc = seo.MetaDescription(p.Title, p.Location, label, p.Price)
	}
	where := p.Location
	if where == "" {
		where = p.City
	}

	return c.Render(http.StatusOK, "property-detail", &views.Page{
		Title:       fmt.Sprintf("%s in %s | %s - %s", p.Title, where, seo.FormatINR(p.Price), pc.site.Brand),
		Description: desc,
		Keywords:    strings.Join(p.SearchTags, ", "),
		Canonical:   pc.canonical(path),
		OGImage:     p.CoverImage(),
		Breadcrumbs: crumbs,
		Schemas:     views.JSONLD(pc.publisher.Property(p), pc.publisher.Breadcrumbs(crumbs)),
		Data: views.DetailData{
			Property: p,
			Related:  related,
			ShareURL: pc.canonical(path),
		},
	})
}

// PropertyIndex sends the bare /property path to the listing index.
func (pc *PublicController) PropertyIndex(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/properties")
}

// LegacyProperty handles /properties/:location/:category/:ref links from the
// previous URL scheme.
func (pc *PublicController) LegacyProperty(c echo.Context) error {
	p, err := pc.visible(c, c.Param("ref"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Redirect(http.StatusFound, "/")
	}
	if err != nil {
		return fmt.Errorf("loading property %q: %w", c.Param("ref"), err)
	}

	cat, ok := pc.site.ResolveCategory(strings.ToLower(c.Param("category")))
	if !ok || cat.Value != p.Category || !strings.EqualFold(c.Param("location"), seo.MakeSlug(p.City)) {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.Redirect(http.StatusMovedPermanently, seo.PropertyPath(p))
}
