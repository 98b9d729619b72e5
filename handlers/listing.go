package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/seo"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
	"github.com/Gaurav021106/GS-Infra-Estate/store"
	"github.com/Gaurav021106/GS-Infra-Estate/views"
)

// landing is a parsed "/properties-in-<city>" or "/<type>-in-<city>" path.
type landing struct {
	typeSlug string
	city     string
	page     int
}

// parseLanding splits the first path segment and optional page number.
// ok is false when the path is not a landing page at all.
func parseLanding(segment, pageParam string) (landing, bool) {
	i := strings.LastIndex(segment, "-in-")
	if i <= 0 || i+4 >= len(segment) {
		return landing{}, false
	}
	l := landing{typeSlug: strings.ToLower(segment[:i]), city: strings.ToLower(segment[i+4:]), page: 1}
	if pageParam != "" {
		n, err := strconv.Atoi(pageParam)
		if err != nil || n < 1 {
			return landing{}, false
		}
		l.page = n
	}
	return l, true
}

func (l landing) base() string {
	if l.typeSlug == "properties" {
		return "/properties-in-" + l.city
	}
	return "/" + l.typeSlug + "-in-" + l.city
}

func (l landing) path() string {
	if l.page > 1 {
		return l.base() + "/" + strconv.Itoa(l.page)
	}
	return l.base()
}

// Landing serves city and type-in-city listing pages.
func (pc *PublicController) Landing(c echo.Context) error {
	l, ok := parseLanding(c.Param("seo"), c.Param("page"))
	if !ok || !pc.site.IsCity(l.city) {
		return notFoundPage(c)
	}

	var typed *site.Category
	if l.typeSlug != "properties" {
		cat, ok := pc.site.ResolveCategory(l.typeSlug)
		if !ok {
			return notFoundPage(c)
		}
		if cat.Slug != l.typeSlug {
			l.typeSlug = cat.Slug
			return movedTo(c, l.path())
		}
		typed = &cat
	}

	filters := views.ListingFilters{
		Type:     c.QueryParam("type"),
		Budget:   c.QueryParam("budget"),
		Locality: strings.TrimSpace(c.QueryParam("locality")),
		Sort:     c.QueryParam("sort"),
	}
	q := pc.listingQuery(l, typed, filters)

	ctx := c.Request().Context()
	var (
		props []models.Property
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		props, err = pc.properties.List(gctx, q)
		return err
	})
	g.Go(func() (err error) {
		total, err = pc.properties.Count(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading %s: %w", l.path(), err)
	}

	city := site.Title(l.city)
	heading := "Properties for Sale in " + city
	typeLabel := ""
	crumbs := []seo.Breadcrumb{{Name: "Home", URL: "/"}, {Name: city, URL: "/properties-in-" + l.city}}
	if typed != nil {
		typeLabel = typed.Label
		heading = typeLabel + " in " + city
		crumbs = append(crumbs, seo.Breadcrumb{Name: typeLabel, URL: l.base()})
	}
	crumbs = seo.MarkLast(crumbs)

	desc := fmt.Sprintf("Explore %d+ verified properties in %s. Find flats, houses, plots & land in %s.", total, city, pc.site.Region)
	if typed != nil {
		desc = fmt.Sprintf("Browse %d+ %s in %s. Verified listings with photos, prices & details.", total, strings.ToLower(typeLabel), city)
	}
	if len(props) > 0 && props[0].SEOMetaDescription != "" {
		desc = props[0].SEOMetaDescription
	}

	pager := views.NewPagination(l.page, total, perPage, l.base(), true, filterQuery(filters))
	data := views.ListingData{
		Heading:      heading,
		City:         city,
		CitySlug:     l.city,
		Properties:   props,
		Pagination:   pager,
		Filters:      filters,
		Categories:   pc.site.Categories,
		Budgets:      pc.site.Budgets,
		FilterAction: l.base(),
	}
	if typed != nil {
		data.Category = typed.Value
	}
	return c.Render(http.StatusOK, "property-listing", &views.Page{
		Title:       heading + " | " + pc.site.Name,
		Description: desc,
		Canonical:   pc.canonical(l.path()),
		Prev:        pc.link(pager.PrevURL()),
		Next:        pc.link(pager.NextURL()),
		Breadcrumbs: crumbs,
		Schemas: views.JSONLD(
			pc.publisher.LocalBusiness(l.city),
			pc.publisher.Breadcrumbs(crumbs),
			pc.publisher.CollectionPage(city, typeLabel, total, l.path()),
		),
		Data: data,
	})
}

func (pc *PublicController) listingQuery(l landing, typed *site.Category, f views.ListingFilters) store.PropertyQuery {
	q := publicQuery(store.PropertyQuery{
		City:     l.city,
		State:    pc.site.Region,
		Locality: f.Locality,
		Sort:     sortOrder(f.Sort),
		Skip:     int64((l.page - 1) * perPage),
		Limit:    perPage,
		Fields:   store.ListingFields,
	})
	if typed != nil {
		q.Category = typed.Value
	} else if f.Type != "" {
		if cat, ok := pc.site.ResolveUIType(f.Type); ok {
			q.Category = cat.Value
		} else if cat, ok := pc.site.ResolveCategory(f.Type); ok {
			q.Category = cat.Value
		}
	}
	if b, ok := pc.site.Budget(f.Budget); ok {
		q.MinPrice, q.MaxPrice = b.Min, b.Max
	}
	return q
}

func sortOrder(v string) store.SortOrder {
	switch s := store.SortOrder(v); s {
	case store.SortPriceLow, store.SortPriceHigh, store.SortFeatured:
		return s
	}
	return store.SortNewest
}

// filterQuery re-encodes the active filters for pagination links.
func filterQuery(f views.ListingFilters) string {
	v := url.Values{}
	if f.Type != "" {
		v.Set("type", f.Type)
	}
	if f.Budget != "" {
		v.Set("budget", f.Budget)
	}
	if f.Locality != "" {
		v.Set("locality", f.Locality)
	}
	if f.Sort != "" && f.Sort != string(store.SortNewest) {
		v.Set("sort", f.Sort)
	}
	return v.Encode()
}
