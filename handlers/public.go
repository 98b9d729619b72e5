package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/seo"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
	"github.com/Gaurav021106/GS-Infra-Estate/store"
	"github.com/Gaurav021106/GS-Infra-Estate/utils"
	"github.com/Gaurav021106/GS-Infra-Estate/views"
)

const (
	perPage        = 12
	homeBucketSize = 6
	relatedLimit   = 4
)

// PublicController serves the visitor facing pages.
type PublicController struct {
	properties PropertyStore
	site       *site.Site
	publisher  seo.Publisher
	logger     *zap.Logger
}

func NewPublicController(properties PropertyStore, s *site.Site, publisher seo.Publisher, logger *zap.Logger) *PublicController {
	return &PublicController{properties: properties, site: s, publisher: publisher, logger: logger}
}

func (pc *PublicController) canonical(path string) string {
	return pc.publisher.BaseURL + path
}

// link is canonical for optional paths such as prev/next.
func (pc *PublicController) link(path string) string {
	if path == "" {
		return ""
	}
	return pc.canonical(path)
}

func (pc *PublicController) Home(c echo.Context) error {
	ctx := c.Request().Context()
	data := views.HomeData{Buckets: make([]views.CategoryBucket, len(pc.site.Categories))}

	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range pc.site.Categories {
		g.Go(func() error {
			props, err := pc.properties.List(gctx, publicQuery(store.PropertyQuery{
				Category: cat.Value,
				Limit:    homeBucketSize,
				Fields:   store.ListingFields,
			}))
			if err != nil {
				return err
			}
			data.Buckets[i] = views.CategoryBucket{Category: cat, Properties: props}
			return nil
		})
	}
	g.Go(func() error {
		featured, err := pc.properties.List(gctx, publicQuery(store.PropertyQuery{
			Featured: &yes,
			Limit:    homeBucketSize,
			Fields:   store.ListingFields,
		}))
		data.Featured = featured
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading home page: %w", err)
	}

	page := &views.Page{Canonical: pc.canonical("/"), Data: data}
	if len(data.Featured) > 0 {
		f := data.Featured[0]
		label := pc.site.CategoryLabel(f.Category)
		where := f.Location
		if where == "" {
			where = f.City
		}
		page.Title = fmt.Sprintf("%s in %s | %s - %s", label, where, seo.FormatINR(f.Price), pc.site.Brand)
		page.Description = fmt.Sprintf("Premium %s in %s. Virtual tour available.", strings.ToLower(label), where)
	}
	return c.Render(http.StatusOK, "home", page)
}

func (pc *PublicController) Properties(c echo.Context) error {
	return pc.listing(c, "", "All Properties", "/properties")
}

func (pc *PublicController) Category(c echo.Context) error {
	slug := c.Param("category")
	cat, ok := pc.site.ResolveCategory(slug)
	if !ok {
		return notFoundPage(c)
	}
	if slug != cat.Slug {
		return movedTo(c, "/category/"+cat.Slug)
	}
	return pc.listing(c, cat.Value, cat.Label, "/category/"+cat.Slug)
}

func (pc *PublicController) listing(c echo.Context, category, heading, path string) error {
	ctx := c.Request().Context()
	page := utils.ParsePage(c.QueryParam("page"))
	q := publicQuery(store.PropertyQuery{
		Category: category,
		Skip:     int64((page - 1) * perPage),
		Limit:    perPage,
		Fields:   store.ListingFields,
	})

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
		return fmt.Errorf("loading %s: %w", path, err)
	}

	pager := views.NewPagination(page, total, perPage, path, false, "")
	return c.Render(http.StatusOK, "properties_listing", &views.Page{
		Title:       fmt.Sprintf("%s | %s", heading, pc.site.Brand),
		Description: fmt.Sprintf("Browse %s listings in %s.", strings.ToLower(heading), pc.site.Region),
		Canonical:   pc.canonical(pager.URL(page)),
		Prev:        pc.link(pager.PrevURL()),
		Next:        pc.link(pager.NextURL()),
		Breadcrumbs: seo.MarkLast([]seo.Breadcrumb{{Name: "Home", URL: "/"}, {Name: heading, URL: path}}),
		Data: views.ListingData{
			Heading:    heading,
			Category:   category,
			Properties: props,
			Pagination: pager,
		},
	})
}

func (pc *PublicController) About(c echo.Context) error {
	return pc.static(c, "about", "About Us", "Learn about "+pc.site.Brand+", your trusted real estate partner.")
}

func (pc *PublicController) Services(c echo.Context) error {
	return pc.static(c, "services", "Our Services", "Explore our real estate services across "+pc.site.Region+".")
}

func (pc *PublicController) Contact(c echo.Context) error {
	return pc.static(c, "contact", "Contact Us", "Get in touch with "+pc.site.Brand+".")
}

func (pc *PublicController) static(c echo.Context, name, title, desc string) error {
	path := c.Request().URL.Path
	return c.Render(http.StatusOK, name, &views.Page{
		Title:       title + " | " + pc.site.Brand,
		Description: desc,
		Canonical:   pc.canonical(path),
		Breadcrumbs: seo.BreadcrumbsFromPath(path),
	})
}
