package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Gaurav021106/GS-Infra-Estate/seo"
	"github.com/Gaurav021106/GS-Infra-Estate/store"
)

func (pc *PublicController) Sitemap(c echo.Context) error {
	props, err := pc.properties.List(c.Request().Context(), publicQuery(store.PropertyQuery{
		Fields: store.ListingFields,
	}))
	if err != nil {
		return fmt.Errorf("loading sitemap properties: %w", err)
	}

	set := seo.BuildSitemap(pc.publisher.BaseURL, pc.site, props)
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationXMLCharsetUTF8)
	res.Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	res.WriteHeader(http.StatusOK)
	_, err = set.WriteTo(res)
	return err
}

func (pc *PublicController) Robots(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
	return c.String(http.StatusOK, seo.RobotsTxt(pc.publisher.BaseURL))
}
