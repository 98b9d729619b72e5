package seo

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type SitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// BuildSitemap lists the home page, category and city landing pages and
// every listing passed in.
func BuildSitemap(base string, s *site.Site, properties []models.Property) URLSet {
	base = strings.TrimRight(base, "/")
	set := URLSet{XMLNS: sitemapNS}
	set.URLs = append(set.URLs, SitemapURL{Loc: base + "/", ChangeFreq: "daily", Priority: "1.0"})
	set.URLs = append(set.URLs, SitemapURL{Loc: base + "/properties", ChangeFreq: "daily", Priority: "0.9"})

	for _, c := range s.Categories {
		set.URLs = append(set.URLs, SitemapURL{Loc: base + "/category/" + c.Slug, ChangeFreq: "weekly", Priority: "0.8"})
	}
	for _, city := range s.Cities {
		set.URLs = append(set.URLs, SitemapURL{Loc: base + "/properties-in-" + city, ChangeFreq: "daily", Priority: "0.8"})
	}
	for i := range properties {
		p := &properties[i]
		u := SitemapURL{Loc: base + PropertyPath(p), ChangeFreq: "weekly", Priority: "0.8"}
		if !p.UpdatedAt.IsZero() {
			u.LastMod = p.UpdatedAt.UTC().Format(time.DateOnly)
		}
		set.URLs = append(set.URLs, u)
	}
	return set
}

func (u URLSet) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if _, err := io.WriteString(cw, xml.Header); err != nil {
		return cw.n, err
	}
	enc := xml.NewEncoder(cw)
	enc.Indent("", "  ")
	if err := enc.Encode(u); err != nil {
		return cw.n, fmt.Errorf("encoding sitemap: %w", err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// RobotsTxt allows everything but the admin panel and links the sitemap.
func RobotsTxt(base string) string {
	base = strings.TrimRight(base, "/")
	return "User-agent: *\nAllow: /\nDisallow: /admin\n\nSitemap: " + base + "/sitemap.xml\n"
}
