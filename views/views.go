// Package views renders the server-side HTML pages.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/seo"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
)

//go:embed templates
var templateFS embed.FS

//go:embed public
var publicFS embed.FS

// Public returns the static assets served under /static.
func Public() fs.FS {
	sub, err := fs.Sub(publicFS, "public")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page is the data every template receives.
type Page struct {
	Title       string
	Description string
	Keywords    string
	Canonical   string
	OGImage     string
	Prev        string
	Next        string
	NoIndex     bool
	Schemas     []template.JS
	Breadcrumbs []seo.Breadcrumb
	Data        any

	Site  *site.Site
	Phone string
	Email string
	Path  string
	Year  int
}

type Renderer struct {
	site      *site.Site
	phone     string
	email     string
	templates map[string]*template.Template
}

func New(s *site.Site, phone, email string) (*Renderer, error) {
	funcs := template.FuncMap{
		"inr":           seo.FormatINR,
		"plain":         seo.PlainText,
		"truncate":      seo.Truncate,
		"titleCase":     site.Title,
		"categoryLabel": s.CategoryLabel,
		"propertyPath":  propertyPath,
		"cover":         cover,
		"isVideo":       isVideo,
		"join":          strings.Join,
		"lower":         strings.ToLower,
		"dict":          dict,
		"selected":      selected,
		"add":           func(a, b int) int { return a + b },
		"sub":           func(a, b int) int { return a - b },
		"date":          func(t time.Time) string { return t.Format("02 Jan 2006") },
	}

	base, err := template.New("base").Funcs(funcs).ParseFS(templateFS, "templates/layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	r := &Renderer{site: s, phone: phone, email: email, templates: map[string]*template.Template{}}
	err = fs.WalkDir(templateFS, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}
		t, err := template.Must(base.Clone()).ParseFS(templateFS, p)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/pages/"), ".html")
		r.templates[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render implements echo.Renderer. data may be a *Page or any page payload.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	page, ok := data.(*Page)
	if !ok {
		page = &Page{Data: data}
	}
	r.fill(page, c)
	return t.ExecuteTemplate(w, "layout", page)
}

func (r *Renderer) fill(p *Page, c echo.Context) {
	p.Site = r.site
	p.Phone = r.phone
	p.Email = r.email
	p.Year = time.Now().Year()
	if c != nil {
		p.Path = c.Request().URL.Path
	}
	if p.Title == "" {
		p.Title = r.site.SEO.Title
	}
	if p.Description == "" {
		p.Description = r.site.SEO.Description
	}
	if p.Keywords == "" {
		p.Keywords = r.site.SEO.Keywords
	}
	if p.OGImage == "" {
		p.OGImage = r.site.SEO.OGImage
	}
}

func propertyPath(p models.Property) string {
	return seo.PropertyPath(&p)
}

func cover(p models.Property) string {
	return p.CoverImage()
}

func isVideo(url string) bool {
	return strings.HasSuffix(strings.ToLower(url), ".mp4")
}

func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, _ := kv[i].(string)
		m[k] = kv[i+1]
	}
	return m
}

func selected(a, b string) template.HTMLAttr {
	if a == b {
		return "selected"
	}
	return ""
}

// JSONLD marks schema documents as safe to embed in a script block.
func JSONLD(schemas ...seo.Schema) []template.JS {
	out := make([]template.JS, 0, len(schemas))
	for _, s := range schemas {
		js, err := s.JSON()
		if err != nil {
			continue
		}
		out = append(out, template.JS(js))
	}
	return out
}
