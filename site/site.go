// Package site holds the content that varies between deployments of the
// listing site: its name, the cities it serves, the listing categories and
// their URL aliases, budget bands and navigation.
package site

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var defaultSite []byte

type Category struct {
	Value      string   `yaml:"value"`
	Label      string   `yaml:"label"`
	Slug       string   `yaml:"slug"`
	SchemaType string   `yaml:"schema_type"`
	Aliases    []string `yaml:"aliases"`
	UITypes    []string `yaml:"ui_types"`
}

type Budget struct {
	Key string  `yaml:"key"`
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type NavItem struct {
	Label       string `yaml:"label"`
	Path        string `yaml:"path"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
}

type SEO struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Keywords    string `yaml:"keywords"`
	OGImage     string `yaml:"og_image"`
}

type Site struct {
	Name       string     `yaml:"name"`
	Brand      string     `yaml:"brand"`
	Region     string     `yaml:"region"`
	Country    string     `yaml:"country"`
	Currency   string     `yaml:"currency"`
	Cities     []string   `yaml:"cities"`
	Categories []Category `yaml:"categories"`
	Budgets    []Budget   `yaml:"budgets"`
	Nav        []NavItem  `yaml:"nav"`
	SEO        SEO        `yaml:"seo"`
}

// Default returns the embedded site definition.
func Default() *Site {
	s, err := Parse(defaultSite)
	if err != nil {
		panic(fmt.Sprintf("site: embedded site.yaml: %v", err))
	}
	return s
}

func Parse(data []byte) (*Site, error) {
	var s Site
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing site definition: %w", err)
	}
	if len(s.Categories) == 0 {
		return nil, fmt.Errorf("site definition has no categories")
	}
	for i := range s.Cities {
		s.Cities[i] = strings.ToLower(s.Cities[i])
	}
	return &s, nil
}

func (s *Site) IsCity(slug string) bool {
	slug = strings.ToLower(slug)
	for _, c := range s.Cities {
		if c == slug {
			return true
		}
	}
	return false
}

// Category looks up a category by its stored value.
func (s *Site) Category(value string) (Category, bool) {
	for _, c := range s.Categories {
		if c.Value == value {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryLabel falls back to a generic label for unknown values.
func (s *Site) CategoryLabel(value string) string {
	if c, ok := s.Category(value); ok {
		return c.Label
	}
	return "Property"
}

// ResolveCategory maps a canonical slug or any alias to its category.
func (s *Site) ResolveCategory(slug string) (Category, bool) {
	slug = strings.ToLower(slug)
	for _, c := range s.Categories {
		if c.Slug == slug || c.Value == slug {
			return c, true
		}
		for _, a := range c.Aliases {
			if a == slug {
				return c, true
			}
		}
	}
	return Category{}, false
}

// ResolveUIType maps the short type filter used by listing pages.
func (s *Site) ResolveUIType(t string) (Category, bool) {
	for _, c := range s.Categories {
		for _, u := range c.UITypes {
			if u == t {
				return c, true
			}
		}
	}
	return Category{}, false
}

func (s *Site) Budget(key string) (Budget, bool) {
	for _, b := range s.Budgets {
		if b.Key == key {
			return b, true
		}
	}
	return Budget{}, false
}

// Title upper-cases the first letter of a slug-like string.
func Title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
