package views

import (
	"strconv"
	"strings"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
)

type CategoryBucket struct {
	Category   site.Category
	Properties []models.Property
}

type HomeData struct {
	Featured []models.Property
	Buckets  []CategoryBucket
}

// Pagination links pages either as path segments (/x/2) or as ?page=2.
type Pagination struct {
	Page       int
	TotalPages int
	Total      int64
	Base       string
	PathStyle  bool
	// Query is appended to every page link, without the leading "?".
	Query string
}

func NewPagination(page int, total int64, perPage int, base string, pathStyle bool, query string) Pagination {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return Pagination{Page: page, TotalPages: max(pages, 1), Total: total, Base: base, PathStyle: pathStyle, Query: query}
}

func (p Pagination) HasPrev() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

func (p Pagination) PrevURL() string {
	if !p.HasPrev() {
		return ""
	}
	return p.URL(p.Page - 1)
}

func (p Pagination) NextURL() string {
	if !p.HasNext() {
		return ""
	}
	return p.URL(p.Page + 1)
}

func (p Pagination) URL(n int) string {
	u := p.Base
	var params []string
	if n > 1 {
		if p.PathStyle {
			u = strings.TrimRight(u, "/") + "/" + strconv.Itoa(n)
		} else {
			params = append(params, "page="+strconv.Itoa(n))
		}
	}
	if p.Query != "" {
		params = append(params, p.Query)
	}
	if len(params) > 0 {
		u += "?" + strings.Join(params, "&")
	}
	return u
}

// Pages lists the page numbers shown in the pager.
func (p Pagination) Pages() []int {
	const window = 2
	var out []int
	for n := max(1, p.Page-window); n <= min(p.TotalPages, p.Page+window); n++ {
		out = append(out, n)
	}
	return out
}

type ListingFilters struct {
	Type     string
	Budget   string
	Locality string
	Sort     string
}

type ListingData struct {
	Heading    string
	Intro      string
	City       string
	CitySlug   string
	Category   string
	Properties []models.Property
	Pagination Pagination
	Filters    ListingFilters
	Categories []site.Category
	Budgets    []site.Budget
	// FilterAction is where the filter form submits; empty hides the form.
	FilterAction string
}

type DetailData struct {
	Property *models.Property
	Related  []models.Property
	ShareURL string
}

type LoginData struct {
	Email string
}

type DashboardData struct {
	Status      string
	Error       string
	Available   []models.Property
	Sold        []models.Property
	OnHold      []models.Property
	Edit        *models.Property
	Categories  []site.Category
	Statuses    []string
	AdminEmail  string
	MaxUploadMB int64
}

type ErrorData struct {
	Code    int
	Message string
}
