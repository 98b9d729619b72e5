package seo

import "strings"

type Breadcrumb struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// BreadcrumbsFromPath derives a trail from a URL path, one crumb per segment.
func BreadcrumbsFromPath(path string) []Breadcrumb {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	crumbs := []Breadcrumb{{Name: "Home", URL: "/", Active: len(parts) == 0}}

	current := ""
	for i, part := range parts {
		current += "/" + part
		label := strings.ReplaceAll(part, "-", " ")
		if label != "" {
			label = strings.ToUpper(label[:1]) + label[1:]
		}
		crumbs = append(crumbs, Breadcrumb{Name: label, URL: current, Active: i == len(parts)-1})
	}
	return crumbs
}

// MarkLast flags the final crumb as the current page.
func MarkLast(crumbs []Breadcrumb) []Breadcrumb {
	for i := range crumbs {
		crumbs[i].Active = i == len(crumbs)-1
	}
	return crumbs
}
