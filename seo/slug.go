package seo

import (
	"strings"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
)

const maxSlugLen = 50

// MakeSlug lower-cases the title and joins its alphanumeric runs with
// hyphens. The result never starts or ends with a hyphen.
func MakeSlug(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// PropertyPath is the canonical detail URL path of a listing.
func PropertyPath(p *models.Property) string {
	slug := MakeSlug(p.Title)
	if slug == "" {
		return "/property/" + p.ID.Hex()
	}
	return "/property/" + slug + "-" + p.ID.Hex()
}

// SplitSlugID splits "<slug>-<24 hex id>" into its parts. A bare id yields
// an empty slug.
func SplitSlugID(ref string) (slug, id string) {
	i := strings.LastIndexByte(ref, '-')
	if i < 0 {
		return "", ref
	}
	return ref[:i], ref[i+1:]
}
