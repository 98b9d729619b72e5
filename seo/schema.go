package seo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
)

const schemaContext = "https://schema.org"

// Schema is a JSON-LD document.
type Schema map[string]any

func (s Schema) JSON() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Publisher carries the organisation details embedded in structured data.
type Publisher struct {
	Site    *site.Site
	BaseURL string
	Phone   string
	Email   string
}

func (p Publisher) absolute(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return p.BaseURL + path
}

// Property describes a single listing as an offer.
func (p Publisher) Property(prop *models.Property) Schema {
	schemaType := "RealEstateListing"
	if c, ok := p.Site.Category(prop.Category); ok && c.SchemaType != "" {
		schemaType = c.SchemaType
	}

	images := make([]string, 0, len(prop.ImageURLs))
	for _, img := range prop.ImageURLs {
		images = append(images, p.absolute(img))
	}

	availability := "https://schema.org/SoldOut"
	if prop.IsAvailable() {
		availability = "https://schema.org/InStock"
	}

	locality := prop.Locality
	if locality == "" {
		locality = prop.City
	}
	region := prop.State
	if region == "" {
		region = p.Site.Region
	}

	return Schema{
		"@context":    schemaContext,
		"@type":       schemaType,
		"name":        prop.Title,
		"description": PlainText(prop.Description),
		"image":       images,
		"offers": Schema{
			"@type":         "Offer",
			"price":         prop.Price,
			"priceCurrency": p.Site.Currency,
			"availability":  availability,
			"seller": Schema{
				"@type": "Organization",
				"name":  p.Site.Name,
			},
		},
		"address": Schema{
			"@type":           "PostalAddress",
			"streetAddress":   prop.Location,
			"addressLocality": locality,
			"addressRegion":   region,
			"addressCountry":  p.Site.Country,
			"postalCode":      prop.Pincode,
		},
		"telephone": p.Phone,
		"url":       p.absolute(PropertyPath(prop)),
	}
}

// LocalBusiness describes the agency for a city landing page.
func (p Publisher) LocalBusiness(citySlug string) Schema {
	slug := strings.ToLower(citySlug)
	city := site.Title(slug)
	return Schema{
		"@context":    schemaContext,
		"@type":       "RealEstateAgent",
		"name":        fmt.Sprintf("%s - Real Estate Services in %s", p.Site.Name, city),
		"description": fmt.Sprintf("Leading real estate services in %s, %s. Specializing in residential, plot and agricultural properties.", city, p.Site.Region),
		"areaServed": Schema{
			"@type": "City",
			"name":  city,
			"containedIn": Schema{
				"@type": "State",
				"name":  p.Site.Region,
			},
		},
		"telephone": p.Phone,
		"email":     p.Email,
		"address": Schema{
			"@type":           "PostalAddress",
			"addressLocality": city,
			"addressRegion":   p.Site.Region,
			"addressCountry":  p.Site.Country,
		},
		"priceRange":  "₹₹",
		"serviceType": []string{"Property Sales", "Property Rental", "Real Estate Consultation"},
		"url":         p.absolute("/properties-in-" + slug),
	}
}

func (p Publisher) Breadcrumbs(crumbs []Breadcrumb) Schema {
	items := make([]Schema, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, Schema{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Name,
			"item":     p.absolute(c.URL),
		})
	}
	return Schema{
		"@context":        schemaContext,
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	}
}

// CollectionPage describes a listing page; propertyType may be empty.
func (p Publisher) CollectionPage(city, propertyType string, total int64, path string) Schema {
	title := "Properties in " + city
	if propertyType != "" {
		title = propertyType + " in " + city
	}
	return Schema{
		"@context":    schemaContext,
		"@type":       "CollectionPage",
		"name":        title,
		"description": fmt.Sprintf("Browse %d %s with %s.", total, strings.ToLower(title), p.Site.Name),
		"url":         p.absolute(path),
		"isPartOf": Schema{
			"@type": "WebSite",
			"name":  p.Site.Name,
			"url":   p.BaseURL,
		},
	}
}
