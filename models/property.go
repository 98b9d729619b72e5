package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusAvailable = "available"
	StatusSold      = "sold"
	StatusOnHold    = "on_hold"
)

const (
	CategoryResidential = "residential_properties"
	CategoryCommercial  = "commercial_plots"
	CategoryLand        = "land_plots"
	CategoryPremium     = "premium_investment"
)

var Statuses = []string{StatusAvailable, StatusSold, StatusOnHold}

type Property struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Category           string             `bson:"category" json:"category"`
	Title              string             `bson:"title" json:"title"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	Price              float64            `bson:"price" json:"price"`
	Location           string             `bson:"location" json:"location"`
	SuitableFor        []string           `bson:"suitableFor" json:"suitableFor"`
	Features           []string           `bson:"features" json:"features"`
	Status             string             `bson:"status" json:"status"`
	Featured           bool               `bson:"featured" json:"featured"`
	Active             bool               `bson:"active" json:"active"`
	BuiltupArea        string             `bson:"builtupArea,omitempty" json:"builtupArea,omitempty"`
	Map3DURL           string             `bson:"map3dUrl,omitempty" json:"map3dUrl,omitempty"`
	VirtualTourURL     string             `bson:"virtualTourUrl,omitempty" json:"virtualTourUrl,omitempty"`
	ImageURLs          []string           `bson:"imageUrls" json:"imageUrls"`
	VideoURLs          []string           `bson:"videoUrls" json:"videoUrls"`
	City               string             `bson:"city" json:"city"`
	State              string             `bson:"state" json:"state"`
	Locality           string             `bson:"locality,omitempty" json:"locality,omitempty"`
	Pincode            string             `bson:"pincode,omitempty" json:"pincode,omitempty"`
	SearchTags         []string           `bson:"searchTags" json:"searchTags"`
	SEOMetaDescription string             `bson:"seoMetaDescription,omitempty" json:"seoMetaDescription,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UnmarshalBSON treats documents written before the active flag existed as
// active.
func (p *Property) UnmarshalBSON(data []byte) error {
	type plain Property
	doc := plain{Active: true}
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	*p = Property(doc)
	return nil
}

func (p *Property) IsAvailable() bool {
	return p.Status == StatusAvailable
}

// CoverImage is the first image, used on listing cards and social previews.
func (p *Property) CoverImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// MediaURLs lists every uploaded asset referenced by the property.
func (p *Property) MediaURLs() []string {
	urls := make([]string, 0, len(p.ImageURLs)+len(p.VideoURLs)+2)
	urls = append(urls, p.ImageURLs...)
	urls = append(urls, p.VideoURLs...)
	if p.VirtualTourURL != "" {
		urls = append(urls, p.VirtualTourURL)
	}
	if p.Map3DURL != "" {
		urls = append(urls, p.Map3DURL)
	}
	return urls
}

func IsValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}
