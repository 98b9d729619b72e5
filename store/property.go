package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Gaurav021106/GS-Infra-Estate/config"
	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("not found")

// Observer receives the duration of every database operation.
type Observer func(collection, operation string, d time.Duration)

type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortFeatured  SortOrder = "featured"
)

type Projection int

const (
	AllFields Projection = iota
	ListingFields
	DetailFields
)

var listingFields = []string{
	"title", "price", "city", "locality", "location", "imageUrls", "category",
	"status", "builtupArea", "featured", "active", "createdAt", "updatedAt",
}

var detailFields = []string{
	"title", "description", "price", "location", "city", "state", "locality",
	"pincode", "category", "suitableFor", "features", "status", "featured", "active",
	"imageUrls", "videoUrls", "map3dUrl", "virtualTourUrl", "searchTags",
	"seoMetaDescription", "builtupArea", "createdAt", "updatedAt",
}

// PropertyQuery describes a filtered, sorted and paginated listing query.
// Zero values leave the corresponding constraint out.
type PropertyQuery struct {
	Category  string
	Status    string
	Featured  *bool
	Active    *bool
	City      string
	State     string
	Locality  string
	MinPrice  float64
	MaxPrice  float64
	ExcludeID primitive.ObjectID
	Text      string

	Sort   SortOrder
	Skip   int64
	Limit  int64
	Fields Projection
}

// PropertyChanges is a partial update. Nil fields are left untouched;
// AppendImages and AppendVideos are pushed onto the existing lists.
type PropertyChanges struct {
	Category           *string
	Title              *string
	Description        *string
	Price              *float64
	Location           *string
	SuitableFor        *[]string
	Features           *[]string
	Status             *string
	Featured           *bool
	Active             *bool
	BuiltupArea        *string
	City               *string
	State              *string
	Locality           *string
	Pincode            *string
	SearchTags         *[]string
	SEOMetaDescription *string
	Map3DURL           *string
	VirtualTourURL     *string

	AppendImages []string
	AppendVideos []string
}

type Properties struct {
	collection *mongo.Collection
	observe    Observer
}

func NewProperties(db *mongo.Database, observe Observer) *Properties {
	return &Properties{
		collection: db.Collection(config.PropertiesCollection),
		observe:    observe,
	}
}

func (s *Properties) track(op string) func() {
	if s.observe == nil {
		return func() {}
	}
	start := time.Now()
	return func() { s.observe(config.PropertiesCollection, op, time.Since(start)) }
}

func (s *Properties) Create(ctx context.Context, p *models.Property) error {
	defer s.track("insert")()

	now := time.Now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Status == "" {
		p.Status = models.StatusAvailable
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	normalizeLists(p)

	if _, err := s.collection.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("inserting property: %w", err)
	}
	return nil
}

func (s *Properties) Get(ctx context.Context, id primitive.ObjectID, fields Projection) (*models.Property, error) {
	defer s.track("findOne")()

	opts := options.FindOne()
	if proj := projection(fields); proj != nil {
		opts.SetProjection(proj)
	}
	var p models.Property
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching property %s: %w", id.Hex(), err)
	}
	return &p, nil
}

func (s *Properties) Update(ctx context.Context, id primitive.ObjectID, changes PropertyChanges) (*models.Property, error) {
	defer s.track("findOneAndUpdate")()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Property
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, changes.document(time.Now()), opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating property %s: %w", id.Hex(), err)
	}
	return &p, nil
}

func (s *Properties) Delete(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	defer s.track("findOneAndDelete")()

	var p models.Property
	if err := s.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("deleting property %s: %w", id.Hex(), err)
	}
	return &p, nil
}

func (s *Properties) List(ctx context.Context, q PropertyQuery) ([]models.Property, error) {
	defer s.track("find")()

	opts := options.Find().SetSort(sortDocument(q))
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if proj := projection(q.Fields); proj != nil {
		opts.SetProjection(proj)
	}

	cursor, err := s.collection.Find(ctx, buildFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer cursor.Close(ctx)

	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("decoding properties: %w", err)
	}
	return properties, nil
}

func (s *Properties) Count(ctx context.Context, q PropertyQuery) (int64, error) {
	defer s.track("count")()

	n, err := s.collection.CountDocuments(ctx, buildFilter(q))
	if err != nil {
		return 0, fmt.Errorf("counting properties: %w", err)
	}
	return n, nil
}

// ReplaceMediaURL swaps one stored media URL for another in whichever media
// field holds it. Each field is updated with its own atomic operation so
// concurrent edits to other fields are preserved.
func (s *Properties) ReplaceMediaURL(ctx context.Context, id primitive.ObjectID, from, to string) error {
	defer s.track("replaceMedia")()

	now := time.Now()
	updates := []struct {
		filter bson.M
		set    bson.M
	}{
		{bson.M{"_id": id, "imageUrls": from}, bson.M{"imageUrls.$": to, "updatedAt": now}},
		{bson.M{"_id": id, "videoUrls": from}, bson.M{"videoUrls.$": to, "updatedAt": now}},
		{bson.M{"_id": id, "virtualTourUrl": from}, bson.M{"virtualTourUrl": to, "updatedAt": now}},
		{bson.M{"_id": id, "map3dUrl": from}, bson.M{"map3dUrl": to, "updatedAt": now}},
	}
	for _, u := range updates {
		res, err := s.collection.UpdateOne(ctx, u.filter, bson.M{"$set": u.set})
		if err != nil {
			return fmt.Errorf("replacing media url on %s: %w", id.Hex(), err)
		}
		if res.MatchedCount > 0 {
			return nil
		}
	}
	return ErrNotFound
}

func buildFilter(q PropertyQuery) bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Featured != nil {
		filter["featured"] = *q.Featured
	}
	if q.Active != nil {
		// Listings stored before the flag existed have no active field.
		if *q.Active {
			filter["active"] = bson.M{"$ne": false}
		} else {
			filter["active"] = false
		}
	}
	if q.City != "" {
		filter["city"] = exactInsensitive(q.City)
	}
	if q.State != "" {
		filter["state"] = exactInsensitive(q.State)
	}
	if q.Locality != "" {
		filter["locality"] = primitive.Regex{Pattern: regexp.QuoteMeta(q.Locality), Options: "i"}
	}
	if q.MinPrice > 0 || q.MaxPrice > 0 {
		price := bson.M{}
		if q.MinPrice > 0 {
			price["$gte"] = q.MinPrice
		}
		if q.MaxPrice > 0 {
			price["$lte"] = q.MaxPrice
		}
		filter["price"] = price
	}
	if !q.ExcludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": q.ExcludeID}
	}
	if q.Text != "" {
		filter["$text"] = bson.M{"$search": q.Text}
	}
	return filter
}

func exactInsensitive(v string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(v) + "$", Options: "i"}
}

func sortDocument(q PropertyQuery) bson.D {
	switch q.Sort {
	case SortPriceLow:
		return bson.D{{Key: "price", Value: 1}}
	case SortPriceHigh:
		return bson.D{{Key: "price", Value: -1}}
	case SortFeatured:
		return bson.D{{Key: "featured", Value: -1}, {Key: "createdAt", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

func projection(p Projection) bson.M {
	var fields []string
	switch p {
	case ListingFields:
		fields = listingFields
	case DetailFields:
		fields = detailFields
	default:
		return nil
	}
	proj := bson.M{}
	for _, f := range fields {
		proj[f] = 1
	}
	return proj
}

func (c PropertyChanges) document(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	setString := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	setList := func(key string, v *[]string) {
		if v != nil {
			list := *v
			if list == nil {
				list = []string{}
			}
			set[key] = list
		}
	}

	setString("category", c.Category)
	setString("title", c.Title)
	setString("description", c.Description)
	setString("location", c.Location)
	setString("status", c.Status)
	setString("builtupArea", c.BuiltupArea)
	setString("city", c.City)
	setString("state", c.State)
	setString("locality", c.Locality)
	setString("pincode", c.Pincode)
	setString("seoMetaDescription", c.SEOMetaDescription)
	setString("map3dUrl", c.Map3DURL)
	setString("virtualTourUrl", c.VirtualTourURL)
	setList("suitableFor", c.SuitableFor)
	setList("features", c.Features)
	setList("searchTags", c.SearchTags)
	if c.Price != nil {
		set["price"] = *c.Price
	}
	if c.Featured != nil {
		set["featured"] = *c.Featured
	}
	if c.Active != nil {
		set["active"] = *c.Active
	}

	doc := bson.M{"$set": set}
	push := bson.M{}
	if len(c.AppendImages) > 0 {
		push["imageUrls"] = bson.M{"$each": c.AppendImages}
	}
	if len(c.AppendVideos) > 0 {
		push["videoUrls"] = bson.M{"$each": c.AppendVideos}
	}
	if len(push) > 0 {
		doc["$push"] = push
	}
	return doc
}

func normalizeLists(p *models.Property) {
	if p.SuitableFor == nil {
		p.SuitableFor = []string{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	if p.VideoURLs == nil {
		p.VideoURLs = []string{}
	}
	if p.SearchTags == nil {
		p.SearchTags = []string{}
	}
}
