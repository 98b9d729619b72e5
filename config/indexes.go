package config

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Server error codes returned when an equivalent index already exists
// under different options or a different name.
const (
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

func propertyIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "state", Value: 1}, {Key: "locality", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "category", Value: 1}, {Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "locality", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "featured", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "pincode", Value: 1}}},
		// MongoDB allows a single text index per collection.
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "location", Value: "text"},
				{Key: "city", Value: "text"},
				{Key: "state", Value: "text"},
				{Key: "locality", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "searchTags", Value: "text"},
			},
			Options: options.Index().SetName("property_text"),
		},
	}
}

func subscriberIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "email", Value: 1}}},
	}
}

// EnsureIndexes creates every index the site queries rely on. Indexes that
// already exist in a conflicting form are skipped.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	sets := map[string][]mongo.IndexModel{
		PropertiesCollection:  propertyIndexes(),
		SubscribersCollection: subscriberIndexes(),
	}
	for collection, models := range sets {
		view := db.Collection(collection).Indexes()
		for _, model := range models {
			name, err := view.CreateOne(ctx, model)
			if err != nil {
				if isIndexConflict(err) {
					logger.Info("index already exists, skipping",
						zap.String("collection", collection), zap.Any("keys", model.Keys))
					continue
				}
				return fmt.Errorf("creating index on %s: %w", collection, err)
			}
			logger.Debug("index ready", zap.String("collection", collection), zap.String("name", name))
		}
	}
	return nil
}

func isIndexConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == codeIndexOptionsConflict || cmdErr.Code == codeIndexKeySpecsConflict
	}
	return false
}
