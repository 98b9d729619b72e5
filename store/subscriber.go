package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Gaurav021106/GS-Infra-Estate/config"
	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Subscribers struct {
	collection *mongo.Collection
	observe    Observer
}

func NewSubscribers(db *mongo.Database, observe Observer) *Subscribers {
	return &Subscribers{
		collection: db.Collection(config.SubscribersCollection),
		observe:    observe,
	}
}

func (s *Subscribers) track(op string) func() {
	if s.observe == nil {
		return func() {}
	}
	start := time.Now()
	return func() { s.observe(config.SubscribersCollection, op, time.Since(start)) }
}

// Subscribe creates the subscriber or reactivates an existing one. The
// email is expected to be normalized already.
func (s *Subscribers) Subscribe(ctx context.Context, email string) error {
	defer s.track("upsert")()

	now := time.Now()
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$set":         bson.M{"email": email, "active": true, "updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("subscribing %s: %w", email, err)
	}
	return nil
}

// Unsubscribe deactivates a subscriber; unknown emails are ignored.
func (s *Subscribers) Unsubscribe(ctx context.Context, email string) error {
	defer s.track("update")()

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("unsubscribing %s: %w", email, err)
	}
	return nil
}

func (s *Subscribers) ListActive(ctx context.Context) ([]models.AlertSubscriber, error) {
	defer s.track("find")()

	cursor, err := s.collection.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []models.AlertSubscriber
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("decoding subscribers: %w", err)
	}
	return subs, nil
}
