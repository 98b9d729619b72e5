package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Gaurav021106/GS-Infra-Estate/config"
	"github.com/Gaurav021106/GS-Infra-Estate/models"
)

type recordedOps struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordedOps) observe(collection, op string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, collection+"."+op)
}

func namespace(mt *mtest.T, collection string) string {
	return mt.DB.Name() + "." + collection
}

func updateResult(matched int32) bson.D {
	return bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: matched}, {Key: "nModified", Value: matched}}
}

func TestPropertiesCRUD(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	id := primitive.NewObjectID()
	stored := bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: "Hill View"},
		{Key: "category", Value: models.CategoryResidential},
		{Key: "price", Value: 4500000.0},
	}

	mt.Run("create fills defaults", func(mt *mtest.T) {
		rec := &recordedOps{}
		props := NewProperties(mt.DB, rec.observe)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &models.Property{Title: "Hill View"}
		require.NoError(mt, props.Create(ctx, p))
		assert.False(mt, p.ID.IsZero())
		assert.Equal(mt, models.StatusAvailable, p.Status)
		assert.NotNil(mt, p.Features)
		assert.False(mt, p.CreatedAt.IsZero())
		assert.Equal(mt, []string{config.PropertiesCollection + ".insert"}, rec.ops)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("create surfaces write errors", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		err := props.Create(ctx, &models.Property{Title: "Hill View"})
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "inserting property")
	})

	mt.Run("get decodes legacy documents as active", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, config.PropertiesCollection), mtest.FirstBatch, stored))

		p, err := props.Get(ctx, id, DetailFields)
		require.NoError(mt, err)
		assert.Equal(mt, id, p.ID)
		assert.Equal(mt, "Hill View", p.Title)
		assert.True(mt, p.Active)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, config.PropertiesCollection), mtest.FirstBatch))

		_, err := props.Get(ctx, id, AllFields)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update returns the new document", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		renamed := bson.D{{Key: "_id", Value: id}, {Key: "title", Value: "Hill View Renamed"}, {Key: "active", Value: false}}
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: renamed}})

		title := "Hill View Renamed"
		p, err := props.Update(ctx, id, PropertyChanges{Title: &title})
		require.NoError(mt, err)
		assert.Equal(mt, "Hill View Renamed", p.Title)
		assert.False(mt, p.Active)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "findAndModify", started.CommandName)
		assert.Equal(mt, "Hill View Renamed", started.Command.Lookup("update", "$set", "title").StringValue())
	})

	mt.Run("update missing", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		title := "x"
		_, err := props.Update(ctx, id, PropertyChanges{Title: &title})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete returns the removed document", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: stored}})

		p, err := props.Delete(ctx, id)
		require.NoError(mt, err)
		assert.Equal(mt, "Hill View", p.Title)

		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})
		_, err = props.Delete(ctx, id)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list and count", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		ns := namespace(mt, config.PropertiesCollection)
		second := bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "title", Value: "Valley Plot"}, {Key: "active", Value: true}}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, stored, second))

		active := true
		list, err := props.List(ctx, PropertyQuery{Active: &active, Sort: SortNewest, Limit: 12, Fields: ListingFields})
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, "Hill View", list[0].Title)
		assert.Equal(mt, "Valley Plot", list[1].Title)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.EqualValues(mt, 12, started.Command.Lookup("limit").AsInt64())

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(7)}}))
		n, err := props.Count(ctx, PropertyQuery{Category: models.CategoryResidential})
		require.NoError(mt, err)
		assert.EqualValues(mt, 7, n)
	})

	mt.Run("list empty is not nil", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, config.PropertiesCollection), mtest.FirstBatch))

		list, err := props.List(ctx, PropertyQuery{})
		require.NoError(mt, err)
		assert.NotNil(mt, list)
		assert.Empty(mt, list)
	})
}

func TestReplaceMediaURL(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	id := primitive.NewObjectID()

	mt.Run("stops at the field holding the url", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		mt.AddMockResponses(updateResult(0), updateResult(1))

		require.NoError(mt, props.ReplaceMediaURL(ctx, id, "/uploads/videos-a.mov", "/uploads/videos-a-opt.mp4"))

		first := mt.GetStartedEvent()
		require.NotNil(mt, first)
		assert.Equal(mt, "update", first.CommandName)
		assert.Equal(mt, "/uploads/videos-a.mov", first.Command.Lookup("updates", "0", "q", "imageUrls").StringValue())

		second := mt.GetStartedEvent()
		require.NotNil(mt, second)
		assert.Equal(mt, "/uploads/videos-a-opt.mp4", second.Command.Lookup("updates", "0", "u", "$set", "videoUrls.$").StringValue())
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("unknown url", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		mt.AddMockResponses(updateResult(0), updateResult(0), updateResult(0), updateResult(0))

		err := props.ReplaceMediaURL(ctx, id, "/uploads/gone.png", "/uploads/gone-opt.webp")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("command failure", func(mt *mtest.T) {
		props := NewProperties(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value", Name: "BadValue"}))

		err := props.ReplaceMediaURL(ctx, id, "/uploads/a.png", "/uploads/a-opt.webp")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrNotFound)
	})
}

func TestSubscribers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("subscribe upserts an active record", func(mt *mtest.T) {
		rec := &recordedOps{}
		subs := NewSubscribers(mt.DB, rec.observe)
		mt.AddMockResponses(updateResult(0))

		require.NoError(mt, subs.Subscribe(ctx, "buyer@example.com"))
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		update := started.Command.Lookup("updates", "0")
		assert.True(mt, update.Document().Lookup("upsert").Boolean())
		assert.Equal(mt, "buyer@example.com", update.Document().Lookup("q", "email").StringValue())
		assert.True(mt, update.Document().Lookup("u", "$set", "active").Boolean())
		assert.Equal(mt, []string{config.SubscribersCollection + ".upsert"}, rec.ops)
	})

	mt.Run("unsubscribe deactivates", func(mt *mtest.T) {
		subs := NewSubscribers(mt.DB, nil)
		mt.AddMockResponses(updateResult(0))

		require.NoError(mt, subs.Unsubscribe(ctx, "nobody@example.com"))
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		update := started.Command.Lookup("updates", "0").Document()
		assert.Equal(mt, "nobody@example.com", update.Lookup("q", "email").StringValue())
		assert.False(mt, update.Lookup("u", "$set", "active").Boolean())
	})

	mt.Run("list active", func(mt *mtest.T) {
		subs := NewSubscribers(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt, config.SubscribersCollection), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "a@example.com"}, {Key: "active", Value: true}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "b@example.com"}, {Key: "active", Value: true}},
		))

		list, err := subs.ListActive(ctx)
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, "a@example.com", list[0].Email)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.True(mt, started.Command.Lookup("filter", "active").Boolean())
	})

	mt.Run("subscribe failure is wrapped", func(mt *mtest.T) {
		subs := NewSubscribers(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value", Name: "BadValue"}))

		err := subs.Subscribe(ctx, "buyer@example.com")
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "buyer@example.com")
	})
}
