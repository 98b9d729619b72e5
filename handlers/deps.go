package handlers

import (
	"context"
	"mime/multipart"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Gaurav021106/GS-Infra-Estate/media"
	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/monitor"
	"github.com/Gaurav021106/GS-Infra-Estate/session"
	"github.com/Gaurav021106/GS-Infra-Estate/store"
	"github.com/Gaurav021106/GS-Infra-Estate/worker"
)

// PropertyStore is implemented by *store.Properties.
type PropertyStore interface {
	Create(ctx context.Context, p *models.Property) error
	Get(ctx context.Context, id primitive.ObjectID, fields store.Projection) (*models.Property, error)
	Update(ctx context.Context, id primitive.ObjectID, changes store.PropertyChanges) (*models.Property, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	List(ctx context.Context, q store.PropertyQuery) ([]models.Property, error)
	Count(ctx context.Context, q store.PropertyQuery) (int64, error)
}

// SubscriberStore is implemented by *store.Subscribers.
type SubscriberStore interface {
	Subscribe(ctx context.Context, email string) error
	Unsubscribe(ctx context.Context, email string) error
}

// QueryCache is implemented by *utils.Cache.
type QueryCache interface {
	GetCached(ctx context.Context, key string, dest interface{}) (bool, error)
	SetCached(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, namespace string) error
	Key(ctx context.Context, namespace string, queryParams map[string]string) (string, error)
}

type MediaStorage interface {
	Save(form *multipart.Form) (*media.Saved, error)
	Remove(urls []string) int
}

type MediaQueue interface {
	Enqueue(job media.Job) error
}

type AlertNotifier interface {
	NewProperty(ctx context.Context, p *models.Property) (int, error)
	Test(ctx context.Context, to string) (string, error)
}

// Background runs work after the response is sent. *worker.Pool implements it.
type Background interface {
	Submit(job worker.Job) error
	Stats() worker.Stats
}

type HealthReporter interface {
	Health() monitor.Health
}

// SessionStore is implemented by *session.Store.
type SessionStore interface {
	Save(c echo.Context, sess *session.Session) error
	Regenerate(c echo.Context, sess *session.Session) error
	Destroy(c echo.Context, sess *session.Session) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

const ListingsNamespace = "listings"

var yes = true

// publicQuery restricts q to listings visitors may see.
func publicQuery(q store.PropertyQuery) store.PropertyQuery {
	q.Status = models.StatusAvailable
	q.Active = &yes
	return q
}
