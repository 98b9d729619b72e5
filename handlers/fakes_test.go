package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Gaurav021106/GS-Infra-Estate/mailer"
	"github.com/Gaurav021106/GS-Infra-Estate/media"
	"github.com/Gaurav021106/GS-Infra-Estate/models"
	"github.com/Gaurav021106/GS-Infra-Estate/monitor"
	"github.com/Gaurav021106/GS-Infra-Estate/seo"
	"github.com/Gaurav021106/GS-Infra-Estate/site"
	"github.com/Gaurav021106/GS-Infra-Estate/store"
	"github.com/Gaurav021106/GS-Infra-Estate/views"
	"github.com/Gaurav021106/GS-Infra-Estate/worker"
)

const testBaseURL = "https://example.com"

// fakeProperties is an in-memory PropertyStore applying the subset of
// filters the handlers use.
type fakeProperties struct {
	mu      sync.Mutex
	items   []*models.Property
	queries []store.PropertyQuery
	err     error
}

func (f *fakeProperties) add(p models.Property) *models.Property {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Status == "" {
		p.Status = models.StatusAvailable
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().Add(time.Duration(len(f.items)) * time.Second)
	}
	f.items = append(f.items, &p)
	return &p
}

func (f *fakeProperties) find(id primitive.ObjectID) (int, *models.Property) {
	for i, p := range f.items {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (f *fakeProperties) Create(_ context.Context, p *models.Property) error {
	if f.err != nil {
		return f.err
	}
	created := f.add(*p)
	*p = *created
	return nil
}

func (f *fakeProperties) Get(_ context.Context, id primitive.ObjectID, _ store.Projection) (*models.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if _, p := f.find(id); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeProperties) Update(_ context.Context, id primitive.ObjectID, ch store.PropertyChanges) (*models.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, p := f.find(id)
	if p == nil {
		return nil, store.ErrNotFound
	}
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setStr(&p.Category, ch.Category)
	setStr(&p.Title, ch.Title)
	setStr(&p.Description, ch.Description)
	setStr(&p.Location, ch.Location)
	setStr(&p.Status, ch.Status)
	setStr(&p.City, ch.City)
	setStr(&p.State, ch.State)
	setStr(&p.Locality, ch.Locality)
	setStr(&p.Map3DURL, ch.Map3DURL)
	setStr(&p.VirtualTourURL, ch.VirtualTourURL)
	if ch.Price != nil {
		p.Price = *ch.Price
	}
	if ch.Active != nil {
		p.Active = *ch.Active
	}
	if ch.Featured != nil {
		p.Featured = *ch.Featured
	}
	if ch.Features != nil {
		p.Features = *ch.Features
	}
	if ch.SearchTags != nil {
		p.SearchTags = *ch.SearchTags
	}
	p.ImageURLs = append(p.ImageURLs, ch.AppendImages...)
	p.VideoURLs = append(p.VideoURLs, ch.AppendVideos...)
	cp := *p
	return &cp, nil
}

func (f *fakeProperties) Delete(_ context.Context, id primitive.ObjectID) (*models.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, p := f.find(id)
	if p == nil {
		return nil, store.ErrNotFound
	}
	f.items = slices.Delete(f.items, i, i+1)
	return p, nil
}

func (f *fakeProperties) match(q store.PropertyQuery) []models.Property {
	var out []models.Property
	for _, p := range f.items {
		switch {
		case q.Category != "" && p.Category != q.Category,
			q.Status != "" && p.Status != q.Status,
			q.Active != nil && p.Active != *q.Active,
			q.Featured != nil && p.Featured != *q.Featured,
			q.City != "" && !strings.EqualFold(p.City, q.City),
			q.State != "" && !strings.EqualFold(p.State, q.State),
			q.Locality != "" && !strings.Contains(strings.ToLower(p.Locality), strings.ToLower(q.Locality)),
			q.MinPrice > 0 && p.Price < q.MinPrice,
			q.MaxPrice > 0 && p.Price > q.MaxPrice,
			!q.ExcludeID.IsZero() && p.ID == q.ExcludeID:
			continue
		}
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b models.Property) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (f *fakeProperties) List(_ context.Context, q store.PropertyQuery) ([]models.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	out := f.match(q)
	if q.Skip > 0 {
		out = out[min(int(q.Skip), len(out)):]
	}
	if q.Limit > 0 && int(q.Limit) < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeProperties) Count(_ context.Context, q store.PropertyQuery) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.match(q))), nil
}

type fakeSubscribers struct {
	mu     sync.Mutex
	active map[string]bool
}

func (f *fakeSubscribers) Subscribe(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		f.active = map[string]bool{}
	}
	f.active[email] = true
	return nil
}

func (f *fakeSubscribers) Unsubscribe(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		f.active = map[string]bool{}
	}
	f.active[email] = false
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]any
	generation  int
	invalidated int
}

func (f *fakeCache) GetCached(_ context.Context, key string, dest interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	*(dest.(*propertyPage)) = v.(propertyPage)
	return true, nil
}

func (f *fakeCache) SetCached(_ context.Context, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = map[string]any{}
	}
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Invalidate(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.invalidated++
	return nil
}

func (f *fakeCache) Key(_ context.Context, namespace string, params map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := url.Values{}
	for k, p := range params {
		v.Set(k, p)
	}
	return namespace + ":" + strconv.Itoa(f.generation) + ":" + v.Encode(), nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.sent = append(r.sent, msg)
	return "msg-1", nil
}

func (r *recordingSender) last() mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

type fakeQueue struct {
	jobs []media.Job
	err  error
}

func (f *fakeQueue) Enqueue(job media.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []primitive.ObjectID
	tested   []string
}

func (f *fakeNotifier) NewProperty(_ context.Context, p *models.Property) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, p.ID)
	return 1, nil
}

func (f *fakeNotifier) Test(_ context.Context, to string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tested = append(f.tested, to)
	return "test-1", nil
}

// syncJobs runs submitted jobs inline.
type syncJobs struct {
	ran int
}

func (s *syncJobs) Submit(job worker.Job) error {
	s.ran++
	return job.Run(context.Background())
}

func (s *syncJobs) Stats() worker.Stats { return worker.Stats{Completed: int64(s.ran)} }

type fakeHealth struct{}

func (fakeHealth) Health() monitor.Health {
	return monitor.Health{Status: monitor.StatusHealthy, Issues: []string{}}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

// fakeUploads records saved and removed URLs without touching disk.
type fakeUploads struct {
	removed []string
	err     error
}

func (f *fakeUploads) Save(form *multipart.Form) (*media.Saved, error) {
	if f.err != nil {
		return nil, f.err
	}
	saved := &media.Saved{}
	if form == nil {
		return saved, nil
	}
	for _, fh := range form.File[media.FieldImages] {
		saved.Images = append(saved.Images, media.URLPrefix+"images-"+fh.Filename)
	}
	for _, fh := range form.File[media.FieldVideos] {
		saved.Videos = append(saved.Videos, media.URLPrefix+"videos-"+fh.Filename)
	}
	for _, fh := range form.File[media.FieldVirtualTour] {
		saved.VirtualTour = media.URLPrefix + "virtualTourFile-" + fh.Filename
	}
	for _, fh := range form.File[media.FieldMap3D] {
		saved.Map3D = media.URLPrefix + "map3dFile-" + fh.Filename
	}
	return saved, nil
}

func (f *fakeUploads) Remove(urls []string) int {
	n := 0
	for _, u := range urls {
		if u != "" {
			f.removed = append(f.removed, u)
			n++
		}
	}
	return n
}

func testPublisher() seo.Publisher {
	return seo.Publisher{Site: site.Default(), BaseURL: testBaseURL, Phone: "+91-1", Email: "info@example.com"}
}

// newEcho returns an echo instance wired with the real templates and
// error handler.
func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	r, err := views.New(site.Default(), "+91-1", "info@example.com")
	require.NoError(t, err)
	e := echo.New()
	e.Renderer = r
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop(), false)
	return e
}

func do(e *echo.Echo, method, target string, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func available(title, city string, category string) models.Property {
	return models.Property{
		Title:    title,
		City:     city,
		State:    "Uttarakhand",
		Location: city + ", Uttarakhand",
		Category: category,
		Price:    4500000,
		Status:   models.StatusAvailable,
		Active:   true,
	}
}
