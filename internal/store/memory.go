package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/metrics"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/model"
)

var tracer = otel.Tracer("store/article")

// MemoryStore keeps articles in a map guarded by a single mutex. Ids start
// at 1 and are never reused, even after a delete.
type MemoryStore struct {
	mu       sync.Mutex
	articles map[int64]model.Article
	nextID   int64

	now    func() time.Time
	pub    Publisher
	logger *zap.Logger
}

type Option func(*MemoryStore)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// WithPublisher sends change events to pub.
func WithPublisher(pub Publisher) Option {
	return func(s *MemoryStore) { s.pub = pub }
}

func NewMemoryStore(logger *zap.Logger, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		articles: make(map[int64]model.Article),
		nextID:   1,
		now:      func() time.Time { return time.Now().UTC() },
		pub:      NopPublisher{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.ArticlesStored.Set(0)
	return s
}

// List returns every article ordered by id.
func (s *MemoryStore) List(ctx context.Context) []model.Article {
	_, span := tracer.Start(ctx, "MemoryStore.List")
	defer span.End()

	s.mu.Lock()
	out := s.snapshot()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("article.count", len(out)))
	return out
}

// Filter returns the articles matching f, ordered by id. The title match is
// a case-insensitive substring test.
func (s *MemoryStore) Filter(ctx context.Context, f Filter) []model.Article {
	ctx, span := tracer.Start(ctx, "MemoryStore.Filter")
	defer span.End()

	articles := s.List(ctx)

	if f.Status != nil {
		span.SetAttributes(attribute.String("filter.status", f.Status.String()))
		articles = slices.DeleteFunc(articles, func(a model.Article) bool {
			return a.Status != *f.Status
		})
	}
	if f.TitleContains != "" {
		span.SetAttributes(attribute.String("filter.title_contains", f.TitleContains))
		needle := strings.ToLower(f.TitleContains)
		articles = slices.DeleteFunc(articles, func(a model.Article) bool {
			return !strings.Contains(strings.ToLower(a.Title), needle)
		})
	}
	return articles
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (model.Article, error) {
	_, span := tracer.Start(ctx, "MemoryStore.Get", trace.WithAttributes(attribute.Int64("article.id", id)))
	defer span.End()

	s.mu.Lock()
	a, ok := s.articles[id]
	s.mu.Unlock()

	if !ok {
		span.SetStatus(codes.Error, ErrNotFound.Error())
		return model.Article{}, ErrNotFound
	}
	return a, nil
}

// Create assigns the next id and stamps both timestamps with the same instant.
func (s *MemoryStore) Create(ctx context.Context, in model.NewArticle) model.Article {
	ctx, span := tracer.Start(ctx, "MemoryStore.Create")
	defer span.End()

	s.mu.Lock()
	now := s.now()
	a := model.Article{
		ID:        s.nextID,
		Title:     in.Title,
		Content:   in.Content,
		Status:    in.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.articles[a.ID] = a
	s.nextID++
	size := len(s.articles)
	s.mu.Unlock()

	metrics.ArticlesStored.Set(float64(size))
	span.SetAttributes(attribute.Int64("article.id", a.ID))
	s.publish(ctx, model.NewEvent(model.EventCreated, a.ID, &a, now))
	return a
}

// Update applies p to a copy of the stored article and replaces it. The
// updated_at timestamp is refreshed even when p sets nothing.
func (s *MemoryStore) Update(ctx context.Context, id int64, p model.Patch) (model.Article, error) {
	ctx, span := tracer.Start(ctx, "MemoryStore.Update", trace.WithAttributes(
		attribute.Int64("article.id", id),
		attribute.StringSlice("patch.fields", p.Fields()),
	))
	defer span.End()

	s.mu.Lock()
	old, ok := s.articles[id]
	if !ok {
		s.mu.Unlock()
		span.SetStatus(codes.Error, ErrNotFound.Error())
		return model.Article{}, ErrNotFound
	}
	a := p.Apply(old)
	a.UpdatedAt = s.now()
	if a.UpdatedAt.Before(a.CreatedAt) {
		a.UpdatedAt = a.CreatedAt
	}
	s.articles[id] = a
	s.mu.Unlock()

	s.publish(ctx, model.NewEvent(model.EventUpdated, id, &a, a.UpdatedAt))
	return a, nil
}

// Delete reports whether an article was removed.
func (s *MemoryStore) Delete(ctx context.Context, id int64) bool {
	ctx, span := tracer.Start(ctx, "MemoryStore.Delete", trace.WithAttributes(attribute.Int64("article.id", id)))
	defer span.End()

	s.mu.Lock()
	_, ok := s.articles[id]
	if ok {
		delete(s.articles, id)
	}
	size := len(s.articles)
	now := s.now()
	s.mu.Unlock()

	span.SetAttributes(attribute.Bool("article.deleted", ok))
	if !ok {
		return false
	}
	metrics.ArticlesStored.Set(float64(size))
	s.publish(ctx, model.NewEvent(model.EventDeleted, id, nil, now))
	return true
}

// snapshot copies the map into an id-ordered slice. Callers hold s.mu.
func (s *MemoryStore) snapshot() []model.Article {
	out := make([]model.Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b model.Article) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// publish never fails the calling operation; errors are only logged.
func (s *MemoryStore) publish(ctx context.Context, ev model.Event) {
	result := "ok"
	if err := s.pub.Publish(ctx, ev); err != nil {
		result = "error"
		trace.SpanFromContext(ctx).RecordError(err)
		s.logger.Warn("Failed to publish article event",
			zap.String("type", string(ev.Type)),
			zap.Int64("article_id", ev.ArticleID),
			zap.Error(err))
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Type), result).Inc()
}
