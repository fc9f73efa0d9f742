package store

import (
	"context"
	"errors"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/model"
)

var (
	ErrNotFound = errors.New("article not found")
)

// Filter restricts a listing. Zero values apply no restriction.
type Filter struct {
	Status        *model.Status
	TitleContains string
}

type Store interface {
	List(ctx context.Context) []model.Article
	Filter(ctx context.Context, f Filter) []model.Article
	Get(ctx context.Context, id int64) (model.Article, error)
	Create(ctx context.Context, in model.NewArticle) model.Article
	Update(ctx context.Context, id int64, p model.Patch) (model.Article, error)
	Delete(ctx context.Context, id int64) bool
}

// Publisher receives article change events after a mutation succeeds.
type Publisher interface {
	Publish(ctx context.Context, ev model.Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.Event) error { return nil }
