package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/metrics"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/model"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/store"
)

// pollTimeout bounds each blocking pop so the loop notices cancellation.
const pollTimeout = time.Second

// EventSource yields queued article change events.
type EventSource interface {
	PopEvent(ctx context.Context, timeout time.Duration) (model.Event, error)
}

// recentLister is implemented by sources that remember recently published
// event ids.
type recentLister interface {
	Recent(ctx context.Context, limit int) ([]string, error)
}

// recentOnStart is how many recent event ids are logged when the worker starts.
const recentOnStart = 10

// Handler processes one event. The default handler only logs.
type Handler func(ctx context.Context, ev model.Event)

// Worker drains the article event queue and writes an audit trail.
type Worker struct {
	source  EventSource
	logger  *zap.Logger
	handle  Handler
	backoff time.Duration
}

func NewWorker(source EventSource, logger *zap.Logger) *Worker {
	w := &Worker{
		source:  source,
		logger:  logger,
		backoff: time.Second,
	}
	w.handle = w.audit
	return w
}

// Start runs the worker loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started. Waiting for events...")
	w.logRecent(ctx)

	for {
		if ctx.Err() != nil {
			w.logger.Info("Worker shutting down")
			return
		}

		ev, err := w.source.PopEvent(ctx, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Worker shutting down")
				return
			}
			if errors.Is(err, store.ErrQueueEmpty) {
				continue
			}
			w.logger.Error("Queue error", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.backoff):
			}
			continue
		}

		w.handle(ctx, ev)
		metrics.EventsConsumed.WithLabelValues(string(ev.Type)).Inc()
	}
}

// logRecent logs the ids of the most recently published events when the
// source keeps them.
func (w *Worker) logRecent(ctx context.Context) {
	rl, ok := w.source.(recentLister)
	if !ok {
		return
	}
	ids, err := rl.Recent(ctx, recentOnStart)
	if err != nil {
		w.logger.Warn("Failed to read recent events", zap.Error(err))
		return
	}
	w.logger.Info("Recent article events", zap.Strings("event_ids", ids))
}

func (w *Worker) audit(_ context.Context, ev model.Event) {
	fields := []zap.Field{
		zap.String("event_id", ev.ID.String()),
		zap.String("type", string(ev.Type)),
		zap.Int64("article_id", ev.ArticleID),
		zap.Time("at", ev.At),
	}
	if ev.Article != nil {
		fields = append(fields,
			zap.String("title", ev.Article.Title),
			zap.Stringer("status", ev.Article.Status))
	}
	w.logger.Info("Article event", fields...)
}
