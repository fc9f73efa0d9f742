package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// Event records a successful mutation of the article store.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	ArticleID int64     `json:"article_id"`
	// Article is the version after the mutation; nil for deletes.
	Article *Article  `json:"article,omitempty"`
	At      time.Time `json:"at"`
}

// NewEvent stamps a new event with a fresh id.
func NewEvent(typ EventType, articleID int64, article *Article, at time.Time) Event {
	return Event{
		ID:        uuid.New(),
		Type:      typ,
		ArticleID: articleID,
		Article:   article,
		At:        at,
	}
}
