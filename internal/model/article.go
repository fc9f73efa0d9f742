package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidStatus = errors.New("invalid article status")

// Status is the publication state of an article. The zero value is not a
// valid status; use ParseStatus or one of the declared constants.
type Status uint8

const (
	StatusDraft Status = iota + 1
	StatusPublished
)

var statusNames = map[Status]string{
	StatusDraft:     "draft",
	StatusPublished: "published",
}

// Statuses lists every valid status in declaration order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusPublished}
}

// ParseStatus converts the wire form of a status into a Status.
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Article is a blog post held by the store.
type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewArticle holds the validated fields of a create request.
type NewArticle struct {
	Title   string
	Content string
	Status  Status
}

// Patch is a sparse update. A nil field is left unchanged.
type Patch struct {
	Title   *string
	Content *string
	Status  *Status
}

// Fields returns the names of the fields the patch sets.
func (p Patch) Fields() []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Content != nil {
		fields = append(fields, "content")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	return fields
}

// Apply returns a copy of a with the patch's fields applied. Identity and
// timestamps are never touched here.
func (p Patch) Apply(a Article) Article {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	return a
}
