package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("draft")
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, st)

	st, err = ParseStatus("published")
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, st)

	for _, bad := range []string{"", "Draft", "archived", "PUBLISHED"} {
		_, err := ParseStatus(bad)
		assert.ErrorIs(t, err, ErrInvalidStatus, bad)
	}
}

func TestStatus_ZeroValueIsInvalid(t *testing.T) {
	var st Status
	assert.False(t, st.Valid())

	_, err := json.Marshal(struct {
		S Status `json:"s"`
	}{})
	assert.Error(t, err)
}

func TestArticle_JSON(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	a := Article{
		ID:        7,
		Title:     "Hello",
		Content:   "World",
		Status:    StatusPublished,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 7,
		"title": "Hello",
		"content": "World",
		"status": "published",
		"created_at": "2024-05-01T12:30:00Z",
		"updated_at": "2024-05-01T12:30:00Z"
	}`, string(data))

	var back Article
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, a, back)

	err = json.Unmarshal([]byte(`{"status":"archived"}`), &back)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestPatch_Apply(t *testing.T) {
	ts := time.Now()
	orig := Article{ID: 1, Title: "a", Content: "b", Status: StatusDraft, CreatedAt: ts, UpdatedAt: ts}

	// Empty patch leaves everything as it was
	assert.Equal(t, orig, Patch{}.Apply(orig))
	assert.Empty(t, Patch{}.Fields())

	title := "new title"
	published := StatusPublished
	p := Patch{Title: &title, Status: &published}
	got := p.Apply(orig)

	assert.Equal(t, "new title", got.Title)
	assert.Equal(t, "b", got.Content)
	assert.Equal(t, StatusPublished, got.Status)
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
	assert.Equal(t, []string{"title", "status"}, p.Fields())

	// Original must not be modified
	assert.Equal(t, "a", orig.Title)
}
