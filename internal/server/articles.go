package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/model"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/schema"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/store"
)

// maxBodyBytes caps request bodies for create and update.
const maxBodyBytes = 1 << 20

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := schema.ValidateListQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	articles := s.store.Filter(r.Context(), store.Filter{
		Status:        q.Status,
		TitleContains: q.TitleContains,
	})
	writeJSON(w, http.StatusOK, paginate(articles, q.Skip, q.Limit))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	article, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	in, err := schema.ValidateCreate(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	article := s.store.Create(r.Context(), in)
	loggerFrom(r, s.logger).Info("Article created",
		zap.Int64("id", article.ID),
		zap.Stringer("status", article.Status))
	writeJSON(w, http.StatusCreated, article)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	patch, err := schema.ValidateUpdate(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	article, err := s.store.Update(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	loggerFrom(r, s.logger).Info("Article updated",
		zap.Int64("id", article.ID),
		zap.Strings("fields", patch.Fields()))
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseID(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !s.store.Delete(r.Context(), id) {
		s.writeError(w, r, store.ErrNotFound)
		return
	}
	loggerFrom(r, s.logger).Info("Article deleted", zap.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}

// paginate returns articles[skip:skip+limit], clamped to the slice bounds.
func paginate(articles []model.Article, skip, limit int) []model.Article {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	if skip > len(articles) {
		skip = len(articles)
	}
	end := len(articles)
	if limit < end-skip {
		end = skip + limit
	}
	return articles[skip:end]
}

var errBodyTooLarge = errors.New("request body too large")

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, err
	}
	return body, nil
}
