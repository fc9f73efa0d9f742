package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/model"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/schema"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	// Render an empty list as [] rather than null.
	if articles, ok := v.([]model.Article); ok && articles == nil {
		v = []model.Article{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error onto a status code and a {"detail": ...} body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *schema.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"detail": ve.Fields})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Article not found"})
	case errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"detail": "Request body too large"})
	default:
		loggerFrom(r, s.logger).Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal Server Error"})
	}
}
