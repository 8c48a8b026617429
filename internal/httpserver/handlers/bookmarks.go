package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mgaultier/marks/internal/domain"
	"github.com/mgaultier/marks/internal/gateway"
	"github.com/mgaultier/marks/internal/httpserver/deps"
	"github.com/mgaultier/marks/internal/httpserver/mw"
	"github.com/mgaultier/marks/internal/logger"
	storeredis "github.com/mgaultier/marks/internal/store/redis"
)

type bookmarkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ListBookmarks returns the owner's bookmarks, newest first. The
// rendered view is cached per owner; mutations invalidate it.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := mw.SessionFrom(r.Context())
		owner, ok := sess.Owner()
		if !ok {
			writeError(w, d, gateway.ErrUnauthenticated)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		cached, err := d.Store.CachedList(r.Context(), owner)
		if err != nil {
			d.Logger.Warn("failed to read cached list",
				logger.String("owner", owner),
				logger.Error(err))
		}
		if cached != nil {
			w.Header().Set("X-Cache", "hit")
			_, _ = w.Write(cached)
			return
		}

		list, err := d.Store.List(r.Context(), owner)
		if err != nil {
			writeError(w, d, err)
			return
		}

		data, err := json.Marshal(list)
		if err != nil {
			writeError(w, d, err)
			return
		}

		if err := d.Store.CacheList(r.Context(), owner, data, d.ListCacheTTL); err != nil {
			d.Logger.Warn("failed to cache list",
				logger.String("owner", owner),
				logger.Error(err))
		}

		w.Header().Set("X-Cache", "miss")
		_, _ = w.Write(data)
	}
}

// CreateBookmark inserts a bookmark for the authenticated owner
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body.", nil)
			return
		}

		bookmark, err := d.Gateway.Create(r.Context(), mw.SessionFrom(r.Context()), req.Title, req.URL)
		if err != nil {
			writeError(w, d, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(bookmark)
	}
}

// UpdateBookmark replaces the title and URL of the owner's bookmark
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body.", nil)
			return
		}

		id := chi.URLParam(r, "id")
		bookmark, err := d.Gateway.Update(r.Context(), mw.SessionFrom(r.Context()), id, req.Title, req.URL)
		if err != nil {
			writeError(w, d, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(bookmark)
	}
}

// DeleteBookmark removes the owner's bookmark. Deleting an id that no
// longer exists succeeds.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Gateway.Delete(r.Context(), mw.SessionFrom(r.Context()), id); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeError maps domain and persistence failures to HTTP statuses and
// renders the user-facing message for everything else.
func writeError(w http.ResponseWriter, d deps.Deps, err error) {
	switch {
	case errors.Is(err, gateway.ErrUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, err.Error(), nil)
		return
	case errors.Is(err, gateway.ErrInvalidArgument):
		writeJSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var fieldErrs domain.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeJSONError(w, http.StatusUnprocessableEntity, "Validation failed.", fieldErrs)
		return
	}

	status := http.StatusInternalServerError
	var storeErr *storeredis.Error
	if errors.As(err, &storeErr) {
		switch storeErr.Code {
		case storeredis.CodePermissionDenied:
			status = http.StatusForbidden
		case storeredis.CodeUniqueViolation:
			status = http.StatusConflict
		}
	}

	if status == http.StatusInternalServerError {
		d.Logger.Error("bookmark request failed", logger.Error(err))
	}
	writeJSONError(w, status, gateway.Classify(err), nil)
}

func writeJSONError(w http.ResponseWriter, status int, message string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Fields: fields})
}
