package handler

import (
	"net/http"
	"strconv"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// pageParams reads page and limit query parameters, clamped to sane
// bounds.
func pageParams(r *http.Request) (page, limit int64) {
	page = queryInt64(r, "page", 1)
	if page < 1 {
		page = 1
	}

	limit = queryInt64(r, "limit", defaultPageLimit)
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return page, limit
}

func queryInt64(r *http.Request, key string, fallback int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return value
}

func queryInt(r *http.Request, key string, fallback int) int {
	return int(queryInt64(r, key, int64(fallback)))
}

func queryString(r *http.Request, key string) *string {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	return &raw
}
