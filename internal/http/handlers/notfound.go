package handlers

import (
	"net/http"

	"volunteer-api/internal/apperr"
	"volunteer-api/internal/http/respond"
)

// NotFound answers every unmatched route or method.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, r, apperr.ErrNotFound)
}
