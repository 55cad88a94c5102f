package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sfried/daybook/internal/journalservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// onReviewSynced, if non-nil, is notified after each successful review sync.
func NewRouter(svc *journalservice.Service, authEnabled bool, token string, sseHandler http.Handler, onReviewSynced func(date string)) chi.Router {
	h := NewHandler(svc, onReviewSynced)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Daily notes.
	r.Get("/notes/{date}", h.GetNote)
	r.Post("/notes/{date}/format", h.FormatNote)

	// Review runs.
	r.Get("/review", h.ListReviews)
	r.Get("/review/{date}", h.GetReview)
	r.Post("/review/{date}", h.SyncReview)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
