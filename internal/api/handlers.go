package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sfried/daybook/internal/apperr"
	"github.com/sfried/daybook/internal/journalservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *journalservice.Service
	// onReviewSynced, when set, is called after a successful review sync.
	onReviewSynced func(date string)
}

// NewHandler creates a new Handler.
func NewHandler(svc *journalservice.Service, onReviewSynced func(date string)) *Handler {
	return &Handler{svc: svc, onReviewSynced: onReviewSynced}
}

// GetNote handles GET /api/notes/{date}.
//
//	@Summary		Get the daily note for a date
//	@Tags			notes
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	NoteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{date} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	content, err := h.svc.ReadNote(r.Context(), date)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalidDate):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid date"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		default:
			slog.Error("get note failed", slog.String("date", date), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, NoteResponse{Date: date, Content: content})
}

// FormatNote handles POST /api/notes/{date}/format.
//
//	@Summary		Rewrite tracker references in the daily note
//	@Tags			notes
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Param			dry_run	query		bool	false	"Report without writing"
//	@Success		200		{object}	FormatResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{date}/format [post]
func (h *Handler) FormatNote(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	changed, err := h.svc.FormatNote(r.Context(), date, dryRun)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalidDate):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid date"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		default:
			slog.Error("format note failed", slog.String("date", date), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, FormatResponse{Date: date, Changed: changed})
}

// SyncReview handles POST /api/review/{date}.
//
//	@Summary		Fetch the day's tracker activity and update the note
//	@Tags			review
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	ReviewResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/review/{date} [post]
func (h *Handler) SyncReview(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	res, err := h.svc.SyncReview(r.Context(), date)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidDate) {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid date"))
			return
		}
		slog.Error("review sync failed", slog.String("date", date), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if h.onReviewSynced != nil {
		h.onReviewSynced(res.Date)
	}
	writeJSON(w, http.StatusOK, ReviewResponse{
		Date:     res.Date,
		Created:  res.Created,
		Rendered: res.Rendered,
		Items:    res.Items,
	})
}

// GetReview handles GET /api/review/{date}.
//
//	@Summary		Get the archived review run for a date
//	@Tags			review
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	ArchivedReviewResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/review/{date} [get]
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	rec, err := h.svc.Review(r.Context(), date)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalidDate):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid date"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		default:
			slog.Error("get review failed", slog.String("date", date), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ArchivedReviewResponse{
		Date:      rec.Date,
		Rendered:  rec.Rendered,
		Items:     rec.Items,
		UpdatedAt: rec.UpdatedAt,
	})
}

// ListReviews handles GET /api/review.
//
//	@Summary		List archived review days, newest first
//	@Tags			review
//	@Produce		json
//	@Param			limit	query		int	false	"Max days"
//	@Success		200		{object}	ReviewDaysResponse
//	@Security		BearerAuth
//	@Router			/review [get]
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	days, err := h.svc.Reviews(r.Context(), limit)
	if err != nil {
		slog.Error("list reviews failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	out := make([]ReviewDay, len(days))
	for i, d := range days {
		out[i] = ReviewDay{Date: d.Date, UpdatedAt: d.UpdatedAt}
	}
	writeJSON(w, http.StatusOK, ReviewDaysResponse{Days: out})
}
