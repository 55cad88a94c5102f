package api

import (
	"time"

	"github.com/sfried/daybook/internal/models"
)

// NoteResponse is the payload for a daily note.
type NoteResponse struct {
	Date    string `json:"date" example:"2023-12-15" validate:"required"`
	Content string `json:"content" example:"# 2023-12-15\n..." validate:"required"`
}

// FormatResponse reports one formatting run over a daily note.
type FormatResponse struct {
	Date    string `json:"date" example:"2023-12-15" validate:"required"`
	Changed bool   `json:"changed" example:"true" validate:"required"`
}

// ReviewResponse reports one review sync run.
type ReviewResponse struct {
	Date     string                        `json:"date" example:"2023-12-15" validate:"required"`
	Created  bool                          `json:"created" example:"false" validate:"required"`
	Rendered string                        `json:"rendered" validate:"required"`
	Items    map[string][]models.Reference `json:"items" validate:"required"`
}

// ArchivedReviewResponse is a previously recorded review run.
type ArchivedReviewResponse struct {
	Date      string                        `json:"date" example:"2023-12-15" validate:"required"`
	Rendered  string                        `json:"rendered" validate:"required"`
	Items     map[string][]models.Reference `json:"items" validate:"required"`
	UpdatedAt time.Time                     `json:"updated_at"`
}

// ReviewDay is one entry in the archived-day listing.
type ReviewDay struct {
	Date      string    `json:"date" example:"2023-12-15" validate:"required"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewDaysResponse wraps the archived-day listing.
type ReviewDaysResponse struct {
	Days []ReviewDay `json:"days" validate:"required"`
}
