package dto

import (
	"time"

	"github.com/google/uuid"

	"sharebook_backend/internals/features/donations/books/model"
)

type CreateBookRequest struct {
	BookTitle    string  `json:"book_title" validate:"required,max=200"`
	BookAuthor   string  `json:"book_author" validate:"required,max=200"`
	BookSynopsis *string `json:"book_synopsis" validate:"omitempty,max=4000"`
}

// UpdateBookRequest: empty fields are left untouched.
type UpdateBookRequest struct {
	BookTitle    string  `json:"book_title" validate:"omitempty,max=200"`
	BookAuthor   string  `json:"book_author" validate:"omitempty,max=200"`
	BookSynopsis *string `json:"book_synopsis" validate:"omitempty,max=4000"`
}

type ChooseDateRequest struct {
	BookChooseDate string `json:"book_choose_date" validate:"required,datetime=2006-01-02"`
}

type AssignFacilitatorRequest struct {
	FacilitatorID string `json:"facilitator_id" validate:"required,uuid"`
}

type BookResponse struct {
	BookID             uuid.UUID        `json:"book_id"`
	BookTitle          string           `json:"book_title"`
	BookAuthor         string           `json:"book_author"`
	BookSlug           string           `json:"book_slug"`
	BookSynopsis       *string          `json:"book_synopsis,omitempty"`
	BookStatus         model.BookStatus `json:"book_status"`
	BookChooseDate     *time.Time       `json:"book_choose_date,omitempty"`
	BookTrackingNumber *string          `json:"book_tracking_number,omitempty"`
	BookUserID         uuid.UUID        `json:"book_user_id"`
	BookDonorName      string           `json:"book_donor_name,omitempty"`
	BookFacilitatorID  *uuid.UUID       `json:"book_facilitator_id,omitempty"`
	BookCreatedAt      time.Time        `json:"book_created_at"`
}

func FromModel(m *model.BookModel) BookResponse {
	r := BookResponse{
		BookID:             m.BookID,
		BookTitle:          m.BookTitle,
		BookAuthor:         m.BookAuthor,
		BookSlug:           m.BookSlug,
		BookSynopsis:       m.BookSynopsis,
		BookStatus:         m.Status(),
		BookChooseDate:     m.BookChooseDate,
		BookTrackingNumber: m.BookTrackingNumber,
		BookUserID:         m.BookUserID,
		BookFacilitatorID:  m.BookFacilitatorID,
		BookCreatedAt:      m.BookCreatedAt,
	}
	if m.Donor != nil {
		r.BookDonorName = m.Donor.Name
	}
	return r
}

// FromModelPublic hides the tracking number, which only the parties of the donation see.
func FromModelPublic(m *model.BookModel) BookResponse {
	r := FromModel(m)
	r.BookTrackingNumber = nil
	return r
}

func FromModels(rows []model.BookModel) []BookResponse {
	out := make([]BookResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
