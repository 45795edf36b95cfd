package dto

import (
	"time"

	"github.com/google/uuid"

	"sharebook_backend/internals/features/donations/book_users/model"
	bookModel "sharebook_backend/internals/features/donations/books/model"
)

type RequestBookRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type SelectWinnerRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Note   string `json:"note" validate:"max=2000"`
}

type TrackingNumberRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required,max=60"`
}

// MyRequestResponse is one of the caller's own requests.
type MyRequestResponse struct {
	BookUserID       uuid.UUID    `json:"book_user_id"`
	BookUserStatus   model.Status `json:"book_user_status"`
	BookUserNickName string       `json:"book_user_nickname"`
	BookUserReason   string       `json:"book_user_reason"`
	BookUserCreated  time.Time    `json:"book_user_created_at"`

	BookID             uuid.UUID            `json:"book_id"`
	BookTitle          string               `json:"book_title,omitempty"`
	BookAuthor         string               `json:"book_author,omitempty"`
	BookSlug           string               `json:"book_slug,omitempty"`
	BookStatus         bookModel.BookStatus `json:"book_status,omitempty"`
	BookTrackingNumber *string              `json:"book_tracking_number,omitempty"`
}

func FromMyRequest(r model.BookUserModel) MyRequestResponse {
	out := MyRequestResponse{
		BookUserID:       r.BookUserID,
		BookUserStatus:   r.BookUserStatus,
		BookUserNickName: r.BookUserNickName,
		BookUserReason:   r.BookUserReason,
		BookUserCreated:  r.BookUserCreatedAt,
		BookID:           r.BookUserBookID,
	}
	if b := r.Book; b != nil {
		out.BookTitle = b.BookTitle
		out.BookAuthor = b.BookAuthor
		out.BookSlug = b.BookSlug
		out.BookStatus = b.Status()
		// only the winner sees where the parcel is
		if r.BookUserStatus == model.StatusDonated {
			out.BookTrackingNumber = b.BookTrackingNumber
		}
	}
	return out
}

func FromMyRequests(rows []model.BookUserModel) []MyRequestResponse {
	out := make([]MyRequestResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromMyRequest(r))
	}
	return out
}
