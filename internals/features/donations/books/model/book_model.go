package model

import (
	"time"

	"github.com/google/uuid"

	userModel "sharebook_backend/internals/features/users/user/model"
)

type BookStatus string

const (
	BookStatusWaitingApproval BookStatus = "waiting_approval"
	BookStatusAvailable       BookStatus = "available"
	BookStatusDonated         BookStatus = "donated"
	BookStatusCanceled        BookStatus = "canceled"
)

type BookModel struct {
	BookID       uuid.UUID `gorm:"column:book_id;type:uuid;default:gen_random_uuid();primaryKey" json:"book_id"`
	BookTitle    string    `gorm:"column:book_title;size:200;not null" json:"book_title"`
	BookAuthor   string    `gorm:"column:book_author;size:200;not null" json:"book_author"`
	BookSlug     string    `gorm:"column:book_slug;size:120;not null;uniqueIndex" json:"book_slug"`
	BookSynopsis *string   `gorm:"column:book_synopsis;type:text" json:"book_synopsis,omitempty"`

	BookApproved       bool       `gorm:"column:book_approved;not null;default:false" json:"book_approved"`
	BookChooseDate     *time.Time `gorm:"column:book_choose_date" json:"book_choose_date,omitempty"`
	BookCanceled       bool       `gorm:"column:book_canceled;not null;default:false" json:"book_canceled"`
	BookHidden         bool       `gorm:"column:book_hidden;not null;default:false" json:"book_hidden"`
	BookTrackingNumber *string    `gorm:"column:book_tracking_number;size:60" json:"book_tracking_number,omitempty"`

	// donor
	BookUserID        uuid.UUID  `gorm:"column:book_user_id;type:uuid;not null;index" json:"book_user_id"`
	BookFacilitatorID *uuid.UUID `gorm:"column:book_facilitator_id;type:uuid;index" json:"book_facilitator_id,omitempty"`

	Donor       *userModel.UserModel `gorm:"foreignKey:BookUserID;references:ID" json:"donor,omitempty"`
	Facilitator *userModel.UserModel `gorm:"foreignKey:BookFacilitatorID;references:ID" json:"facilitator,omitempty"`

	BookCreatedAt time.Time `gorm:"column:book_created_at;autoCreateTime" json:"book_created_at"`
	BookUpdatedAt time.Time `gorm:"column:book_updated_at;autoUpdateTime" json:"book_updated_at"`
}

func (BookModel) TableName() string {
	return "books"
}

// MayChooseWinner is true once the decision date is set and its calendar day is today or earlier.
func (b *BookModel) MayChooseWinner(now time.Time) bool {
	if b.BookChooseDate == nil {
		return false
	}
	choose := dateOnly(b.BookChooseDate.In(now.Location()))
	return !choose.After(dateOnly(now))
}

func (b *BookModel) Status() BookStatus {
	switch {
	case b.BookCanceled:
		return BookStatusCanceled
	case b.BookHidden:
		return BookStatusDonated
	case !b.BookApproved:
		return BookStatusWaitingApproval
	default:
		return BookStatusAvailable
	}
}

// Cancel applies the cancellation flags: unapproved, no decision date, canceled.
func (b *BookModel) Cancel() {
	b.BookApproved = false
	b.BookChooseDate = nil
	b.BookCanceled = true
}

// Approve publishes the book and schedules the decision date days ahead.
func (b *BookModel) Approve(now time.Time, days int) {
	choose := dateOnly(now).AddDate(0, 0, days)
	b.BookApproved = true
	b.BookChooseDate = &choose
}

func (b *BookModel) IsStaffOrDonor(userID uuid.UUID) bool {
	if b.BookUserID == userID {
		return true
	}
	return b.BookFacilitatorID != nil && *b.BookFacilitatorID == userID
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
