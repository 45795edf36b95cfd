package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	bookModel "sharebook_backend/internals/features/donations/books/model"
	userModel "sharebook_backend/internals/features/users/user/model"
)

type Status string

const (
	StatusWaitingAction Status = "waiting_action"
	StatusDonated       Status = "donated"
	StatusDenied        Status = "denied"
)

// BookUserModel is one user's request for one book.
type BookUserModel struct {
	BookUserID       uuid.UUID `gorm:"column:book_user_id;type:uuid;default:gen_random_uuid();primaryKey" json:"book_user_id"`
	BookUserBookID   uuid.UUID `gorm:"column:book_user_book_id;type:uuid;not null;index" json:"book_user_book_id"`
	BookUserUserID   uuid.UUID `gorm:"column:book_user_user_id;type:uuid;not null;index" json:"book_user_user_id"`
	BookUserStatus   Status    `gorm:"column:book_user_status;type:varchar(20);not null;default:'waiting_action'" json:"book_user_status"`
	BookUserReason   string    `gorm:"column:book_user_reason;type:text" json:"book_user_reason"`
	BookUserNickName string    `gorm:"column:book_user_nickname;size:50;not null" json:"book_user_nickname"`
	BookUserNote     *string   `gorm:"column:book_user_note;type:text" json:"book_user_note,omitempty"`

	User *userModel.UserModel `gorm:"foreignKey:BookUserUserID;references:ID" json:"user,omitempty"`
	Book *bookModel.BookModel `gorm:"foreignKey:BookUserBookID;references:BookID" json:"book,omitempty"`

	BookUserCreatedAt time.Time `gorm:"column:book_user_created_at;autoCreateTime" json:"book_user_created_at"`
	BookUserUpdatedAt time.Time `gorm:"column:book_user_updated_at;autoUpdateTime" json:"book_user_updated_at"`
}

func (BookUserModel) TableName() string {
	return "book_users"
}

// NickName is the public alias shown to the donor.
func NickName(position int64) string {
	return fmt.Sprintf("Interessado %d", position)
}
