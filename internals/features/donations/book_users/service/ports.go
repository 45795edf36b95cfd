package service

import (
	"context"

	"github.com/google/uuid"

	"sharebook_backend/internals/features/donations/book_users/model"
	bookModel "sharebook_backend/internals/features/donations/books/model"
	userModel "sharebook_backend/internals/features/users/user/model"
)

// RequestFilter selects book requests. Zero fields are ignored.
type RequestFilter struct {
	BookID   *uuid.UUID
	UserID   *uuid.UUID
	Statuses []model.Status

	WithUser    bool // preload requester
	WithAddress bool // preload requester address, implies WithUser
	WithBook    bool

	NewestFirst bool // default is oldest first
	Offset      int
	Limit       int
}

type DonationHistory struct {
	RequestsMade  int64 `json:"requests_made"`
	BooksReceived int64 `json:"books_received"`
	BooksDonated  int64 `json:"books_donated"`
}

// Store is the persistence port of the workflow.
//
// Lookups of missing rows return gorm.ErrRecordNotFound, unique violations
// return an error wrapping gorm.ErrDuplicatedKey.
type Store interface {
	// Transaction runs fn against a store bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	FindBook(ctx context.Context, bookID uuid.UUID) (*bookModel.BookModel, error)
	// LockBook reads the book and holds a row lock until the transaction ends.
	LockBook(ctx context.Context, bookID uuid.UUID) (*bookModel.BookModel, error)
	SaveBook(ctx context.Context, book *bookModel.BookModel) error

	InsertRequest(ctx context.Context, req *model.BookUserModel) error
	FindRequests(ctx context.Context, f RequestFilter) ([]model.BookUserModel, error)
	CountRequests(ctx context.Context, f RequestFilter) (int64, error)
	// TransitionRequest moves (book, user) from one status to another only if it is
	// currently in from. It returns the number of rows changed (0 or 1).
	TransitionRequest(ctx context.Context, bookID, userID uuid.UUID, from, to model.Status, note *string) (int64, error)
	// DenyWaiting moves every waiting request of the book to denied.
	DenyWaiting(ctx context.Context, bookID uuid.UUID) (int64, error)

	FindUser(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error)
	ListAdmins(ctx context.Context) ([]userModel.UserModel, error)
	DonationHistory(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]DonationHistory, error)
}

// Notices carry everything a message needs; notifiers do not read the database.
type RequestNotice struct {
	Book       bookModel.BookModel
	Request    model.BookUserModel
	Requester  userModel.UserModel
	Donor      userModel.UserModel
	Interested []userModel.UserModel // other users still waiting on the book
}

type WinnerNotice struct {
	Book        bookModel.BookModel
	Winner      model.BookUserModel // User preloaded
	Donor       userModel.UserModel
	Facilitator *userModel.UserModel
	Losers      []model.BookUserModel // User preloaded
}

type CancelNotice struct {
	Book       bookModel.BookModel
	Admins     []userModel.UserModel
	Requesters []userModel.UserModel
}

type TrackingNotice struct {
	Book           bookModel.BookModel
	Winner         userModel.UserModel
	TrackingNumber string
}

// Notifier is the outbound side of the workflow, one method per lifecycle event.
//
// Every method except BookCanceledToAdmins only hands messages to a queue and
// returns; BookCanceledToAdmins returns after delivery was attempted.
type Notifier interface {
	BookRequested(ctx context.Context, n RequestNotice) error
	BookRequestedToDonor(ctx context.Context, n RequestNotice) error
	BookRequestedToInterested(ctx context.Context, n RequestNotice) error

	WinnerChosen(ctx context.Context, n WinnerNotice) error
	LosersDeclined(ctx context.Context, n WinnerNotice) error
	WinnerChosenToDonor(ctx context.Context, n WinnerNotice) error

	BookCanceledToAdmins(ctx context.Context, n CancelNotice) error
	BookCanceledToRequesters(ctx context.Context, n CancelNotice) error

	TrackingNumberInformed(ctx context.Context, n TrackingNotice) error
}
