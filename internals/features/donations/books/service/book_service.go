package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"sharebook_backend/internals/constants"
	"sharebook_backend/internals/features/donations/books/dto"
	"sharebook_backend/internals/features/donations/books/model"
	userModel "sharebook_backend/internals/features/users/user/model"
	"sharebook_backend/internals/helpers/apperror"
	"sharebook_backend/internals/helpers/dbtime"
)

type Store interface {
	FindBook(ctx context.Context, bookID uuid.UUID) (*model.BookModel, error)
	SaveBook(ctx context.Context, book *model.BookModel) error
	FindUser(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error)
}

// BookService holds the catalogue rules around a listing's lifecycle.
type BookService struct {
	store      Store
	chooseDays int
	now        func() time.Time
}

func NewBookService(store Store, chooseDays int) *BookService {
	return &BookService{store: store, chooseDays: chooseDays, now: dbtime.Now}
}

func (s *BookService) find(ctx context.Context, id uuid.UUID) (*model.BookModel, error) {
	b, err := s.store.FindBook(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("book %s not found", id)
	}
	return b, err
}

// Approve publishes a listing and sets the decision date chooseDays ahead.
func (s *BookService) Approve(ctx context.Context, bookID uuid.UUID) (*model.BookModel, error) {
	b, err := s.find(ctx, bookID)
	if err != nil {
		return nil, err
	}
	switch {
	case b.BookCanceled:
		return nil, apperror.DomainInvariant("book %s was canceled", bookID)
	case b.BookApproved:
		return nil, apperror.Conflict("book %s is already approved", bookID)
	}
	b.Approve(s.now(), s.chooseDays)
	if err := s.store.SaveBook(ctx, b); err != nil {
		return nil, err
	}
	logger.Infof("[DONATION] book %s approved, choose date %s", b.BookID, b.BookChooseDate.Format("2006-01-02"))
	return b, nil
}

// Reschedule moves the decision date of an open donation. Donor or admin only.
func (s *BookService) Reschedule(ctx context.Context, bookID, callerID uuid.UUID, isAdmin bool, day time.Time) (*model.BookModel, error) {
	b, err := s.find(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && b.BookUserID != callerID {
		return nil, apperror.Forbidden("only the donor or an administrator may reschedule")
	}
	if b.Status() != model.BookStatusAvailable {
		return nil, apperror.DomainInvariant("book %s is %s", bookID, b.Status())
	}
	now := s.now()
	y, m, d := day.Date()
	choose := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if choose.Before(dbtime.StartOfDay(now)) {
		return nil, apperror.BadRequest("choose date must be today or later")
	}
	b.BookChooseDate = &choose
	if err := s.store.SaveBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// AssignFacilitator sets the staff member who follows the donation.
func (s *BookService) AssignFacilitator(ctx context.Context, bookID, userID uuid.UUID) (*model.BookModel, error) {
	b, err := s.find(ctx, bookID)
	if err != nil {
		return nil, err
	}
	u, err := s.store.FindUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.BadRequest("user %s not found", userID)
	}
	if err != nil {
		return nil, err
	}
	if u.Role != constants.RoleFacilitator && u.Role != constants.RoleAdmin {
		return nil, apperror.BadRequest("user %s is not staff", userID)
	}
	b.BookFacilitatorID = &u.ID
	if err := s.store.SaveBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ApplyEdit changes title, author and synopsis while the donation is still open.
func ApplyEdit(b *model.BookModel, in *dto.UpdateBookRequest, callerID uuid.UUID, isAdmin bool) error {
	if !isAdmin && b.BookUserID != callerID {
		return apperror.Forbidden("only the donor or an administrator may edit this book")
	}
	if b.BookHidden || b.BookCanceled {
		return apperror.DomainInvariant("book %s is %s and can no longer be edited", b.BookID, b.Status())
	}
	if v := strings.TrimSpace(in.BookTitle); v != "" {
		b.BookTitle = v
	}
	if v := strings.TrimSpace(in.BookAuthor); v != "" {
		b.BookAuthor = v
	}
	if in.BookSynopsis != nil {
		b.BookSynopsis = in.BookSynopsis
	}
	return nil
}

// NewListing builds a listing waiting for approval. The slug is set by the caller.
func NewListing(in *dto.CreateBookRequest, donorID uuid.UUID, slug string) *model.BookModel {
	return &model.BookModel{
		BookID:       uuid.New(),
		BookTitle:    strings.TrimSpace(in.BookTitle),
		BookAuthor:   strings.TrimSpace(in.BookAuthor),
		BookSlug:     slug,
		BookSynopsis: in.BookSynopsis,
		BookUserID:   donorID,
	}
}
