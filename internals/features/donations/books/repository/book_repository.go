package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sharebook_backend/internals/features/donations/books/model"
	userModel "sharebook_backend/internals/features/users/user/model"
	helper "sharebook_backend/internals/helpers"
	"sharebook_backend/internals/helpers/crud"
)

const slugMaxLen = 120

type BookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) FindBook(ctx context.Context, bookID uuid.UUID) (*model.BookModel, error) {
	var b model.BookModel
	if err := r.db.WithContext(ctx).Preload("Donor").Where("book_id = ?", bookID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookRepository) SaveBook(ctx context.Context, b *model.BookModel) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error
}

func (r *BookRepository) FindUser(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	var u userModel.UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListByDonor returns the donor's listings, newest first.
func (r *BookRepository) ListByDonor(ctx context.Context, donorID uuid.UUID, p helper.Paging) ([]model.BookModel, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.BookModel{}).Where("book_user_id = ?", donorID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.BookModel
	err := q.Order("book_created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&rows).Error
	return rows, total, err
}

// SlugFor derives a free slug from the title.
func (r *BookRepository) SlugFor(ctx context.Context, title string) (string, error) {
	base := helper.Slugify(title, slugMaxLen)
	return helper.EnsureUniqueSlug(ctx, r.db, "books", "book_slug", base, slugMaxLen)
}

/* ====================== CRUD STORES ====================== */

func searchScope(db *gorm.DB, q crud.ListQuery) *gorm.DB {
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("(LOWER(book_title) LIKE ? OR LOWER(book_author) LIKE ?)", like, like)
	}
	if author := q.Params["author"]; author != "" {
		db = db.Where("LOWER(book_author) = ?", strings.ToLower(author))
	}
	return db
}

// PublicScope keeps the books open for requests.
func PublicScope(db *gorm.DB, q crud.ListQuery) *gorm.DB {
	db = db.Where("book_approved AND NOT book_hidden AND NOT book_canceled")
	return searchScope(db, q)
}

// AdminScope filters by ?status=waiting_approval|available|donated|canceled.
func AdminScope(db *gorm.DB, q crud.ListQuery) *gorm.DB {
	switch model.BookStatus(q.Params["status"]) {
	case model.BookStatusWaitingApproval:
		db = db.Where("NOT book_approved AND NOT book_canceled AND NOT book_hidden")
	case model.BookStatusAvailable:
		db = db.Where("book_approved AND NOT book_hidden AND NOT book_canceled")
	case model.BookStatusDonated:
		db = db.Where("book_hidden AND NOT book_canceled")
	case model.BookStatusCanceled:
		db = db.Where("book_canceled")
	}
	return searchScope(db, q)
}

func NewPublicStore(db *gorm.DB) *crud.GormStore[model.BookModel] {
	return &crud.GormStore[model.BookModel]{
		DB:       db,
		IDColumn: "book_id",
		Order:    "book_choose_date ASC, book_created_at DESC",
		Preloads: []string{"Donor"},
		Scope:    PublicScope,
	}
}

func NewAllBooksStore(db *gorm.DB) *crud.GormStore[model.BookModel] {
	return &crud.GormStore[model.BookModel]{
		DB:       db,
		IDColumn: "book_id",
		Order:    "book_created_at DESC",
		Preloads: []string{"Donor"},
		Scope:    AdminScope,
	}
}
