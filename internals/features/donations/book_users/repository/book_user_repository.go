// internals/features/donations/book_users/repository/book_user_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sharebook_backend/internals/constants"
	"sharebook_backend/internals/features/donations/book_users/model"
	"sharebook_backend/internals/features/donations/book_users/service"
	bookModel "sharebook_backend/internals/features/donations/books/model"
	userModel "sharebook_backend/internals/features/users/user/model"
)

const pgUniqueViolation = "23505"

// BookUserRepository is the gorm implementation of service.Store.
type BookUserRepository struct {
	db *gorm.DB
}

func NewBookUserRepository(db *gorm.DB) *BookUserRepository {
	return &BookUserRepository{db: db}
}

var _ service.Store = (*BookUserRepository)(nil)

func (r *BookUserRepository) Transaction(ctx context.Context, fn func(tx service.Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BookUserRepository{db: tx})
	})
}

/* ====================== BOOK ====================== */

func (r *BookUserRepository) FindBook(ctx context.Context, bookID uuid.UUID) (*bookModel.BookModel, error) {
	var b bookModel.BookModel
	if err := r.db.WithContext(ctx).Where("book_id = ?", bookID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookUserRepository) LockBook(ctx context.Context, bookID uuid.UUID) (*bookModel.BookModel, error) {
	var b bookModel.BookModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("book_id = ?", bookID).
		First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookUserRepository) SaveBook(ctx context.Context, book *bookModel.BookModel) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(book).Error
}

/* ====================== REQUESTS ====================== */

func (r *BookUserRepository) InsertRequest(ctx context.Context, req *model.BookUserModel) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error)
}

func (r *BookUserRepository) scoped(ctx context.Context, f service.RequestFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.BookUserModel{})
	if f.BookID != nil {
		q = q.Where("book_user_book_id = ?", *f.BookID)
	}
	if f.UserID != nil {
		q = q.Where("book_user_user_id = ?", *f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("book_user_status IN ?", f.Statuses)
	}
	return q
}

func (r *BookUserRepository) FindRequests(ctx context.Context, f service.RequestFilter) ([]model.BookUserModel, error) {
	q := r.scoped(ctx, f)
	switch {
	case f.WithAddress:
		q = q.Preload("User").Preload("User.Address")
	case f.WithUser:
		q = q.Preload("User")
	}
	if f.WithBook {
		q = q.Preload("Book")
	}
	if f.NewestFirst {
		q = q.Order("book_user_created_at DESC")
	} else {
		q = q.Order("book_user_created_at ASC")
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []model.BookUserModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookUserRepository) CountRequests(ctx context.Context, f service.RequestFilter) (int64, error) {
	var n int64
	err := r.scoped(ctx, f).Count(&n).Error
	return n, err
}

func (r *BookUserRepository) TransitionRequest(ctx context.Context, bookID, userID uuid.UUID, from, to model.Status, note *string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.BookUserModel{}).
		Where("book_user_book_id = ? AND book_user_user_id = ? AND book_user_status = ?", bookID, userID, from).
		Updates(map[string]any{
			"book_user_status":     to,
			"book_user_note":       note,
			"book_user_updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *BookUserRepository) DenyWaiting(ctx context.Context, bookID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.BookUserModel{}).
		Where("book_user_book_id = ? AND book_user_status = ?", bookID, model.StatusWaitingAction).
		Updates(map[string]any{
			"book_user_status":     model.StatusDenied,
			"book_user_updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

/* ====================== USERS ====================== */

func (r *BookUserRepository) FindUser(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	var u userModel.UserModel
	if err := r.db.WithContext(ctx).Preload("Address").Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *BookUserRepository) ListAdmins(ctx context.Context) ([]userModel.UserModel, error) {
	var out []userModel.UserModel
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", constants.RoleAdmin, true).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

type userCount struct {
	UserID uuid.UUID
	N      int64
}

// DonationHistory runs three grouped counts over the given users.
func (r *BookUserRepository) DonationHistory(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]service.DonationHistory, error) {
	out := make(map[uuid.UUID]service.DonationHistory, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
		out[id] = service.DonationHistory{}
	}
	arr := pq.Array(ids)

	queries := []struct {
		sql   string
		apply func(h *service.DonationHistory, n int64)
	}{
		{
			sql: `SELECT book_user_user_id AS user_id, COUNT(*) AS n FROM book_users
				WHERE book_user_user_id = ANY(?::uuid[]) GROUP BY book_user_user_id`,
			apply: func(h *service.DonationHistory, n int64) { h.RequestsMade = n },
		},
		{
			sql: `SELECT book_user_user_id AS user_id, COUNT(*) AS n FROM book_users
				WHERE book_user_user_id = ANY(?::uuid[]) AND book_user_status = 'donated' GROUP BY book_user_user_id`,
			apply: func(h *service.DonationHistory, n int64) { h.BooksReceived = n },
		},
		{
			sql: `SELECT book_user_id AS user_id, COUNT(*) AS n FROM books
				WHERE book_user_id = ANY(?::uuid[]) AND book_hidden AND NOT book_canceled GROUP BY book_user_id`,
			apply: func(h *service.DonationHistory, n int64) { h.BooksDonated = n },
		},
	}

	for _, q := range queries {
		var rows []userCount
		if err := r.db.WithContext(ctx).Raw(q.sql, arr).Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("donation history: %w", err)
		}
		for _, row := range rows {
			h := out[row.UserID]
			q.apply(&h, row.N)
			out[row.UserID] = h
		}
	}
	return out, nil
}

// translate maps unique violations to gorm.ErrDuplicatedKey, keeping the constraint name.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", gorm.ErrDuplicatedKey, pgErr.ConstraintName)
	}
	return err
}
