package crud

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sharebook_backend/internals/helpers/apperror"
)

// GormStore is a Store over one table. Scope narrows every read, so rows
// outside it are not found by Get either.
type GormStore[M any] struct {
	DB       *gorm.DB
	IDColumn string
	Order    string
	Preloads []string
	Scope    func(db *gorm.DB, q ListQuery) *gorm.DB
}

func (s *GormStore[M]) base(ctx context.Context, q ListQuery) *gorm.DB {
	db := s.DB.WithContext(ctx).Model(new(M))
	if s.Scope != nil {
		db = s.Scope(db, q)
	}
	return db
}

func (s *GormStore[M]) withPreloads(db *gorm.DB) *gorm.DB {
	for _, p := range s.Preloads {
		db = db.Preload(p)
	}
	return db
}

func (s *GormStore[M]) List(ctx context.Context, q ListQuery) ([]M, int64, error) {
	var total int64
	if err := s.base(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db := s.withPreloads(s.base(ctx, q))
	if s.Order != "" {
		db = db.Order(s.Order)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	var rows []M
	if err := db.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *GormStore[M]) Get(ctx context.Context, id uuid.UUID) (*M, error) {
	var m M
	err := s.withPreloads(s.base(ctx, ListQuery{})).
		Where(clause.Eq{Column: clause.Column{Name: s.idColumn()}, Value: id}).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore[M]) Create(ctx context.Context, m *M) error {
	return UniqueViolation(s.DB.WithContext(ctx).Omit(clause.Associations).Create(m).Error)
}

func (s *GormStore[M]) Save(ctx context.Context, m *M) error {
	return UniqueViolation(s.DB.WithContext(ctx).Omit(clause.Associations).Save(m).Error)
}

// UniqueViolation turns postgres unique violations (23505) into apperror.Conflict.
func UniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperror.Wrap(apperror.KindConflict, err, "already exists: "+pgErr.ConstraintName)
	}
	return err
}

func (s *GormStore[M]) idColumn() string {
	if s.IDColumn == "" {
		return "id"
	}
	return s.IDColumn
}
