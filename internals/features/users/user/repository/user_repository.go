package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sharebook_backend/internals/features/users/user/model"
	"sharebook_backend/internals/helpers/crud"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.UserModel, error) {
	var u model.UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.UserModel, error) {
	var u model.UserModel
	if err := r.db.WithContext(ctx).Preload("Address").First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts u; a taken e-mail comes back as apperror.Conflict.
func (r *UserRepository) Create(ctx context.Context, u *model.UserModel) error {
	return crud.UniqueViolation(r.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error)
}

// CreateIfAbsent inserts u unless the e-mail already exists and reports whether a row was added.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, u *model.UserModel) (bool, error) {
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(u)
	return res.RowsAffected > 0, res.Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res := r.db.WithContext(ctx).Model(&model.UserModel{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateProfile saves the editable profile columns and upserts the address.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *model.UserModel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(u).
			Select("name", "phone", "linkedin", "allow_sending_email").
			Updates(u).Error; err != nil {
			return err
		}
		if u.Address == nil {
			return nil
		}
		u.Address.AddressUserID = u.ID
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address_user_id"}},
			UpdateAll: true,
		}).Create(u.Address).Error
	})
}

/* ====================== ADMIN LISTING ====================== */

// AdminScope filters by ?q (name or e-mail), ?role and ?active.
func AdminScope(db *gorm.DB, q crud.ListQuery) *gorm.DB {
	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if role := q.Params["role"]; role != "" {
		db = db.Where("role = ?", role)
	}
	switch q.Params["active"] {
	case "true":
		db = db.Where("is_active")
	case "false":
		db = db.Where("NOT is_active")
	}
	return db
}

func NewAdminStore(db *gorm.DB) *crud.GormStore[model.UserModel] {
	return &crud.GormStore[model.UserModel]{
		DB:       db,
		Order:    "created_at DESC",
		Preloads: []string{"Address"},
		Scope:    AdminScope,
	}
}
