package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	bookUserModel "sharebook_backend/internals/features/donations/book_users/model"
	bookModel "sharebook_backend/internals/features/donations/books/model"
	emailLogModel "sharebook_backend/internals/features/notifications/model"
	userModel "sharebook_backend/internals/features/users/user/model"
)

// Constraints the donation workflow relies on under concurrency.
var indexDDL = []string{
	// one request per (book, user)
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_book_users_book_user
		ON book_users (book_user_book_id, book_user_user_id)`,
	// nicknames are unique inside a book
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_book_users_book_nickname
		ON book_users (book_user_book_id, book_user_nickname)`,
	// at most one winner per book
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_book_users_one_donated
		ON book_users (book_user_book_id) WHERE book_user_status = 'donated'`,
	`CREATE INDEX IF NOT EXISTS ix_book_users_book_created
		ON book_users (book_user_book_id, book_user_created_at)`,
	`CREATE INDEX IF NOT EXISTS ix_books_public
		ON books (book_created_at DESC) WHERE book_approved AND NOT book_hidden AND NOT book_canceled`,
	`CREATE INDEX IF NOT EXISTS ix_books_choose_date
		ON books (book_choose_date) WHERE book_approved AND NOT book_hidden AND NOT book_canceled`,
}

// Migrate creates or updates the schema. pgcrypto is needed for gen_random_uuid on older servers.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		log.Printf("⚠️ pgcrypto extension: %v", err)
	}

	if err := db.AutoMigrate(
		&userModel.UserModel{},
		&userModel.AddressModel{},
		&bookModel.BookModel{},
		&bookUserModel.BookUserModel{},
		&emailLogModel.EmailLogModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, ddl := range indexDDL {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("index ddl: %w", err)
		}
	}
	log.Println("✅ Schema migrated.")
	return nil
}
