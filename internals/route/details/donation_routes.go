package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	bookUserRoutes "sharebook_backend/internals/features/donations/book_users/route"
	"sharebook_backend/internals/features/donations/book_users/service"
	bookRoutes "sharebook_backend/internals/features/donations/books/route"
)

func DonationPublicRoutes(api fiber.Router, db *gorm.DB) {
	bookRoutes.BookPublicRoutes(api, db)
}

func DonationUserRoutes(api fiber.Router, db *gorm.DB, notifier service.Notifier) {
	bookRoutes.BookUserRoutes(api, db)
	bookUserRoutes.BookUserRoutes(api, db, notifier)
}

func DonationAdminRoutes(api fiber.Router, db *gorm.DB, notifier service.Notifier) {
	bookRoutes.BookAdminRoutes(api, db)
	bookUserRoutes.BookUserAdminRoutes(api, db, notifier)
}
