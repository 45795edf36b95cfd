package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authRoutes "sharebook_backend/internals/features/users/auth/route"
	userRoutes "sharebook_backend/internals/features/users/user/route"
)

func AuthRoutes(app *fiber.App, db *gorm.DB) {
	authRoutes.AuthRoutes(app, db)
}

func UserRoutes(api fiber.Router, db *gorm.DB) {
	authRoutes.MeRoutes(api, db)
}

func UserAdminRoutes(api fiber.Router, db *gorm.DB) {
	userRoutes.UserAdminRoutes(api, db)
}
