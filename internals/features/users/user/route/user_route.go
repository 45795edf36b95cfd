package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sharebook_backend/internals/features/users/user/controller"
	"sharebook_backend/internals/features/users/user/repository"
)

// UserAdminRoutes expects r to be guarded for admins already.
func UserAdminRoutes(r fiber.Router, db *gorm.DB) {
	controller.NewAdminUsers(repository.NewAdminStore(db)).Mount(r.Group("/users"))
}
