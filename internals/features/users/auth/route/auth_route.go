package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sharebook_backend/internals/configs"
	"sharebook_backend/internals/features/users/auth/controller"
	"sharebook_backend/internals/features/users/auth/service"
	"sharebook_backend/internals/features/users/user/repository"
	rateLimiter "sharebook_backend/internals/middlewares"
)

func NewAuthService(db *gorm.DB) *service.AuthService {
	return service.NewAuthService(repository.NewUserRepository(db), configs.JWTSecret, configs.JWTTTL)
}

// AuthRoutes mounts /api/auth, which needs no token.
func AuthRoutes(app *fiber.App, db *gorm.DB) {
	ctrl := controller.NewAuthController(NewAuthService(db))

	auth := app.Group("/api/auth")
	auth.Post("/login", rateLimiter.LoginRateLimiter(), ctrl.Login)
	auth.Post("/register", rateLimiter.RegisterRateLimiter(), ctrl.Register)
	auth.Post("/logout", ctrl.Logout)
}

// MeRoutes mounts the caller's own profile under an authenticated group.
func MeRoutes(r fiber.Router, db *gorm.DB) {
	ctrl := controller.NewAuthController(NewAuthService(db))

	r.Get("/me", ctrl.Me)
	r.Put("/me", ctrl.UpdateMe)
	r.Put("/me/password", ctrl.ChangePassword)
}
