package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sharebook_backend/internals/features/donations/book_users/controller"
	"sharebook_backend/internals/features/donations/book_users/repository"
	"sharebook_backend/internals/features/donations/book_users/service"
	rateLimiter "sharebook_backend/internals/middlewares"
)

func newController(db *gorm.DB, notifier service.Notifier) *controller.BookUserController {
	svc := service.NewBookUserService(repository.NewBookUserRepository(db), notifier)
	return controller.NewBookUserController(svc)
}

// BookUserRoutes mounts the donation workflow for logged-in users.
func BookUserRoutes(r fiber.Router, db *gorm.DB, notifier service.Notifier) {
	ctrl := newController(db, notifier)

	books := r.Group("/books/:id")
	books.Post("/requests", rateLimiter.BookRequestRateLimiter(), ctrl.RequestBook)
	books.Get("/requests", ctrl.ListRequests)
	books.Get("/grantees", ctrl.ListGrantees)
	books.Post("/winner", ctrl.SelectWinner)
	books.Post("/cancel", ctrl.CancelBook)
	books.Post("/tracking-number", ctrl.InformTrackingNumber)

	r.Get("/requests/mine", ctrl.MyRequests)
}

// BookUserAdminRoutes expects r to be guarded for admins already.
func BookUserAdminRoutes(r fiber.Router, db *gorm.DB, notifier service.Notifier) {
	ctrl := newController(db, notifier)
	r.Post("/books/:id/deny-waiting", ctrl.DenyWaiting)
}
