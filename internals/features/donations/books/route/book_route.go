package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sharebook_backend/internals/configs"
	"sharebook_backend/internals/features/donations/books/controller"
	"sharebook_backend/internals/features/donations/books/repository"
	"sharebook_backend/internals/features/donations/books/service"
)

func newController(db *gorm.DB) *controller.BookController {
	repo := repository.NewBookRepository(db)
	svc := service.NewBookService(repo, configs.ChooseDateDays)
	return controller.NewBookController(repo, repository.NewPublicStore(db), repository.NewAllBooksStore(db), svc)
}

// BookPublicRoutes: /api/public/books
func BookPublicRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := newController(db)
	books := api.Group("/books")
	books.Get("/", ctrl.Public.List)
	books.Get("/:id", ctrl.Public.Detail)
}

// BookUserRoutes: /api/u/books
func BookUserRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := newController(db)
	books := api.Group("/books")
	books.Get("/mine", ctrl.Mine)
	books.Post("/", ctrl.Create.Create)
	books.Put("/:id", ctrl.Edit.Update)
	books.Put("/:id/choose-date", ctrl.Reschedule)
}

// BookAdminRoutes: /api/a/books, behind the admin guard
func BookAdminRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := newController(db)
	books := api.Group("/books")
	books.Get("/", ctrl.Admin.List)
	books.Get("/:id", ctrl.Admin.Detail)
	books.Post("/:id/approve", ctrl.Approve)
	books.Put("/:id/choose-date", ctrl.Reschedule)
	books.Post("/:id/facilitator", ctrl.AssignFacilitator)
}
