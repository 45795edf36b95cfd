package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/logger"
	"github.com/google/uuid"

	"sharebook_backend/internals/features/donations/books/dto"
	"sharebook_backend/internals/features/donations/books/model"
	"sharebook_backend/internals/features/donations/books/repository"
	"sharebook_backend/internals/features/donations/books/service"
	helper "sharebook_backend/internals/helpers"
	"sharebook_backend/internals/helpers/crud"
)

type BookController struct {
	repo *repository.BookRepository
	svc  *service.BookService

	Public *crud.Resource[model.BookModel, crud.NoInput]
	Admin  *crud.Resource[model.BookModel, crud.NoInput]
	Create *crud.Resource[model.BookModel, dto.CreateBookRequest]
	Edit   *crud.Resource[model.BookModel, dto.UpdateBookRequest]
}

func NewBookController(repo *repository.BookRepository, public, all crud.Store[model.BookModel], svc *service.BookService) *BookController {
	ctrl := &BookController{repo: repo, svc: svc}

	present := func(m *model.BookModel) any { return dto.FromModel(m) }

	ctrl.Public = &crud.Resource[model.BookModel, crud.NoInput]{
		Name:           "book",
		Store:          public,
		DefaultPerPage: 20,
		MaxPerPage:     100,
		Params:         []string{"author"},
		Present:        func(m *model.BookModel) any { return dto.FromModelPublic(m) },
	}
	ctrl.Admin = &crud.Resource[model.BookModel, crud.NoInput]{
		Name:           "book",
		Store:          all,
		DefaultPerPage: 20,
		MaxPerPage:     100,
		Params:         []string{"status", "author"},
		Present:        present,
	}
	ctrl.Create = &crud.Resource[model.BookModel, dto.CreateBookRequest]{
		Name:    "book",
		Store:   all,
		Present: present,
		Build:   ctrl.buildListing,
	}
	ctrl.Edit = &crud.Resource[model.BookModel, dto.UpdateBookRequest]{
		Name:    "book",
		Store:   all,
		Present: present,
		Apply: func(c *fiber.Ctx, in *dto.UpdateBookRequest, m *model.BookModel) error {
			userID, err := helper.GetUserIDFromToken(c)
			if err != nil {
				return err
			}
			return service.ApplyEdit(m, in, userID, helper.IsAdmin(c))
		},
	}
	return ctrl
}

func (ctrl *BookController) buildListing(c *fiber.Ctx, in *dto.CreateBookRequest) (*model.BookModel, error) {
	donorID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return nil, err
	}
	slug, err := ctrl.repo.SlugFor(c.UserContext(), in.BookTitle)
	if err != nil {
		return nil, err
	}
	b := service.NewListing(in, donorID, slug)
	logger.Infof("[DONATION] new listing %q by %s", slug, donorID)
	return b, nil
}

// GET /api/u/books/mine
func (ctrl *BookController) Mine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctrl.repo.ListByDonor(c.UserContext(), userID, p)
	if err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "my books", dto.FromModels(rows), &pg)
}

// POST /api/a/books/:id/approve
func (ctrl *BookController) Approve(c *fiber.Ctx) error {
	bookID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	b, err := ctrl.svc.Approve(c.UserContext(), bookID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "book approved", dto.FromModel(b))
}

// PUT /api/a/books/:id/choose-date and /api/u/books/:id/choose-date
func (ctrl *BookController) Reschedule(c *fiber.Ctx) error {
	bookID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var body dto.ChooseDateRequest
	if ok, err := helper.BindAndValidate(c, &body); !ok {
		return err
	}
	day, err := time.Parse("2006-01-02", body.BookChooseDate)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "book_choose_date must be YYYY-MM-DD")
	}
	b, err := ctrl.svc.Reschedule(c.UserContext(), bookID, userID, helper.IsAdmin(c), day)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "choose date updated", dto.FromModel(b))
}

// POST /api/a/books/:id/facilitator
func (ctrl *BookController) AssignFacilitator(c *fiber.Ctx) error {
	bookID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	var body dto.AssignFacilitatorRequest
	if ok, err := helper.BindAndValidate(c, &body); !ok {
		return err
	}
	b, err := ctrl.svc.AssignFacilitator(c.UserContext(), bookID, uuid.MustParse(body.FacilitatorID))
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "facilitator assigned", dto.FromModel(b))
}
