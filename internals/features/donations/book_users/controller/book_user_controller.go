package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sharebook_backend/internals/constants"
	"sharebook_backend/internals/features/donations/book_users/dto"
	"sharebook_backend/internals/features/donations/book_users/model"
	"sharebook_backend/internals/features/donations/book_users/service"
	bookModel "sharebook_backend/internals/features/donations/books/model"
	userModel "sharebook_backend/internals/features/users/user/model"
	helper "sharebook_backend/internals/helpers"
	"sharebook_backend/internals/helpers/apperror"
)

// Workflow is what the controller needs from service.BookUserService.
type Workflow interface {
	Book(ctx context.Context, bookID uuid.UUID) (*bookModel.BookModel, error)
	RequestBook(ctx context.Context, bookID, requesterID uuid.UUID, reason string) (*model.BookUserModel, error)
	SelectWinner(ctx context.Context, bookID, winnerUserID uuid.UUID, note string) (*model.BookUserModel, error)
	CancelBook(ctx context.Context, bookID uuid.UUID, isAdmin bool) (*service.CancelResult, error)
	DenyWaitingRequests(ctx context.Context, bookID uuid.UUID) (int64, error)
	InformTrackingNumber(ctx context.Context, bookID uuid.UUID, trackingNumber string) (*bookModel.BookModel, error)
	ListGrantees(ctx context.Context, bookID uuid.UUID) ([]userModel.UserModel, error)
	ListRequests(ctx context.Context, bookID uuid.UUID) ([]service.RequestView, error)
	ListRequestsByUser(ctx context.Context, userID uuid.UUID, p helper.Paging) ([]model.BookUserModel, int64, error)
}

type BookUserController struct {
	svc Workflow
}

func NewBookUserController(svc Workflow) *BookUserController {
	return &BookUserController{svc: svc}
}

type caller struct {
	id      uuid.UUID
	isAdmin bool
}

// ctxBook resolves :id, the caller and the book in one go.
func (ctrl *BookUserController) ctxBook(c *fiber.Ctx) (caller, *bookModel.BookModel, error) {
	bookID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return caller{}, nil, err
	}
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return caller{}, nil, err
	}
	b, err := ctrl.svc.Book(c.UserContext(), bookID)
	if err != nil {
		return caller{}, nil, err
	}
	return caller{id: userID, isAdmin: helper.IsAdmin(c)}, b, nil
}

func staffOrDonor(who caller, b *bookModel.BookModel, feature string) error {
	if who.isAdmin || b.IsStaffOrDonor(who.id) {
		return nil
	}
	return apperror.Forbidden("%s", constants.RoleErrorOwnerOrStaff(feature))
}

func donorOrAdmin(who caller, b *bookModel.BookModel, feature string) error {
	if who.isAdmin || b.BookUserID == who.id {
		return nil
	}
	return apperror.Forbidden("%s", constants.RoleErrorDonorOrAdmin(feature))
}

// POST /api/u/books/:id/requests
func (ctrl *BookUserController) RequestBook(c *fiber.Ctx) error {
	who, b, err := ctrl.ctxBook(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	if b.BookUserID == who.id {
		return helper.JsonError(c, fiber.StatusBadRequest, "you cannot request your own book")
	}
	if b.Status() != bookModel.BookStatusAvailable {
		return helper.FromError(c, apperror.DomainInvariant("book is %s and not open for requests", b.Status()))
	}
	var body dto.RequestBookRequest
	if ok, err := helper.BindAndValidate(c, &body); !ok {
		return err
	}
	req, err := ctrl.svc.RequestBook(c.UserContext(), b.BookID, who.id, body.Reason)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "book requested", req)
}

// GET /api/u/books/:id/requests
func (ctrl *BookUserController) ListRequests(c *fiber.Ctx) error {
	who, b, err := ctrl.ctxBook(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := staffOrDonor(who, b, "the requests of this book"); err != nil {
		return helper.FromError(c, err)
	}
	rows, err := ctrl.svc.ListRequests(c.UserContext(), b.BookID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "book requests", rows, nil)
}

// GET /api/u/books/:id/grantees
func (ctrl *BookUserController) ListGrantees(c *fiber.Ctx) error {
	who, b, err := ctrl.ctxBook(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := staffOrDonor(who, b, "the grantees of this book"); err != nil {
		return helper.FromError(c, err)
	}
	users, err := ctrl.svc.ListGrantees(c.UserContext(), b.BookID)
	if err != nil {
		return helper.FromError(c, err)
	}
	for i := range users {
		users[i].CleanupPublic()
	}
	return helper.JsonList(c, "grantees", users, nil)
}

// POST /api/u/books/:id/winner
func (ctrl *BookUserController) SelectWinner(c *fiber.Ctx) error {
	who, b, err := ctrl.ctxBook(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := donorOrAdmin(who, b, "winner selection"); err != nil {
		return helper.FromError(c, err)
	}
	var body dto.SelectWinnerRequest
	if ok, err := helper.BindAndValidate(c, &body); !ok {
		return err
	}
	winner, err := ctrl.svc.SelectWinner(c.UserContext(), b.BookID, uuid.MustParse(body.UserID), body.Note)
	if err != nil {
		return helper.FromError(c, err)
	}
	winner.User.Cleanup()
	return helper.JsonUpdated(c, "winner selected", winner)
}

// POST /api/u/books/:id/cancel
func (ctrl *BookUserController) CancelBook(c *fiber.Ctx) error {
	who, b, err := ctrl.ctxBook(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := donorOrAdmin(who, b, "book cancellation"); err != nil {
		return helper.FromError(c, err)
	}
	res, err := ctrl.svc.CancelBook(c.UserContext(), b.BookID, who.isAdmin)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "book canceled", res)
}

// POST /api/u/books/:id/tracking-number
func (ctrl *BookUserController) InformTrackingNumber(c *fiber.Ctx) error {
	who, b, err := ctrl.ctxBook(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := staffOrDonor(who, b, "shipping of this book"); err != nil {
		return helper.FromError(c, err)
	}
	var body dto.TrackingNumberRequest
	if ok, err := helper.BindAndValidate(c, &body); !ok {
		return err
	}
	book, err := ctrl.svc.InformTrackingNumber(c.UserContext(), b.BookID, body.TrackingNumber)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "tracking number informed", book)
}

// POST /api/a/books/:id/deny-waiting
func (ctrl *BookUserController) DenyWaiting(c *fiber.Ctx) error {
	bookID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.FromError(c, err)
	}
	n, err := ctrl.svc.DenyWaitingRequests(c.UserContext(), bookID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "waiting requests denied", fiber.Map{"denied": n})
}

// GET /api/u/requests/mine
func (ctrl *BookUserController) MyRequests(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctrl.svc.ListRequestsByUser(c.UserContext(), userID, p)
	if err != nil {
		return helper.FromError(c, err)
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "my requests", dto.FromMyRequests(rows), &pg)
}
