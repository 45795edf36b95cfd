package controller

import (
	"github.com/gofiber/fiber/v2"

	"sharebook_backend/internals/features/users/user/dto"
	"sharebook_backend/internals/features/users/user/model"
	helper "sharebook_backend/internals/helpers"
	"sharebook_backend/internals/helpers/apperror"
	"sharebook_backend/internals/helpers/crud"
)

// NewAdminUsers serves GET /, GET /:id and PUT /:id for admins.
func NewAdminUsers(store crud.Store[model.UserModel]) *crud.Resource[model.UserModel, dto.AdminUpdateUserRequest] {
	return &crud.Resource[model.UserModel, dto.AdminUpdateUserRequest]{
		Name:           "user",
		Store:          store,
		DefaultPerPage: 20,
		MaxPerPage:     100,
		Params:         []string{"role", "active"},
		Present: func(u *model.UserModel) any {
			return u.Cleanup()
		},
		Apply: applyAdminUpdate,
	}
}

func applyAdminUpdate(c *fiber.Ctx, in *dto.AdminUpdateUserRequest, u *model.UserModel) error {
	callerID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return err
	}
	// admins cannot lock themselves out
	if u.ID == callerID && ((in.IsActive != nil && !*in.IsActive) || (in.Role != nil && *in.Role != u.Role)) {
		return apperror.BadRequest("you cannot demote or deactivate your own account")
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	return nil
}
