package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"sharebook_backend/internals/features/users/auth/service"
	"sharebook_backend/internals/features/users/user/dto"
	helper "sharebook_backend/internals/helpers"
)

type AuthController struct {
	svc *service.AuthService
}

func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{svc: svc}
}

// POST /api/auth/register
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var body dto.RegisterRequest
	if ok, err := helper.BindAndValidate(c, &body); !ok {
		return err
	}
	u, err := ac.svc.Register(c.UserContext(), body)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "registration successful", u)
}

// POST /api/auth/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var body dto.LoginRequest
	if ok, err := helper.BindAndValidate(c, &body); !ok {
		return err
	}
	sess, err := ac.svc.Login(c.UserContext(), body.Email, body.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return helper.FromError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    sess.AccessToken,
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return helper.JsonOK(c, "login successful", sess)
}

// POST /api/auth/logout clears the cookie; bearer tokens expire on their own.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return helper.JsonOK(c, "logged out", nil)
}

// GET /api/u/me
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	u, err := ac.svc.Me(c.UserContext(), userID)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "profile", u)
}

// PUT /api/u/me
func (ac *AuthController) UpdateMe(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var body dto.UpdateProfileRequest
	if ok, err := helper.BindAndValidate(c, &body); !ok {
		return err
	}
	u, err := ac.svc.UpdateProfile(c.UserContext(), userID, body)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "profile updated", u)
}

// PUT /api/u/me/password
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	var body dto.ChangePasswordRequest
	if ok, err := helper.BindAndValidate(c, &body); !ok {
		return err
	}
	if err := ac.svc.ChangePassword(c.UserContext(), userID, body.CurrentPassword, body.NewPassword); err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonUpdated(c, "password changed", nil)
}
