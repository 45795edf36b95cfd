package dto

import (
	"strings"

	"sharebook_backend/internals/features/users/user/model"
)

/* =======================================================
   REQUEST DTOs
   ======================================================= */

// RegisterRequest is the public sign-up body.
type RegisterRequest struct {
	Name              string `json:"name" validate:"required,min=3,max=100"`
	Email             string `json:"email" validate:"required,email,max=255"`
	Password          string `json:"password" validate:"required,min=6,max=72"`
	Phone             string `json:"phone" validate:"omitempty,max=30"`
	Linkedin          string `json:"linkedin" validate:"omitempty,url,max=255"`
	AllowSendingEmail *bool  `json:"allow_sending_email,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Linkedin = strings.TrimSpace(r.Linkedin)
}

// ToModel leaves Password empty; the caller stores the hash.
func (r *RegisterRequest) ToModel() *model.UserModel {
	u := &model.UserModel{
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		Linkedin:          r.Linkedin,
		IsActive:          true,
		AllowSendingEmail: true,
	}
	if r.AllowSendingEmail != nil {
		u.AllowSendingEmail = *r.AllowSendingEmail
	}
	u.SetDefaultValues()
	return u
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

type AddressRequest struct {
	Street       string `json:"street" validate:"required,max=150"`
	Number       string `json:"number" validate:"required,max=20"`
	Complement   string `json:"complement" validate:"omitempty,max=80"`
	Neighborhood string `json:"neighborhood" validate:"omitempty,max=80"`
	PostalCode   string `json:"postal_code" validate:"required,max=15"`
	City         string `json:"city" validate:"required,max=80"`
	State        string `json:"state" validate:"required,max=40"`
	Country      string `json:"country" validate:"omitempty,max=40"`
}

// UpdateProfileRequest is a partial update of the caller's own profile.
type UpdateProfileRequest struct {
	Name              *string         `json:"name,omitempty" validate:"omitempty,min=3,max=100"`
	Phone             *string         `json:"phone,omitempty" validate:"omitempty,max=30"`
	Linkedin          *string         `json:"linkedin,omitempty" validate:"omitempty,max=255"`
	AllowSendingEmail *bool           `json:"allow_sending_email,omitempty"`
	Address           *AddressRequest `json:"address,omitempty"`
}

// ApplyTo copies the present fields onto u.
func (r *UpdateProfileRequest) ApplyTo(u *model.UserModel) {
	if r.Name != nil {
		u.Name = strings.TrimSpace(*r.Name)
	}
	if r.Phone != nil {
		u.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.Linkedin != nil {
		u.Linkedin = strings.TrimSpace(*r.Linkedin)
	}
	if r.AllowSendingEmail != nil {
		u.AllowSendingEmail = *r.AllowSendingEmail
	}
	if a := r.Address; a != nil {
		addr := model.AddressModel{}
		if u.Address != nil {
			addr = *u.Address
		}
		addr.AddressUserID = u.ID
		addr.AddressStreet = strings.TrimSpace(a.Street)
		addr.AddressNumber = strings.TrimSpace(a.Number)
		addr.AddressComplement = strings.TrimSpace(a.Complement)
		addr.AddressNeighborhood = strings.TrimSpace(a.Neighborhood)
		addr.AddressPostalCode = strings.TrimSpace(a.PostalCode)
		addr.AddressCity = strings.TrimSpace(a.City)
		addr.AddressState = strings.TrimSpace(a.State)
		addr.AddressCountry = strings.TrimSpace(a.Country)
		if addr.AddressCountry == "" {
			addr.AddressCountry = "Brasil"
		}
		u.Address = &addr
	}
}

// AdminUpdateUserRequest: admins may change the role and block accounts.
type AdminUpdateUserRequest struct {
	Role     *string `json:"role,omitempty" validate:"omitempty,role"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
