package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel maps the users table.
type UserModel struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name     string    `gorm:"size:100;not null" json:"name"`
	Email    string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Phone    string    `gorm:"size:30" json:"phone,omitempty"`
	Linkedin string    `gorm:"size:255" json:"linkedin,omitempty"`
	Role     string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	IsActive bool      `gorm:"not null;default:true" json:"is_active"`

	AllowSendingEmail bool `gorm:"not null;default:true" json:"allow_sending_email"`

	PasswordResetToken     *string    `gorm:"size:128" json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`

	Address *AddressModel `gorm:"foreignKey:AddressUserID;references:ID" json:"address,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserModel) TableName() string {
	return "users"
}

// SetDefaultValues fills the role before insert.
func (u *UserModel) SetDefaultValues() {
	if u.Role == "" {
		u.Role = "user"
	}
}

// Cleanup strips credentials and reset data before a user leaves the service.
func (u *UserModel) Cleanup() *UserModel {
	if u == nil {
		return nil
	}
	u.Password = ""
	u.PasswordResetToken = nil
	u.PasswordResetExpiresAt = nil
	return u
}

// CleanupPublic additionally hides contact data for listings outside the donation.
func (u *UserModel) CleanupPublic() *UserModel {
	if u == nil {
		return nil
	}
	u.Cleanup()
	u.Phone = ""
	u.Address = nil
	return u
}
