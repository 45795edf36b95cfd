package constants

import "fmt"

const (
	RoleUser        = "user"
	RoleAdmin       = "admin"
	RoleFacilitator = "facilitator"
)

// Role error templates
const (
	ErrOnlyAdminsCanAccess     = "❌ Only admins may access %s."
	ErrOnlyOwnerOrStaffAccess  = "❌ Only the donor, the facilitator or an admin may access %s."
	ErrOnlyDonorOrAdminsAccess = "❌ Only the donor or an admin may access %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorOwnerOrStaff(feature string) string {
	return fmt.Sprintf(ErrOnlyOwnerOrStaffAccess, feature)
}

func RoleErrorDonorOrAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyDonorOrAdminsAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleUser,
		RoleAdmin,
		RoleFacilitator,
	}

	StaffRoles = []string{
		RoleAdmin,
		RoleFacilitator,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
