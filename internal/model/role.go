package model

// Role is the authenticated user's role as reported by the backend.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleDialysisManager Role = "dialysis_manager"
	RoleAccountant      Role = "accountant"
	RoleOfficeStaff     Role = "office_staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDialysisManager, RoleAccountant, RoleOfficeStaff:
		return true
	}
	return false
}

// Label returns a display name for the role.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleDialysisManager:
		return "Dialysis Manager"
	case RoleAccountant:
		return "Accountant"
	case RoleOfficeStaff:
		return "Office Staff"
	default:
		return string(r)
	}
}
