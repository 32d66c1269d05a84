package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent    RoleType = "STUDENT"
	RoleCounsellor RoleType = "COUNSELLOR"
	RoleAdmin      RoleType = "ADMIN"
)

// IsValid reports whether r is one of the known roles
func (r RoleType) IsValid() bool {
	switch r {
	case RoleStudent, RoleCounsellor, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r may review applications
func (r RoleType) IsStaff() bool {
	return r == RoleAdmin || r == RoleCounsellor
}
