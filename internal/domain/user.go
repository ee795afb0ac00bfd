package domain

// Role is the closed set of system roles. Legacy values (e.g. ARCHITECT)
// are normalized to EMPLOYEE at the boundary.
type Role string

const (
	RoleDeveloper Role = "DEVELOPER"
	RoleEmployee  Role = "EMPLOYEE"
)

// ValidRole reports whether the role is one of the closed enum values.
func ValidRole(r Role) bool {
	return r == RoleDeveloper || r == RoleEmployee
}

// NormalizeRole converts unrecognized role strings to EMPLOYEE.
func NormalizeRole(raw string) Role {
	if r := Role(raw); ValidRole(r) {
		return r
	}
	return RoleEmployee
}

// User is an account that submits or fulfills automation requests.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CompanyTitle *string
	Avatar       *string
}
