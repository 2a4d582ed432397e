package domain

// Role is the access level of a user.
type Role string

// Role constants define the allowed user roles.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if string(r) == role {
			return true
		}
	}
	return false
}

// Status is the review state of a registered user.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ValidStatuses returns the set of valid user statuses.
func ValidStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected}
}

// IsValidStatus checks whether the given string is a valid user status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if string(s) == status {
			return true
		}
	}
	return false
}
