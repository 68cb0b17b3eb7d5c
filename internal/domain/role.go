package domain

// Role is the closed set of user roles.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
