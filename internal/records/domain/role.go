package domain

// Role is the privilege level of an account.
type Role string

const (
	RoleStandard   Role = "standard"
	RolePrivileged Role = "privileged"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStandard || r == RolePrivileged
}

func (r Role) String() string { return string(r) }
