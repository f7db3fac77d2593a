package domain

// Role represents account role in the system
type Role string

const (
	RoleUser      Role = "user"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
	RoleEmployee  Role = "employee"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleLibrarian, RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

// IsStaff reports whether r may manage the catalog and borrowings
func (r Role) IsStaff() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

// AccountStatus represents whether an account can sign in
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// Principal is the authenticated caller, narrowed from token claims at the request boundary
type Principal struct {
	AccountID uint
	Email     string
	Role      Role
}

// IsStaff reports whether the principal is a librarian or an admin
func (p Principal) IsStaff() bool {
	return p.Role.IsStaff()
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
