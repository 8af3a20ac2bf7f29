package auth

// Roles known to the service. The role column is constrained to these values
// at registration time.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the stored account record. The password hash never appears in API
// responses.
type User struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	PhoneNumber    *string `json:"phone_number"`
	Role           string  `json:"role"`
	HashedPassword string  `json:"-"`
	IsActive       bool    `json:"is_active"`
}

// Identity is the authenticated caller for a single request. It is rebuilt
// from storage on every request and never cached across requests.
type Identity struct {
	UserID   int64
	Username string
	Role     string
	IsActive bool
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
