package model

// Role identifies what a user may do on the board dashboard.
type Role string

const (
	// RoleSecretary has global oversight: edits any RACI and closes mandates.
	RoleSecretary Role = "SECRETARY"

	// RoleUnit is a unit leader operating within the mandates assigned to it.
	RoleUnit Role = "UNIT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleSecretary || r == RoleUnit
}

// User is a board member or unit leader as issued by the backend.
// The client never creates users; values are treated as immutable.
type User struct {
	ID         int64  `json:"id" db:"id"`
	Username   string `json:"username" db:"username"`
	Name       string `json:"name" db:"name"`
	Role       Role   `json:"role" db:"role"`
	AvatarSeed string `json:"avatar_seed" db:"avatar_seed"`
	PhotoURL   string `json:"photoUrl,omitempty" db:"photo_url"`
	Division   string `json:"division,omitempty" db:"division"`
}

// IsSecretary reports whether the user holds the SECRETARY role.
func (u User) IsSecretary() bool { return u.Role == RoleSecretary }

// FirstName returns the first word of the display name, or the username
// when the name is blank.
func (u User) FirstName() string {
	for i, r := range u.Name {
		if r == ' ' {
			return u.Name[:i]
		}
	}
	if u.Name == "" {
		return u.Username
	}
	return u.Name
}

// DivisionLabel returns the division, falling back to the role.
func (u User) DivisionLabel() string {
	if u.Division != "" {
		return u.Division
	}
	return string(u.Role)
}

// FindUser returns the user with the given id from a roster.
func FindUser(users []User, id int64) (User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}
