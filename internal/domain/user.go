package domain

import "time"

const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

type User struct {
	ID                uint       `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Role              string     `json:"role"`
	Photo             string     `json:"photo,omitempty"`
	Password          string     `json:"-"`
	PasswordChangedAt *time.Time `json:"-"`
	Active            bool       `json:"-"`
	FavoriteTours     []Tour     `json:"favorite_tours,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// HasRole reports whether the user's role is one of the given roles.
func (u User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}

	return false
}
