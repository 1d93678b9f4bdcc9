package authz

import "pollboard/internal/models"

// Caller is the identity a request acts under: anonymous or an
// authenticated user. Call sites must branch through User() instead of
// passing a nullable user pointer around.
type Caller struct {
	user *models.User
}

func Anonymous() Caller {
	return Caller{}
}

func Authenticated(u *models.User) Caller {
	return Caller{user: u}
}

// User returns the authenticated user, or false for an anonymous caller.
func (c Caller) User() (*models.User, bool) {
	if c.user == nil {
		return nil, false
	}
	return c.user, true
}
