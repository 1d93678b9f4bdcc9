// Package authz answers the three questions every mutating operation asks
// before touching the store: is there a caller, does the caller own the
// poll, is the caller an admin.
package authz

import (
	"errors"
	"strings"

	"pollboard/internal/apperr"
	"pollboard/internal/models"
	"pollboard/internal/validate"

	"gorm.io/gorm"
)

type Gate struct {
	db          *gorm.DB
	adminEmails map[string]struct{}
}

// NewGate builds a gate over the store and the admin email allow-list.
// An empty list means no admin exists; it is never treated as everyone.
func NewGate(db *gorm.DB, adminEmails []string) *Gate {
	set := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			set[email] = struct{}{}
		}
	}
	return &Gate{db: db, adminEmails: set}
}

// RequireAuth succeeds iff the caller is authenticated.
func (g *Gate) RequireAuth(c Caller) (*models.User, error) {
	user, ok := c.User()
	if !ok {
		return nil, apperr.New(apperr.AuthRequired, "authentication required")
	}
	return user, nil
}

// RequirePollOwnership validates the id, requires an authenticated caller
// and loads the poll. A missing poll is reported as not found before any
// denial; denial only happens for a poll that exists and belongs to someone
// else.
func (g *Gate) RequirePollOwnership(c Caller, pollID string) (*models.User, *models.Poll, error) {
	if err := validate.PollID(pollID); err != nil {
		return nil, nil, err
	}

	user, err := g.RequireAuth(c)
	if err != nil {
		return nil, nil, err
	}

	var poll models.Poll
	if err := g.db.Where("id = ?", pollID).First(&poll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.New(apperr.NotFound, "poll not found")
		}
		return nil, nil, apperr.Wrap(apperr.Upstream, "load poll", err)
	}

	if poll.UserID != user.ID {
		return nil, nil, apperr.New(apperr.AccessDenied, "you do not own this poll")
	}

	return user, &poll, nil
}

// RequireAdmin requires an authenticated caller whose email is on the
// configured allow-list.
func (g *Gate) RequireAdmin(c Caller) (*models.User, error) {
	user, err := g.RequireAuth(c)
	if err != nil {
		return nil, err
	}
	if !g.IsAdmin(user.Email) {
		return nil, apperr.New(apperr.AccessDenied, "admin access required")
	}
	return user, nil
}

// IsAdmin reports whether email is on the allow-list (case-insensitive).
func (g *Gate) IsAdmin(email string) bool {
	_, ok := g.adminEmails[strings.ToLower(email)]
	return ok
}
