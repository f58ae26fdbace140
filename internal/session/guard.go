package session

import (
	"github.com/zatekoja/doctorconnect/internal/domain/entities"
	apperrors "github.com/zatekoja/doctorconnect/pkg/errors"
)

// Allow reports whether user is signed in with one of the allowed roles
func Allow(user *entities.SessionUser, allowed entities.RoleSet) bool {
	if user == nil {
		return false
	}
	return allowed.Contains(user.Role)
}

// Require is Allow expressed as a Forbidden error for callers that branch on errors
func Require(user *entities.SessionUser, allowed entities.RoleSet) error {
	if !Allow(user, allowed) {
		return apperrors.NewForbiddenError("Forbidden")
	}
	return nil
}

// LandingPath is where a freshly signed-in user is sent
func LandingPath(role entities.Role) string {
	if role == entities.RoleDoctor {
		return "/doctors"
	}
	return "/"
}
