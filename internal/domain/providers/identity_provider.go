package providers

import (
	"context"

	"github.com/zatekoja/doctorconnect/internal/domain/entities"
)

// IdentityProvider is the server-side session authority. Credentials travel as cookies.
type IdentityProvider interface {
	// CurrentUser reads the session bound to the caller's cookies
	CurrentUser(ctx context.Context) (*entities.SessionUser, error)

	// Login exchanges credentials for a session
	Login(ctx context.Context, creds entities.Credentials) (*entities.SessionUser, error)

	// Register creates an account and opens a session for it
	Register(ctx context.Context, reg entities.Registration) (*entities.SessionUser, error)

	// Logout invalidates the server-side session
	Logout(ctx context.Context) error
}
