// Package auth implements the client side of the authentication collaborator.
//
// The dashboard never sees credentials storage or token validation —
// it only needs the current session (user identity plus a loading
// flag) and the three operations sign-in, sign-up, sign-out. Session
// state is an explicit object with explicit subscriptions; nothing is
// ambient.
package auth

import (
	"context"

	"github.com/nhanhataka-sys/replify-dashboard/internal/domain"
)

// Session is the current authentication state. Loading is true until
// the initial session restore has completed.
type Session struct {
	User    *domain.User
	Loading bool
}

// Authenticated reports whether a user identity is present.
func (s Session) Authenticated() bool {
	return s.User != nil
}

// Error is an authentication failure whose message is surfaced to the
// user verbatim.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Client is the auth collaborator contract.
type Client interface {
	// SignIn authenticates with email and password. On success the
	// session changes and subscribers are notified.
	SignIn(ctx context.Context, email, password string) error

	// SignUp creates a new account and signs it in.
	SignUp(ctx context.Context, email, password string) (*domain.User, error)

	// SignOut ends the session. The local session is always cleared,
	// even if the backend call fails.
	SignOut(ctx context.Context) error

	// Session returns the current session state.
	Session() Session

	// Subscribe registers a callback invoked on every session change.
	// The returned function removes the subscription.
	Subscribe(fn func(Session)) (unsubscribe func())
}
