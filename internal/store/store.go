// Package store provides the local session cache.
//
// The dashboard itself holds no durable state — conversations and
// messages are a transient cache owned by the backend. The only thing
// persisted locally is the auth session, so a restart can restore the
// signed-in user without prompting for credentials again.
package store

import (
	"context"
	"time"
)

// StoredSession is the persisted auth session.
type StoredSession struct {
	UserID      string
	Email       string
	AccessToken string
	CreatedAt   time.Time
}

// Repository defines the interface for persisting the auth session.
type Repository interface {
	// SaveSession replaces the stored session wholesale.
	SaveSession(ctx context.Context, session *StoredSession) error

	// LoadSession returns the stored session, or (nil, nil) if none exists.
	LoadSession(ctx context.Context) (*StoredSession, error)

	// ClearSession removes the stored session. Clearing an empty store is not an error.
	ClearSession(ctx context.Context) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
