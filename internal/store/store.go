// Package store keeps per-conversation session state.
package store

import (
	"context"
	"errors"

	"leadbot-backend/internal/dialog"
)

var (
	ErrEmptySessionID = errors.New("session id is required")
	ErrLockTimeout    = errors.New("timed out waiting for session lock")
)

// SessionStore fetches, creates, persists and removes sessions. Callers
// must Save after mutating a session and Delete on the terminal transition;
// nothing expires on its own unless the backend is configured with a TTL.
type SessionStore interface {
	GetOrCreate(ctx context.Context, sessionID string, industry dialog.Industry) (*dialog.Session, error)
	Save(ctx context.Context, s *dialog.Session) error
	Delete(ctx context.Context, sessionID string) error
}

// Locker is implemented by stores shared between processes. Lock blocks
// until the caller holds the session exclusively and returns the release
// func.
type Locker interface {
	Lock(ctx context.Context, sessionID string) (func(), error)
}
