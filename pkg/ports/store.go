package ports

import "context"

// SessionStore persists session snapshots as opaque bytes.
// The session manager owns the encoding; stores never look inside.
type SessionStore interface {
	// Save persists the snapshot of a session, replacing any previous one.
	Save(ctx context.Context, sessionID string, data []byte) error

	// Load returns the snapshot of a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the ids of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
