package coach

import (
	"parentcoach/internal/coach/profile"
	"parentcoach/internal/coach/session"
)

// SessionStore is the long-term owner of sessions between requests. The
// orchestrator borrows a session, mutates it, and hands it back; the store is
// responsible for last-write-wins semantics, the core does no locking.
type SessionStore interface {
	Get(sessionID string) (session.Session, bool)
	GetActiveByUser(userID string) (session.Session, bool)
	Put(s session.Session) error
	Update(sessionID string, update func(*session.Session)) (session.Session, bool)
	ListByUser(userID string) []session.Session

	AppendTurn(t session.Turn) error
	History(sessionID string, limit int) []session.Turn
}

// ProfileStore owns the intake records. Writes happen only on the discovery
// and partial-discovery paths.
type ProfileStore interface {
	Parent(userID string) (profile.ParentRecord, bool)
	Children(userID string) []profile.ChildRecord
	PutParent(p profile.ParentRecord) error
	PutChild(c profile.ChildRecord) error
}
