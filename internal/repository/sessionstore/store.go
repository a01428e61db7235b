// Package sessionstore persists coaching sessions and their turn log.
//
// Two backends share one Store type: a JSON file for local runs and tests,
// and Postgres (via the pgx stdlib driver) for deployments. The backend is
// picked by the SESSION_STORE_PG_DSN env var.
package sessionstore

import (
	"database/sql"
	"os"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"parentcoach/internal/coach/session"
)

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]session.Session
	turns    map[string][]session.Turn

	schemaOnce sync.Once
	schemaErr  error
}

func New(path string) *Store {
	return &Store{
		path:  path,
		byID:  make(map[string]session.Session),
		turns: make(map[string][]session.Turn),
	}
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("SESSION_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) Get(sessionID string) (session.Session, bool) {
	if s == nil {
		return session.Session{}, false
	}
	if s.db != nil {
		return s.getDB(sessionID)
	}
	return s.getFile(sessionID)
}

func (s *Store) GetActiveByUser(userID string) (session.Session, bool) {
	if s == nil {
		return session.Session{}, false
	}
	if s.db != nil {
		return s.getActiveByUserDB(userID)
	}
	return s.getActiveByUserFile(userID)
}

// Put stores the session. A session stored as active deactivates the user's
// other sessions: a user has at most one resumable session at a time.
func (s *Store) Put(sess session.Session) error {
	if s == nil || strings.TrimSpace(sess.SessionID) == "" {
		return nil
	}
	if s.db != nil {
		return s.putDB(sess)
	}
	return s.putFile(sess)
}

func (s *Store) Update(sessionID string, update func(*session.Session)) (session.Session, bool) {
	if s == nil {
		return session.Session{}, false
	}
	if s.db != nil {
		return s.updateDB(sessionID, update)
	}
	return s.updateFile(sessionID, update)
}

func (s *Store) ListByUser(userID string) []session.Session {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.listByUserDB(userID)
	}
	return s.listByUserFile(userID)
}

func (s *Store) AppendTurn(t session.Turn) error {
	if s == nil || strings.TrimSpace(t.SessionID) == "" {
		return nil
	}
	if s.db != nil {
		return s.appendTurnDB(t)
	}
	return s.appendTurnFile(t)
}

// History returns the session's most recent turns, oldest first.
func (s *Store) History(sessionID string, limit int) []session.Turn {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.historyDB(sessionID, limit)
	}
	return s.historyFile(sessionID, limit)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
