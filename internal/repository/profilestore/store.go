// Package profilestore persists parent and child intake records.
//
// Backends mirror sessionstore: JSON file locally, Postgres behind
// PROFILE_STORE_PG_DSN. Profiles are read on every message and written only
// during intake, so the Postgres path keeps a small LRU in front of reads.
package profilestore

import (
	"database/sql"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"parentcoach/internal/coach/profile"
)

type cachedProfile struct {
	parent    profile.ParentRecord
	hasParent bool
	children  []profile.ChildRecord
}

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	parents  map[string]profile.ParentRecord
	children map[string][]profile.ChildRecord

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, cachedProfile]
}

func New(path string) *Store {
	return &Store{
		path:     path,
		parents:  make(map[string]profile.ParentRecord),
		children: make(map[string][]profile.ChildRecord),
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
	cache, err := lru.New[string, cachedProfile](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("PROFILE_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) Parent(userID string) (profile.ParentRecord, bool) {
	if s == nil {
		return profile.ParentRecord{}, false
	}
	if s.db != nil {
		c, ok := s.cached(userID)
		if !ok {
			c = s.loadDB(userID)
		}
		return c.parent, c.hasParent
	}
	return s.parentFile(userID)
}

func (s *Store) Children(userID string) []profile.ChildRecord {
	if s == nil {
		return nil
	}
	if s.db != nil {
		c, ok := s.cached(userID)
		if !ok {
			c = s.loadDB(userID)
		}
		return c.children
	}
	return s.childrenFile(userID)
}

func (s *Store) PutParent(p profile.ParentRecord) error {
	if s == nil || strings.TrimSpace(p.UserID) == "" {
		return nil
	}
	if s.db != nil {
		err := s.putParentDB(p)
		if err == nil && s.cache != nil {
			s.cache.Remove(p.UserID)
		}
		return err
	}
	return s.putParentFile(p)
}

func (s *Store) PutChild(c profile.ChildRecord) error {
	if s == nil || strings.TrimSpace(c.UserID) == "" || strings.TrimSpace(c.ChildID) == "" {
		return nil
	}
	if s.db != nil {
		err := s.putChildDB(c)
		if err == nil && s.cache != nil {
			s.cache.Remove(c.UserID)
		}
		return err
	}
	return s.putChildFile(c)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) cached(userID string) (cachedProfile, bool) {
	if s.cache == nil {
		return cachedProfile{}, false
	}
	return s.cache.Get(strings.TrimSpace(userID))
}

func (s *Store) fillCache(userID string, c cachedProfile) {
	if s.cache != nil {
		s.cache.Add(strings.TrimSpace(userID), c)
	}
}
