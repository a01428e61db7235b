package sessionstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"parentcoach/internal/coach/session"
)

type fileDoc struct {
	Sessions []session.Session `json:"sessions"`
	Turns    []session.Turn    `json:"turns"`
}

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var doc fileDoc
		if err := json.Unmarshal(b, &doc); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range doc.Sessions {
			id := strings.TrimSpace(row.SessionID)
			if id == "" {
				continue
			}
			s.byID[id] = row
		}
		for _, t := range doc.Turns {
			s.turns[t.SessionID] = append(s.turns[t.SessionID], t)
		}
	})
}

// saveFile snapshots under the read lock, writes outside it.
func (s *Store) saveFile() {
	s.mu.RLock()
	doc := fileDoc{Sessions: make([]session.Session, 0, len(s.byID))}
	for _, sess := range s.byID {
		doc.Sessions = append(doc.Sessions, sess)
	}
	for _, turns := range s.turns {
		doc.Turns = append(doc.Turns, turns...)
	}
	s.mu.RUnlock()

	sort.Slice(doc.Sessions, func(i, j int) bool { return doc.Sessions[i].SessionID < doc.Sessions[j].SessionID })
	sort.Slice(doc.Turns, func(i, j int) bool { return doc.Turns[i].CreatedAt.Before(doc.Turns[j].CreatedAt) })

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *Store) getFile(sessionID string) (session.Session, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return session.Session{}, false
	}
	s.mu.RLock()
	sess, ok := s.byID[id]
	s.mu.RUnlock()
	return sess, ok
}

func (s *Store) getActiveByUserFile(userID string) (session.Session, bool) {
	s.ensureLoadedFile()
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return session.Session{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.byID {
		if sess.UserID == uid && sess.Active {
			return sess, true
		}
	}
	return session.Session{}, false
}

func (s *Store) putFile(sess session.Session) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	if sess.Active {
		for key, other := range s.byID {
			if other.UserID == sess.UserID && key != sess.SessionID && other.Active {
				other.Active = false
				s.byID[key] = other
			}
		}
	}
	s.byID[sess.SessionID] = sess
	s.mu.Unlock()
	s.saveFile()
	return nil
}

func (s *Store) updateFile(sessionID string, update func(*session.Session)) (session.Session, bool) {
	s.ensureLoadedFile()
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return session.Session{}, false
	}
	s.mu.Lock()
	sess, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return session.Session{}, false
	}
	update(&sess)
	sess.SessionID = id
	s.byID[id] = sess
	s.mu.Unlock()
	s.saveFile()
	return sess, true
}

func (s *Store) listByUserFile(userID string) []session.Session {
	s.ensureLoadedFile()
	uid := strings.TrimSpace(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session.Session, 0, len(s.byID))
	for _, sess := range s.byID {
		if uid != "" && sess.UserID != uid {
			continue
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) appendTurnFile(t session.Turn) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.turns[t.SessionID] = append(s.turns[t.SessionID], t)
	s.mu.Unlock()
	s.saveFile()
	return nil
}

func (s *Store) historyFile(sessionID string, limit int) []session.Turn {
	s.ensureLoadedFile()
	s.mu.RLock()
	turns := s.turns[strings.TrimSpace(sessionID)]
	out := make([]session.Turn, len(turns))
	copy(out, turns)
	s.mu.RUnlock()
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
