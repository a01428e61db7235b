package sessionstore

import (
	"strings"

	"parentcoach/internal/coach/session"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS sessions (
  session_id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  mode TEXT NOT NULL DEFAULT 'check-in',
  current_phase TEXT NOT NULL DEFAULT 'goal',
  reality_depth INTEGER NOT NULL DEFAULT 0,
  emotions_reflected BOOLEAN NOT NULL DEFAULT FALSE,
  exceptions_explored BOOLEAN NOT NULL DEFAULT FALSE,
  ready_for_options BOOLEAN NOT NULL DEFAULT FALSE,
  crisis_level TEXT NOT NULL DEFAULT 'none',
  time_budget_min INTEGER NOT NULL DEFAULT 50,
  time_elapsed_min INTEGER NOT NULL DEFAULT 0,
  time_extension_offered BOOLEAN NOT NULL DEFAULT FALSE,
  is_active BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions (user_id);

CREATE TABLE IF NOT EXISTS session_turns (
  id SERIAL PRIMARY KEY,
  session_id TEXT NOT NULL,
  role TEXT NOT NULL,
  content TEXT NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_session_turns_session_id ON session_turns (session_id);
`)
	})
	return s.schemaErr
}

const sessionColumns = `session_id, user_id, mode, current_phase, reality_depth,
emotions_reflected, exceptions_explored, ready_for_options, crisis_level,
time_budget_min, time_elapsed_min, time_extension_offered, is_active,
created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSessionDB(row rowScanner) (session.Session, bool) {
	var sess session.Session
	err := row.Scan(
		&sess.SessionID,
		&sess.UserID,
		&sess.Mode,
		&sess.CurrentPhase,
		&sess.RealityExplorationDepth,
		&sess.EmotionsReflected,
		&sess.ExceptionsExplored,
		&sess.ReadyForOptions,
		&sess.CrisisLevel,
		&sess.TimeBudgetMinutes,
		&sess.TimeElapsedMinutes,
		&sess.TimeExtensionOffered,
		&sess.Active,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if err != nil {
		return session.Session{}, false
	}
	return sess, true
}

func (s *Store) getDB(sessionID string) (session.Session, bool) {
	if err := s.ensureSchema(); err != nil {
		return session.Session{}, false
	}
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return session.Session{}, false
	}
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE session_id = $1`, id)
	return scanSessionDB(row)
}

func (s *Store) getActiveByUserDB(userID string) (session.Session, bool) {
	if err := s.ensureSchema(); err != nil {
		return session.Session{}, false
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return session.Session{}, false
	}
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions
WHERE user_id = $1 AND is_active = TRUE
ORDER BY created_at DESC LIMIT 1`, uid)
	return scanSessionDB(row)
}

func (s *Store) putDB(sess session.Session) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if sess.Active {
		if _, err := tx.Exec(`UPDATE sessions SET is_active = FALSE
WHERE user_id = $1 AND session_id <> $2`, sess.UserID, sess.SessionID); err != nil {
			return err
		}
	}
	_, err = tx.Exec(`
INSERT INTO sessions (`+sessionColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (session_id)
DO UPDATE SET user_id=EXCLUDED.user_id,
  mode=EXCLUDED.mode,
  current_phase=EXCLUDED.current_phase,
  reality_depth=EXCLUDED.reality_depth,
  emotions_reflected=EXCLUDED.emotions_reflected,
  exceptions_explored=EXCLUDED.exceptions_explored,
  ready_for_options=EXCLUDED.ready_for_options,
  crisis_level=EXCLUDED.crisis_level,
  time_budget_min=EXCLUDED.time_budget_min,
  time_elapsed_min=EXCLUDED.time_elapsed_min,
  time_extension_offered=EXCLUDED.time_extension_offered,
  is_active=EXCLUDED.is_active,
  updated_at=EXCLUDED.updated_at`,
		sess.SessionID, sess.UserID, sess.Mode, sess.CurrentPhase, sess.RealityExplorationDepth,
		sess.EmotionsReflected, sess.ExceptionsExplored, sess.ReadyForOptions, sess.CrisisLevel,
		sess.TimeBudgetMinutes, sess.TimeElapsedMinutes, sess.TimeExtensionOffered, sess.Active,
		sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) updateDB(sessionID string, update func(*session.Session)) (session.Session, bool) {
	if err := s.ensureSchema(); err != nil {
		return session.Session{}, false
	}
	tx, err := s.db.Begin()
	if err != nil {
		return session.Session{}, false
	}
	defer func() { _ = tx.Rollback() }()

	id := strings.TrimSpace(sessionID)
	row := tx.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE session_id = $1 FOR UPDATE`, id)
	cur, ok := scanSessionDB(row)
	if !ok {
		return session.Session{}, false
	}
	update(&cur)
	cur.SessionID = id
	_, err = tx.Exec(`
UPDATE sessions
SET user_id=$2, mode=$3, current_phase=$4, reality_depth=$5,
  emotions_reflected=$6, exceptions_explored=$7, ready_for_options=$8,
  crisis_level=$9, time_budget_min=$10, time_elapsed_min=$11,
  time_extension_offered=$12, is_active=$13, updated_at=$14
WHERE session_id=$1`,
		cur.SessionID, cur.UserID, cur.Mode, cur.CurrentPhase, cur.RealityExplorationDepth,
		cur.EmotionsReflected, cur.ExceptionsExplored, cur.ReadyForOptions, cur.CrisisLevel,
		cur.TimeBudgetMinutes, cur.TimeElapsedMinutes, cur.TimeExtensionOffered, cur.Active,
		cur.UpdatedAt)
	if err != nil {
		return session.Session{}, false
	}
	if err := tx.Commit(); err != nil {
		return session.Session{}, false
	}
	return cur, true
}

func (s *Store) listByUserDB(userID string) []session.Session {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	uid := strings.TrimSpace(userID)
	rows, err := s.db.Query(`SELECT `+sessionColumns+` FROM sessions
WHERE user_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil
	}
	defer rows.Close()
	out := make([]session.Session, 0, 16)
	for rows.Next() {
		if sess, ok := scanSessionDB(rows); ok {
			out = append(out, sess)
		}
	}
	return out
}

func (s *Store) appendTurnDB(t session.Turn) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
INSERT INTO session_turns (session_id, role, content, created_at)
VALUES ($1, $2, $3, $4)`,
		t.SessionID, t.Role, t.Content, t.CreatedAt)
	return err
}

func (s *Store) historyDB(sessionID string, limit int) []session.Turn {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
SELECT session_id, role, content, created_at FROM (
  SELECT session_id, role, content, created_at, id
  FROM session_turns WHERE session_id = $1
  ORDER BY id DESC LIMIT $2
) recent ORDER BY id ASC`, strings.TrimSpace(sessionID), limit)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []session.Turn
	for rows.Next() {
		var t session.Turn
		if err := rows.Scan(&t.SessionID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}
