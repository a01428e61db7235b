package profilestore

import (
	"strings"

	"parentcoach/internal/coach/profile"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS parent_profiles (
  user_id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  family_context TEXT NOT NULL DEFAULT '',
  support_network TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS child_profiles (
  child_id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  age INTEGER NOT NULL DEFAULT 0,
  challenges TEXT NOT NULL DEFAULT '',
  strengths TEXT NOT NULL DEFAULT '',
  school_type TEXT NOT NULL DEFAULT '',
  grade_level TEXT NOT NULL DEFAULT '',
  medication TEXT NOT NULL DEFAULT '',
  therapy TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_child_profiles_user_id ON child_profiles (user_id);
`)
	})
	return s.schemaErr
}

// loadDB reads the full profile for one user and primes the cache.
func (s *Store) loadDB(userID string) cachedProfile {
	var c cachedProfile
	if err := s.ensureSchema(); err != nil {
		return c
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return c
	}

	row := s.db.QueryRow(`SELECT user_id, name, family_context, support_network, updated_at
FROM parent_profiles WHERE user_id = $1`, uid)
	var p profile.ParentRecord
	if err := row.Scan(&p.UserID, &p.Name, &p.FamilyContext, &p.SupportNetwork, &p.UpdatedAt); err == nil {
		c.parent = p
		c.hasParent = true
	}

	rows, err := s.db.Query(`SELECT child_id, user_id, name, age, challenges, strengths,
school_type, grade_level, medication, therapy, updated_at
FROM child_profiles WHERE user_id = $1 ORDER BY updated_at ASC`, uid)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var ch profile.ChildRecord
			if err := rows.Scan(&ch.ChildID, &ch.UserID, &ch.Name, &ch.Age, &ch.Challenges,
				&ch.Strengths, &ch.SchoolType, &ch.GradeLevel, &ch.Medication, &ch.Therapy,
				&ch.UpdatedAt); err == nil {
				c.children = append(c.children, ch)
			}
		}
	}

	s.fillCache(uid, c)
	return c
}

func (s *Store) putParentDB(p profile.ParentRecord) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
INSERT INTO parent_profiles (user_id, name, family_context, support_network, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id)
DO UPDATE SET name=EXCLUDED.name,
  family_context=EXCLUDED.family_context,
  support_network=EXCLUDED.support_network,
  updated_at=EXCLUDED.updated_at`,
		p.UserID, p.Name, p.FamilyContext, p.SupportNetwork, p.UpdatedAt)
	return err
}

func (s *Store) putChildDB(c profile.ChildRecord) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
INSERT INTO child_profiles (child_id, user_id, name, age, challenges, strengths,
  school_type, grade_level, medication, therapy, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (child_id)
DO UPDATE SET name=EXCLUDED.name,
  age=EXCLUDED.age,
  challenges=EXCLUDED.challenges,
  strengths=EXCLUDED.strengths,
  school_type=EXCLUDED.school_type,
  grade_level=EXCLUDED.grade_level,
  medication=EXCLUDED.medication,
  therapy=EXCLUDED.therapy,
  updated_at=EXCLUDED.updated_at`,
		c.ChildID, c.UserID, c.Name, c.Age, c.Challenges, c.Strengths,
		c.SchoolType, c.GradeLevel, c.Medication, c.Therapy, c.UpdatedAt)
	return err
}
