package profilestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"parentcoach/internal/coach/profile"
)

type fileDoc struct {
	Parents  []profile.ParentRecord `json:"parents"`
	Children []profile.ChildRecord  `json:"children"`
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
		for _, p := range doc.Parents {
			uid := strings.TrimSpace(p.UserID)
			if uid == "" {
				continue
			}
			s.parents[uid] = p
		}
		for _, c := range doc.Children {
			uid := strings.TrimSpace(c.UserID)
			if uid == "" || strings.TrimSpace(c.ChildID) == "" {
				continue
			}
			s.children[uid] = append(s.children[uid], c)
		}
	})
}

func (s *Store) saveFile() {
	s.mu.RLock()
	doc := fileDoc{Parents: make([]profile.ParentRecord, 0, len(s.parents))}
	for _, p := range s.parents {
		doc.Parents = append(doc.Parents, p)
	}
	for _, kids := range s.children {
		doc.Children = append(doc.Children, kids...)
	}
	s.mu.RUnlock()

	sort.Slice(doc.Parents, func(i, j int) bool { return doc.Parents[i].UserID < doc.Parents[j].UserID })
	sort.Slice(doc.Children, func(i, j int) bool { return doc.Children[i].ChildID < doc.Children[j].ChildID })

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *Store) parentFile(userID string) (profile.ParentRecord, bool) {
	s.ensureLoadedFile()
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return profile.ParentRecord{}, false
	}
	s.mu.RLock()
	p, ok := s.parents[uid]
	s.mu.RUnlock()
	return p, ok
}

func (s *Store) childrenFile(userID string) []profile.ChildRecord {
	s.ensureLoadedFile()
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil
	}
	s.mu.RLock()
	kids := s.children[uid]
	out := make([]profile.ChildRecord, len(kids))
	copy(out, kids)
	s.mu.RUnlock()
	return out
}

func (s *Store) putParentFile(p profile.ParentRecord) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.parents[strings.TrimSpace(p.UserID)] = p
	s.mu.Unlock()
	s.saveFile()
	return nil
}

func (s *Store) putChildFile(c profile.ChildRecord) error {
	s.ensureLoadedFile()
	uid := strings.TrimSpace(c.UserID)
	s.mu.Lock()
	kids := s.children[uid]
	replaced := false
	for i, existing := range kids {
		if existing.ChildID == c.ChildID {
			kids[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		kids = append(kids, c)
	}
	s.children[uid] = kids
	s.mu.Unlock()
	s.saveFile()
	return nil
}
