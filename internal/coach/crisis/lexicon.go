package crisis

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// The shipped lexicon is a data asset so the safety team can audit and
// replace it without touching control flow. Deployments may override it from
// a local file or the object store; see the lexicon repository.
//
//go:embed lexicon.json
var defaultLexiconJSON []byte

// Lexicon is the versioned keyword/pattern list used by stage-1 screening.
type Lexicon struct {
	Version  string   `json:"version"`
	Keywords []string `json:"keywords"`
	Patterns []string `json:"patterns"`

	compiled []*regexp.Regexp
}

// ParseLexicon decodes and compiles a lexicon document. All patterns are
// compiled case-insensitively up front; a document with a broken pattern is
// rejected whole rather than silently matched partially.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := json.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("crisis: decode lexicon: %w", err)
	}
	if len(lex.Keywords) == 0 && len(lex.Patterns) == 0 {
		return nil, fmt.Errorf("crisis: lexicon %q has no keywords or patterns", lex.Version)
	}
	lex.compiled = make([]*regexp.Regexp, 0, len(lex.Patterns))
	for _, p := range lex.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("crisis: compile pattern %q: %w", p, err)
		}
		lex.compiled = append(lex.compiled, re)
	}
	return &lex, nil
}

// DefaultLexicon returns the embedded lexicon. The embedded asset is
// validated by tests, so a decode failure here is a build defect.
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon(defaultLexiconJSON)
	if err != nil {
		panic(err)
	}
	return lex
}

// Matches reports whether the message trips any keyword or pattern. Matching
// is case-insensitive; a single hit is sufficient.
func (l *Lexicon) Matches(message string) bool {
	lowered := strings.ToLower(message)
	for _, kw := range l.Keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	for _, re := range l.compiled {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}
