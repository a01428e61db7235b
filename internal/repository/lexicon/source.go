// Package lexicon loads the crisis screening lexicon from deployment-managed
// storage. The embedded default ships with the binary; deployments that audit
// or hot-swap the list point the service at a local file or an S3 bucket.
package lexicon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"parentcoach/internal/coach/crisis"
)

var ErrNotFound = errors.New("lexicon: not found")

// Source fetches the raw lexicon document from wherever it lives.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FileSource reads the lexicon from a local path.
type FileSource struct {
	Path string
}

func (f FileSource) Fetch(context.Context) ([]byte, error) {
	path := strings.TrimSpace(f.Path)
	if path == "" {
		return nil, fmt.Errorf("lexicon: file path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// Load fetches and parses the lexicon from src. A nil source, a missing
// document, or a document that fails to parse all fall back to the embedded
// default: screening must never start with an empty list.
func Load(ctx context.Context, src Source) *crisis.Lexicon {
	if src == nil {
		return crisis.DefaultLexicon()
	}
	raw, err := src.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("lexicon: fetch failed, using embedded default: %v", err)
		}
		return crisis.DefaultLexicon()
	}
	lex, err := crisis.ParseLexicon(raw)
	if err != nil {
		log.Printf("lexicon: parse failed, using embedded default: %v", err)
		return crisis.DefaultLexicon()
	}
	log.Printf("lexicon: loaded version %s", lex.Version)
	return lex
}
