// Package suggest completes partially typed wikilink targets against the
// existing note titles, ranked by fuzzy-match relevance.
package suggest

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/latticenotes/lattice/internal/store"
)

// DefaultLimit caps suggestions when the caller leaves the limit unset.
const DefaultLimit = 10

// Suggestion is one ranked completion candidate.
type Suggestion struct {
	NoteID string `json:"noteId"`
	Title  string `json:"title"`
	Score  int    `json:"score"`
}

// Service suggests link targets from a note store.
type Service struct {
	store store.Storer
	log   *slog.Logger
}

// NewService creates a suggestion service. A nil logger disables logging.
func NewService(st store.Storer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: st, log: log}
}

// SuggestTitles returns up to limit notes whose titles fuzzy-match the
// input, best match first. Empty input yields no suggestions. A limit of
// zero or less falls back to DefaultLimit.
func (s *Service) SuggestTitles(input string, limit int) ([]Suggestion, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	titles, err := s.store.ListNoteTitles()
	if err != nil {
		return nil, fmt.Errorf("failed to list note titles: %w", err)
	}

	names := make([]string, len(titles))
	for i, t := range titles {
		names[i] = t.Title
	}

	matches := fuzzy.Find(input, names)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	suggestions := make([]Suggestion, len(matches))
	for i, m := range matches {
		t := titles[m.Index]
		suggestions[i] = Suggestion{NoteID: t.ID, Title: t.Title, Score: m.Score}
	}

	s.log.Debug("titles suggested", "input", input, "count", len(suggestions))
	return suggestions, nil
}
