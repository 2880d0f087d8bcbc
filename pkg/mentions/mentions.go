// Package mentions finds unlinked mentions: places where a note's body
// names another note's title in plain text without a wikilink. Matching is
// Aho-Corasick over all other titles, ASCII case-insensitive, whole words,
// leftmost-longest.
package mentions

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/latticenotes/lattice/internal/store"
	"github.com/latticenotes/lattice/pkg/wikilink"
)

// ErrNoteNotFound is returned when the scanned note does not exist.
var ErrNoteNotFound = errors.New("note not found")

// Mention is one plain-text occurrence of another note's title.
type Mention struct {
	NoteID string `json:"noteId"`
	Title  string `json:"title"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Text   string `json:"text"`
}

// Service scans note bodies for unlinked mentions.
type Service struct {
	store store.Storer
	log   *slog.Logger
}

// NewService creates a mention scanner. A nil logger disables logging.
func NewService(st store.Storer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: st, log: log}
}

// UnlinkedMentions returns every occurrence of another note's title in the
// note's body that is not already part of a wikilink, ordered by position.
func (s *Service) UnlinkedMentions(noteID string) ([]Mention, error) {
	note, err := s.store.GetNote(noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to get note %s: %w", noteID, err)
	}
	if note == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, noteID)
	}
	if note.Body == "" {
		return nil, nil
	}

	titles, err := s.store.ListNoteTitles()
	if err != nil {
		return nil, fmt.Errorf("failed to list note titles: %w", err)
	}

	// One pattern per other note; norm titles are unique so each pattern
	// maps back to exactly one note
	var patterns []string
	var owners []store.NoteTitle
	for _, t := range titles {
		if t.ID == noteID {
			continue
		}
		pattern := wikilink.NormalizeTitle(t.Title)
		if pattern == "" {
			continue
		}
		patterns = append(patterns, pattern)
		owners = append(owners, t)
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	ac := builder.Build(patterns)

	linked := wikilink.Extract(note.Body)

	var mentions []Mention
	for _, m := range ac.FindAll(note.Body) {
		if insideLink(linked, m.Start(), m.End()) {
			continue
		}
		owner := owners[m.Pattern()]
		mentions = append(mentions, Mention{
			NoteID: owner.ID,
			Title:  owner.Title,
			Start:  m.Start(),
			End:    m.End(),
			Text:   note.Body[m.Start():m.End()],
		})
	}

	s.log.Debug("mentions scanned", "note", noteID, "candidates", len(patterns), "mentions", len(mentions))
	return mentions, nil
}

// insideLink reports whether the byte span overlaps any wikilink occurrence.
func insideLink(links []wikilink.Link, start, end int) bool {
	for _, l := range links {
		if start < l.End && end > l.Start {
			return true
		}
	}
	return false
}
