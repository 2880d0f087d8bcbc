// Package search implements the ranked unified search across notes and
// tasks: case-insensitive substring matching with title/body weighting,
// deterministic tie-breaking, pagination and optional related-entity
// annotation.
package search

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/latticenotes/lattice/internal/store"
)

var (
	// ErrBadPagination is returned for a negative limit or offset.
	ErrBadPagination = errors.New("limit and offset must not be negative")
	// ErrUnknownType is returned when a type filter names anything other
	// than "note" or "task".
	ErrUnknownType = errors.New("unknown search type")
)

const (
	// TypeNote marks a result backed by a note.
	TypeNote = "note"
	// TypeTask marks a result backed by a task.
	TypeTask = "task"

	// DefaultLimit applies when the caller leaves the limit unset.
	DefaultLimit = 20
	// QuickLimit caps QuickSearch results.
	QuickLimit = 10

	scoreTitle = 100
	scoreBody  = 50

	// snippetRadius bounds the bytes kept on each side of a body match.
	snippetRadius = 40

	// maxRelated caps the related ids attached per result.
	maxRelated = 5
)

// Options controls a Search call. The zero value searches both types with
// the default limit and no related annotation.
type Options struct {
	Limit          int
	Offset         int
	Types          []string
	IncludeRelated bool
}

// Result is one ranked search hit.
type Result struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Snippet    string   `json:"snippet"`
	Score      int      `json:"score"`
	RelatedIDs []string `json:"relatedIds,omitempty"`
}

// Service runs unified searches over a note/task store.
type Service struct {
	store store.Storer
	log   *slog.Logger
}

// NewService creates a search service. A nil logger disables logging.
func NewService(st store.Storer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: st, log: log}
}

// Search runs the query against notes and tasks, ranks the merged results
// and returns the requested page. An empty or whitespace query returns an
// empty result set without touching storage.
func (s *Service) Search(query string, opts Options) ([]Result, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Result{}, nil
	}

	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, fmt.Errorf("%w: limit %d, offset %d", ErrBadPagination, opts.Limit, opts.Offset)
	}
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	wantNotes, wantTasks, err := parseTypes(opts.Types)
	if err != nil {
		return nil, err
	}

	var results []Result
	if wantNotes {
		notes, err := s.store.SearchNotes(q)
		if err != nil {
			return nil, fmt.Errorf("failed to search notes: %w", err)
		}
		for _, n := range notes {
			results = append(results, scoreNote(n, q))
		}
	}
	if wantTasks {
		tasks, err := s.store.SearchTasks(q)
		if err != nil {
			return nil, fmt.Errorf("failed to search tasks: %w", err)
		}
		for _, tk := range tasks {
			results = append(results, scoreTask(tk, q))
		}
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		// Notes win exact score ties
		if a.Type != b.Type {
			return a.Type == TypeNote
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})

	if opts.Offset >= len(results) {
		return []Result{}, nil
	}
	results = results[opts.Offset:]
	if len(results) > limit {
		results = results[:limit]
	}

	if opts.IncludeRelated {
		if err := s.annotateRelated(results); err != nil {
			return nil, err
		}
	}

	s.log.Debug("search executed", "query", q, "results", len(results))
	return results, nil
}

// QuickSearch is the latency-sensitive variant: related annotation disabled
// and results capped at QuickLimit.
func (s *Service) QuickSearch(query string) ([]Result, error) {
	return s.Search(query, Options{Limit: QuickLimit})
}

func parseTypes(types []string) (wantNotes, wantTasks bool, err error) {
	if len(types) == 0 {
		return true, true, nil
	}
	for _, t := range types {
		switch t {
		case TypeNote:
			wantNotes = true
		case TypeTask:
			wantTasks = true
		default:
			return false, false, fmt.Errorf("%w: %q", ErrUnknownType, t)
		}
	}
	return wantNotes, wantTasks, nil
}

func scoreNote(n *store.Note, q string) Result {
	r := Result{ID: n.ID, Type: TypeNote, Title: n.Title}
	if strings.Contains(strings.ToLower(n.Title), q) {
		r.Score = scoreTitle
		r.Snippet = n.Title
		return r
	}
	r.Score = scoreBody
	r.Snippet = bodySnippet(n.Body, q)
	if r.Snippet == "" {
		r.Snippet = n.Title
	}
	return r
}

func scoreTask(tk *store.Task, q string) Result {
	r := Result{ID: tk.ID, Type: TypeTask, Title: tk.Title}
	if strings.Contains(strings.ToLower(tk.Title), q) {
		r.Score = scoreTitle
		r.Snippet = tk.Title
		return r
	}
	r.Score = scoreBody
	r.Snippet = bodySnippet(tk.Description, q)
	if r.Snippet == "" {
		r.Snippet = tk.Title
	}
	return r
}

// bodySnippet returns a bounded, rune-safe window around the first query
// occurrence, with ellipses where the window clips the body. Returns "" when
// the query does not occur.
func bodySnippet(body, q string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, q)
	if idx < 0 {
		return ""
	}
	if len(lower) != len(body) {
		// Case folding shifted byte offsets; only trust an exact match
		idx = strings.Index(body, q)
		if idx < 0 {
			return ""
		}
	}

	start := idx - snippetRadius
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(body[start]) {
		start--
	}

	end := idx + len(q) + snippetRadius
	if end > len(body) {
		end = len(body)
	}
	for end < len(body) && !utf8.RuneStart(body[end]) {
		end++
	}

	snippet := body[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(body) {
		snippet += "..."
	}
	return snippet
}

func (s *Service) annotateRelated(results []Result) error {
	for i, r := range results {
		switch r.Type {
		case TypeNote:
			rels, err := s.store.ListRelationsByNote(r.ID)
			if err != nil {
				return fmt.Errorf("failed to list relations for note %s: %w", r.ID, err)
			}
			results[i].RelatedIDs = distinctRelatedIDs(rels, func(rel *store.TaskNoteRelation) string {
				return rel.TaskID
			})
		case TypeTask:
			rels, err := s.store.ListRelationsByTask(r.ID)
			if err != nil {
				return fmt.Errorf("failed to list relations for task %s: %w", r.ID, err)
			}
			results[i].RelatedIDs = distinctRelatedIDs(rels, func(rel *store.TaskNoteRelation) string {
				return rel.NoteID
			})
		}
	}
	return nil
}

// distinctRelatedIDs keeps the first maxRelated distinct ids in row order.
func distinctRelatedIDs(rels []*store.TaskNoteRelation, pick func(*store.TaskNoteRelation) string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, rel := range rels {
		id := pick(rel)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if len(ids) == maxRelated {
			break
		}
	}
	return ids
}
