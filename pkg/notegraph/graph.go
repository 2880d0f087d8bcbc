// Package notegraph answers graph-style queries over the note link table:
// outgoing links, backlinks, bounded neighborhood traversal, unresolved-link
// aggregation and the orphan/connected partition. All operations are
// read-only; link rows are written exclusively by the notes package.
package notegraph

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/latticenotes/lattice/internal/store"
)

// ErrNegativeDepth is returned when a traversal is requested with depth < 0.
var ErrNegativeDepth = errors.New("traversal depth is negative")

// UnresolvedIDPrefix marks the synthetic id of a link whose target note does
// not exist yet. Callers render these as "missing note" entries.
const UnresolvedIDPrefix = "unresolved:"

// =============================================================================
// Result Types
// =============================================================================

// LinkSummary renders one outgoing link as a note reference. Unresolved
// links carry a synthetic id so callers need no special-casing.
type LinkSummary struct {
	NoteID   string `json:"noteId"`
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Resolved bool   `json:"resolved"`
}

// GraphNode is one note reached by a neighborhood traversal.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Depth int    `json:"depth"`
}

// GraphEdge is one resolved link between two traversed notes.
type GraphEdge struct {
	ID       string `json:"id"`
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	Kind     string `json:"kind"`
}

// Graph is the node/edge set produced by Neighbors.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// UnresolvedGroup aggregates the unresolved links sharing one target title.
type UnresolvedGroup struct {
	Title           string `json:"title"`
	ExampleSourceID string `json:"exampleSourceId"`
	Count           int    `json:"count"`
}

// =============================================================================
// Service
// =============================================================================

// Service exposes read-only graph queries over a note store.
type Service struct {
	store store.Storer
	log   *slog.Logger
}

// NewService creates a graph service. A nil logger disables logging.
func NewService(st store.Storer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: st, log: log}
}

// OutgoingLinks returns every link owned by the note, resolved links as the
// target note's id and title, unresolved links as a synthetic id plus the
// raw link text.
func (s *Service) OutgoingLinks(noteID string) ([]LinkSummary, error) {
	links, err := s.store.ListNoteLinksBySource(noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links for note %s: %w", noteID, err)
	}

	summaries := make([]LinkSummary, 0, len(links))
	for _, l := range links {
		if !l.Resolved() {
			summaries = append(summaries, LinkSummary{
				NoteID: UnresolvedIDPrefix + l.UnresolvedTarget,
				Title:  l.UnresolvedTarget,
				Kind:   l.Kind,
			})
			continue
		}
		target, err := s.store.GetNote(l.TargetNoteID)
		if err != nil {
			return nil, fmt.Errorf("failed to get note %s: %w", l.TargetNoteID, err)
		}
		if target == nil {
			// Target vanished between queries
			continue
		}
		summaries = append(summaries, LinkSummary{
			NoteID:   target.ID,
			Title:    target.Title,
			Kind:     l.Kind,
			Resolved: true,
		})
	}
	return summaries, nil
}

// Backlinks returns the distinct notes whose outgoing links resolve to the
// given note, ordered by source title.
func (s *Service) Backlinks(noteID string) ([]*store.Note, error) {
	links, err := s.store.ListNoteLinksByTarget(noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list backlinks for note %s: %w", noteID, err)
	}

	seen := make(map[string]bool)
	sources := make([]*store.Note, 0, len(links))
	for _, l := range links {
		if seen[l.SourceNoteID] {
			continue
		}
		seen[l.SourceNoteID] = true
		src, err := s.store.GetNote(l.SourceNoteID)
		if err != nil {
			return nil, fmt.Errorf("failed to get note %s: %w", l.SourceNoteID, err)
		}
		if src == nil {
			// Source vanished between queries
			continue
		}
		sources = append(sources, src)
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Title != sources[j].Title {
			return sources[i].Title < sources[j].Title
		}
		return sources[i].ID < sources[j].ID
	})
	return sources, nil
}

// Neighbors performs a breadth-first traversal from the origin note, following
// links in both directions, up to depth hops. Depth 0 returns only the origin.
// An unknown origin returns an empty graph. Each note is visited at most once,
// so cyclic link graphs terminate. Nodes at the depth frontier are not
// expanded.
func (s *Service) Neighbors(originID string, depth int) (*Graph, error) {
	if depth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDepth, depth)
	}

	g := &Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}

	origin, err := s.store.GetNote(originID)
	if err != nil {
		return nil, fmt.Errorf("failed to get note %s: %w", originID, err)
	}
	if origin == nil {
		return g, nil
	}

	type queueItem struct {
		id    string
		depth int
	}

	notes := map[string]*store.Note{originID: origin}
	visited := map[string]bool{originID: true}
	seenEdges := make(map[string]bool)
	queue := []queueItem{{id: originID, depth: 0}}
	g.Nodes = append(g.Nodes, GraphNode{ID: origin.ID, Title: origin.Title, Depth: 0})

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= depth {
			continue
		}

		outgoing, err := s.store.ListNoteLinksBySource(current.id)
		if err != nil {
			return nil, fmt.Errorf("failed to list links for note %s: %w", current.id, err)
		}
		incoming, err := s.store.ListNoteLinksByTarget(current.id)
		if err != nil {
			return nil, fmt.Errorf("failed to list backlinks for note %s: %w", current.id, err)
		}

		for _, l := range append(outgoing, incoming...) {
			if !l.Resolved() {
				continue
			}
			otherID := l.TargetNoteID
			if otherID == current.id {
				otherID = l.SourceNoteID
			}

			other, ok := notes[otherID]
			if !ok {
				other, err = s.store.GetNote(otherID)
				if err != nil {
					return nil, fmt.Errorf("failed to get note %s: %w", otherID, err)
				}
				notes[otherID] = other
			}
			if other == nil {
				// Endpoint vanished between queries
				continue
			}

			// A link shows up from both of its endpoints
			if !seenEdges[l.ID] {
				seenEdges[l.ID] = true
				g.Edges = append(g.Edges, GraphEdge{
					ID:       l.ID,
					SourceID: l.SourceNoteID,
					TargetID: l.TargetNoteID,
					Kind:     l.Kind,
				})
			}

			if visited[otherID] {
				continue
			}
			visited[otherID] = true
			g.Nodes = append(g.Nodes, GraphNode{ID: other.ID, Title: other.Title, Depth: current.depth + 1})
			queue = append(queue, queueItem{id: otherID, depth: current.depth + 1})
		}
	}

	s.log.Debug("neighborhood traversed",
		"origin", originID, "depth", depth, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

// UnresolvedLinks aggregates unresolved links by their stored target text,
// ordered by occurrence count descending then title ascending. Surfaces which
// notes are worth creating next.
func (s *Service) UnresolvedLinks() ([]UnresolvedGroup, error) {
	links, err := s.store.ListUnresolvedNoteLinks()
	if err != nil {
		return nil, fmt.Errorf("failed to list unresolved links: %w", err)
	}

	byTitle := make(map[string]*UnresolvedGroup)
	for _, l := range links {
		g, ok := byTitle[l.UnresolvedTarget]
		if !ok {
			g = &UnresolvedGroup{Title: l.UnresolvedTarget, ExampleSourceID: l.SourceNoteID}
			byTitle[l.UnresolvedTarget] = g
		}
		g.Count++
	}

	groups := make([]UnresolvedGroup, 0, len(byTitle))
	for _, g := range byTitle {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Title < groups[j].Title
	})
	return groups, nil
}

// OrphanNotes returns the notes with no links in either direction, ordered
// by title. An unresolved outgoing link still counts as a link.
func (s *Service) OrphanNotes() ([]*store.Note, error) {
	notes, err := s.store.ListOrphanNotes()
	if err != nil {
		return nil, fmt.Errorf("failed to list orphan notes: %w", err)
	}
	return notes, nil
}

// ConnectedNotes returns the complement of OrphanNotes: every note with at
// least one link in either direction, ordered by title.
func (s *Service) ConnectedNotes() ([]*store.Note, error) {
	notes, err := s.store.ListConnectedNotes()
	if err != nil {
		return nil, fmt.Errorf("failed to list connected notes: %w", err)
	}
	return notes, nil
}
