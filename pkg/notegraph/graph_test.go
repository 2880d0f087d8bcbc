package notegraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticenotes/lattice/internal/store"
	"github.com/latticenotes/lattice/pkg/wikilink"
)

// runGraphTests runs a test against the graph service on both store
// implementations.
func runGraphTests(t *testing.T, testName string, testFn func(t *testing.T, svc *Service, st store.Storer)) {
	factories := map[string]func() (store.Storer, error){
		"MemStore":    func() (store.Storer, error) { return store.NewMemStore(), nil },
		"SQLiteStore": func() (store.Storer, error) { return store.NewSQLiteStore() },
	}

	for name, factory := range factories {
		t.Run(name+"/"+testName, func(t *testing.T) {
			st, err := factory()
			require.NoError(t, err, "Failed to create store")
			defer st.Close()
			testFn(t, NewService(st, nil), st)
		})
	}
}

func graphNote(id, title string, ts int64) *store.Note {
	return &store.Note{
		ID:        id,
		Title:     title,
		NormTitle: wikilink.NormalizeTitle(title),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func resolvedLink(id, source, target string, ts int64) *store.NoteLink {
	return &store.NoteLink{
		ID:           id,
		SourceNoteID: source,
		TargetNoteID: target,
		Kind:         store.LinkKindPlain,
		CreatedAt:    ts,
	}
}

func unresolvedLink(id, source, text string, ts int64) *store.NoteLink {
	return &store.NoteLink{
		ID:               id,
		SourceNoteID:     source,
		UnresolvedTarget: text,
		Kind:             store.LinkKindPlain,
		CreatedAt:        ts,
	}
}

func mustCreateNotes(t *testing.T, st store.Storer, notes ...*store.Note) {
	t.Helper()
	for _, n := range notes {
		require.NoError(t, st.CreateNote(n))
	}
}

func mustInsertLinks(t *testing.T, st store.Storer, links ...*store.NoteLink) {
	t.Helper()
	for _, l := range links {
		require.NoError(t, st.InsertNoteLink(l))
	}
}

// nodeDepths flattens a traversal result for assertions.
func nodeDepths(g *Graph) map[string]int {
	depths := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		depths[n.ID] = n.Depth
	}
	return depths
}

// =============================================================================
// Outgoing Links
// =============================================================================

func TestOutgoingLinksRendersResolvedAndUnresolved(t *testing.T) {
	runGraphTests(t, "OutgoingMixed", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st,
			graphNote("a", "Alpha", 100),
			graphNote("b", "Bravo", 100),
		)
		heading := resolvedLink("l1", "a", "b", 200)
		heading.Kind = store.LinkKindHeading
		mustInsertLinks(t, st,
			heading,
			unresolvedLink("l2", "a", "Missing Note", 300),
		)

		summaries, err := svc.OutgoingLinks("a")
		require.NoError(t, err)
		require.Len(t, summaries, 2)

		assert.Equal(t, LinkSummary{NoteID: "b", Title: "Bravo", Kind: "heading", Resolved: true}, summaries[0])
		assert.Equal(t, LinkSummary{NoteID: "unresolved:Missing Note", Title: "Missing Note", Kind: "plain"}, summaries[1])
	})
}

func TestOutgoingLinksUnknownNote(t *testing.T) {
	runGraphTests(t, "OutgoingUnknown", func(t *testing.T, svc *Service, st store.Storer) {
		summaries, err := svc.OutgoingLinks("nope")
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})
}

// =============================================================================
// Backlinks
// =============================================================================

func TestBacklinksOrderedAndDistinct(t *testing.T) {
	runGraphTests(t, "Backlinks", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st,
			graphNote("t", "Target", 100),
			graphNote("s1", "Charlie", 100),
			graphNote("s2", "Alpha", 100),
			graphNote("s3", "Bravo", 100),
		)
		mustInsertLinks(t, st,
			resolvedLink("l1", "s1", "t", 200),
			resolvedLink("l2", "s2", "t", 300),
			// Second link from the same source counts once
			resolvedLink("l3", "s2", "t", 400),
			resolvedLink("l4", "s3", "t", 500),
			// Unresolved link carrying the same title is not a backlink
			unresolvedLink("l5", "s1", "Target", 600),
		)

		sources, err := svc.Backlinks("t")
		require.NoError(t, err)
		require.Len(t, sources, 3)
		assert.Equal(t, "Alpha", sources[0].Title)
		assert.Equal(t, "Bravo", sources[1].Title)
		assert.Equal(t, "Charlie", sources[2].Title)
	})
}

func TestBacklinksNone(t *testing.T) {
	runGraphTests(t, "BacklinksNone", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st, graphNote("lonely", "Lonely", 100))

		sources, err := svc.Backlinks("lonely")
		require.NoError(t, err)
		assert.Empty(t, sources)
	})
}

// =============================================================================
// Neighbors
// =============================================================================

func TestNeighborsNegativeDepth(t *testing.T) {
	runGraphTests(t, "NegativeDepth", func(t *testing.T, svc *Service, st store.Storer) {
		_, err := svc.Neighbors("x", -1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNegativeDepth))
	})
}

func TestNeighborsUnknownOrigin(t *testing.T) {
	runGraphTests(t, "UnknownOrigin", func(t *testing.T, svc *Service, st store.Storer) {
		g, err := svc.Neighbors("ghost", 3)
		require.NoError(t, err)
		assert.Empty(t, g.Nodes)
		assert.Empty(t, g.Edges)
	})
}

func TestNeighborsDepthZero(t *testing.T) {
	runGraphTests(t, "DepthZero", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st,
			graphNote("x", "Hub", 100),
			graphNote("y", "Spoke", 100),
		)
		mustInsertLinks(t, st,
			resolvedLink("l1", "x", "y", 200),
			resolvedLink("l2", "y", "x", 300),
		)

		g, err := svc.Neighbors("x", 0)
		require.NoError(t, err)
		require.Len(t, g.Nodes, 1)
		assert.Equal(t, GraphNode{ID: "x", Title: "Hub", Depth: 0}, g.Nodes[0])
		assert.Empty(t, g.Edges)
	})
}

func TestNeighborsCycle(t *testing.T) {
	runGraphTests(t, "Cycle", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st,
			graphNote("a", "A", 100),
			graphNote("b", "B", 100),
			graphNote("c", "C", 100),
		)
		mustInsertLinks(t, st,
			resolvedLink("l1", "a", "b", 200),
			resolvedLink("l2", "b", "c", 300),
			resolvedLink("l3", "c", "a", 400),
		)

		g, err := svc.Neighbors("a", 10)
		require.NoError(t, err)

		depths := nodeDepths(g)
		require.Len(t, depths, 3, "each node appears exactly once")
		assert.Equal(t, 0, depths["a"])
		assert.Equal(t, 1, depths["b"], "reached via outgoing a->b")
		assert.Equal(t, 1, depths["c"], "reached via incoming c->a")
		assert.Len(t, g.Edges, 3)
	})
}

func TestNeighborsDepthLimited(t *testing.T) {
	runGraphTests(t, "DepthLimited", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st,
			graphNote("a", "A", 100),
			graphNote("b", "B", 100),
			graphNote("c", "C", 100),
			graphNote("d", "D", 100),
		)
		mustInsertLinks(t, st,
			resolvedLink("l1", "a", "b", 200),
			resolvedLink("l2", "b", "c", 300),
			resolvedLink("l3", "c", "d", 400),
		)

		g, err := svc.Neighbors("a", 2)
		require.NoError(t, err)

		depths := nodeDepths(g)
		require.Len(t, depths, 3)
		assert.Equal(t, 0, depths["a"])
		assert.Equal(t, 1, depths["b"])
		assert.Equal(t, 2, depths["c"])

		// c sits at the frontier, so c->d is never observed
		require.Len(t, g.Edges, 2)
		edgeIDs := []string{g.Edges[0].ID, g.Edges[1].ID}
		assert.ElementsMatch(t, []string{"l1", "l2"}, edgeIDs)
	})
}

func TestNeighborsFollowsIncoming(t *testing.T) {
	runGraphTests(t, "FollowsIncoming", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st,
			graphNote("x", "X", 100),
			graphNote("z", "Z", 100),
		)
		mustInsertLinks(t, st, resolvedLink("l1", "z", "x", 200))

		g, err := svc.Neighbors("x", 1)
		require.NoError(t, err)

		depths := nodeDepths(g)
		require.Len(t, depths, 2)
		assert.Equal(t, 0, depths["x"])
		assert.Equal(t, 1, depths["z"])
		require.Len(t, g.Edges, 1)
		assert.Equal(t, GraphEdge{ID: "l1", SourceID: "z", TargetID: "x", Kind: "plain"}, g.Edges[0])
	})
}

func TestNeighborsSelfLink(t *testing.T) {
	runGraphTests(t, "SelfLink", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st, graphNote("a", "Recursive", 100))
		mustInsertLinks(t, st, resolvedLink("l1", "a", "a", 200))

		g, err := svc.Neighbors("a", 3)
		require.NoError(t, err)
		require.Len(t, g.Nodes, 1)
		assert.Len(t, g.Edges, 1)
	})
}

func TestNeighborsSkipsUnresolved(t *testing.T) {
	runGraphTests(t, "SkipsUnresolved", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st, graphNote("a", "A", 100))
		mustInsertLinks(t, st, unresolvedLink("l1", "a", "Nowhere", 200))

		g, err := svc.Neighbors("a", 5)
		require.NoError(t, err)
		require.Len(t, g.Nodes, 1)
		assert.Empty(t, g.Edges)
	})
}

func TestNeighborsEdgeKindPreserved(t *testing.T) {
	runGraphTests(t, "EdgeKind", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st,
			graphNote("a", "A", 100),
			graphNote("b", "B", 100),
		)
		block := resolvedLink("l1", "a", "b", 200)
		block.Kind = store.LinkKindBlock
		mustInsertLinks(t, st, block)

		g, err := svc.Neighbors("a", 1)
		require.NoError(t, err)
		require.Len(t, g.Edges, 1)
		assert.Equal(t, "block", g.Edges[0].Kind)
	})
}

// =============================================================================
// Unresolved Aggregation
// =============================================================================

func TestUnresolvedLinksAggregation(t *testing.T) {
	runGraphTests(t, "UnresolvedAggregation", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st,
			graphNote("s1", "One", 100),
			graphNote("s2", "Two", 100),
			graphNote("s3", "Three", 100),
		)
		mustInsertLinks(t, st,
			unresolvedLink("l1", "s1", "Road Map", 200),
			unresolvedLink("l2", "s2", "Road Map", 300),
			unresolvedLink("l3", "s3", "Road Map", 400),
			unresolvedLink("l4", "s2", "Beta Plan", 500),
			unresolvedLink("l5", "s3", "Alpha Plan", 600),
		)

		groups, err := svc.UnresolvedLinks()
		require.NoError(t, err)
		require.Len(t, groups, 3)

		assert.Equal(t, UnresolvedGroup{Title: "Road Map", ExampleSourceID: "s1", Count: 3}, groups[0])
		assert.Equal(t, UnresolvedGroup{Title: "Alpha Plan", ExampleSourceID: "s3", Count: 1}, groups[1])
		assert.Equal(t, UnresolvedGroup{Title: "Beta Plan", ExampleSourceID: "s2", Count: 1}, groups[2])
	})
}

func TestUnresolvedLinksEmpty(t *testing.T) {
	runGraphTests(t, "UnresolvedEmpty", func(t *testing.T, svc *Service, st store.Storer) {
		groups, err := svc.UnresolvedLinks()
		require.NoError(t, err)
		assert.Empty(t, groups)
	})
}

// =============================================================================
// Orphan / Connected Partition
// =============================================================================

func TestOrphanConnectedPartition(t *testing.T) {
	runGraphTests(t, "Partition", func(t *testing.T, svc *Service, st store.Storer) {
		mustCreateNotes(t, st,
			graphNote("a", "Linked Source", 100),
			graphNote("b", "Linked Target", 100),
			graphNote("c", "Island", 100),
			graphNote("d", "Pending Only", 100),
		)
		mustInsertLinks(t, st,
			resolvedLink("l1", "a", "b", 200),
			// An unresolved outgoing link still connects its source
			unresolvedLink("l2", "d", "Someday", 300),
		)

		orphans, err := svc.OrphanNotes()
		require.NoError(t, err)
		connected, err := svc.ConnectedNotes()
		require.NoError(t, err)

		require.Len(t, orphans, 1)
		assert.Equal(t, "Island", orphans[0].Title)

		require.Len(t, connected, 3)
		assert.Equal(t, "Linked Source", connected[0].Title)
		assert.Equal(t, "Linked Target", connected[1].Title)
		assert.Equal(t, "Pending Only", connected[2].Title)

		seen := make(map[string]bool)
		for _, n := range append(orphans, connected...) {
			assert.False(t, seen[n.ID], "note %s appears in both partitions", n.ID)
			seen[n.ID] = true
		}
		assert.Len(t, seen, 4)
	})
}
