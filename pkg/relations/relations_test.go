package relations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticenotes/lattice/internal/store"
	"github.com/latticenotes/lattice/pkg/wikilink"
)

// runRelationTests runs a test against the relation service on both store
// implementations.
func runRelationTests(t *testing.T, testName string, testFn func(t *testing.T, svc *Service, st store.Storer)) {
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

func relationNote(id, title string) *store.Note {
	return &store.Note{
		ID:        id,
		Title:     title,
		NormTitle: wikilink.NormalizeTitle(title),
		CreatedAt: 100,
		UpdatedAt: 100,
	}
}

func relationTask(id, title string) *store.Task {
	return &store.Task{ID: id, Title: title, CreatedAt: 100, UpdatedAt: 100}
}

// =============================================================================
// Task Registration
// =============================================================================

func TestRegisterTask(t *testing.T) {
	runRelationTests(t, "RegisterTask", func(t *testing.T, svc *Service, st store.Storer) {
		task, err := svc.RegisterTask("  Ship the release  ", "cut a tag, publish")
		require.NoError(t, err)
		require.NotNil(t, task)

		assert.NotEmpty(t, task.ID)
		assert.Equal(t, "Ship the release", task.Title)
		assert.Equal(t, "cut a tag, publish", task.Description)
		assert.Greater(t, task.CreatedAt, int64(0))

		stored, err := st.GetTask(task.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, task.Title, stored.Title)
	})
}

func TestRegisterTaskEmptyTitle(t *testing.T) {
	runRelationTests(t, "RegisterTaskEmpty", func(t *testing.T, svc *Service, st store.Storer) {
		_, err := svc.RegisterTask("   ", "")
		assert.True(t, errors.Is(err, ErrEmptyTitle))
	})
}

// =============================================================================
// Relation Creation
// =============================================================================

func TestCreateRelationBasic(t *testing.T) {
	runRelationTests(t, "CreateBasic", func(t *testing.T, svc *Service, st store.Storer) {
		require.NoError(t, st.CreateNote(relationNote("n1", "Design Doc")))
		require.NoError(t, st.UpsertTask(relationTask("t1", "Implement It")))

		rel, err := svc.CreateRelation("t1", "n1", store.RelationSpec)
		require.NoError(t, err)
		require.NotNil(t, rel)

		assert.NotEmpty(t, rel.ID)
		assert.Equal(t, "t1", rel.TaskID)
		assert.Equal(t, "n1", rel.NoteID)
		assert.Equal(t, "spec", rel.Kind)

		rows, err := st.ListRelationsByNote("n1")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, rel.ID, rows[0].ID)
	})
}

func TestCreateRelationAllKinds(t *testing.T) {
	runRelationTests(t, "AllKinds", func(t *testing.T, svc *Service, st store.Storer) {
		require.NoError(t, st.CreateNote(relationNote("n1", "Kinds")))
		require.NoError(t, st.UpsertTask(relationTask("t1", "Task")))

		kinds := []string{
			store.RelationReference,
			store.RelationSpec,
			store.RelationMeeting,
			store.RelationEvidence,
			store.RelationDerived,
		}
		for _, kind := range kinds {
			_, err := svc.CreateRelation("t1", "n1", kind)
			require.NoError(t, err, "kind %q should be accepted", kind)
		}

		rows, err := st.ListRelationsByNote("n1")
		require.NoError(t, err)
		assert.Len(t, rows, len(kinds))
	})
}

func TestCreateRelationInvalidKind(t *testing.T) {
	runRelationTests(t, "InvalidKind", func(t *testing.T, svc *Service, st store.Storer) {
		_, err := svc.CreateRelation("t1", "n1", "sibling")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidKind))
		assert.Contains(t, err.Error(), "sibling")
	})
}

func TestCreateRelationMissingSides(t *testing.T) {
	runRelationTests(t, "MissingSides", func(t *testing.T, svc *Service, st store.Storer) {
		require.NoError(t, st.CreateNote(relationNote("n1", "Exists")))

		_, err := svc.CreateRelation("t1", "ghost", store.RelationReference)
		assert.True(t, errors.Is(err, ErrNoteNotFound))

		_, err = svc.CreateRelation("ghost", "n1", store.RelationReference)
		assert.True(t, errors.Is(err, ErrTaskNotFound))
	})
}

func TestCreateRelationDuplicatesAllowed(t *testing.T) {
	runRelationTests(t, "Duplicates", func(t *testing.T, svc *Service, st store.Storer) {
		require.NoError(t, st.CreateNote(relationNote("n1", "Twice")))
		require.NoError(t, st.UpsertTask(relationTask("t1", "Task")))

		first, err := svc.CreateRelation("t1", "n1", store.RelationReference)
		require.NoError(t, err)
		second, err := svc.CreateRelation("t1", "n1", store.RelationReference)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		rows, err := st.ListRelationsByNote("n1")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

// =============================================================================
// Relation Deletion
// =============================================================================

func TestDeleteRelation(t *testing.T) {
	runRelationTests(t, "Delete", func(t *testing.T, svc *Service, st store.Storer) {
		require.NoError(t, st.CreateNote(relationNote("n1", "Doc")))
		require.NoError(t, st.UpsertTask(relationTask("t1", "Task")))

		rel, err := svc.CreateRelation("t1", "n1", store.RelationMeeting)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteRelation(rel.ID))

		rows, err := st.ListRelationsByNote("n1")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestDeleteRelationUnknownIsNoOp(t *testing.T) {
	runRelationTests(t, "DeleteUnknown", func(t *testing.T, svc *Service, st store.Storer) {
		assert.NoError(t, svc.DeleteRelation("never-existed"))
	})
}

// =============================================================================
// Related Entities
// =============================================================================

func TestRelatedTasksDistinctAndOrdered(t *testing.T) {
	runRelationTests(t, "RelatedTasks", func(t *testing.T, svc *Service, st store.Storer) {
		require.NoError(t, st.CreateNote(relationNote("n1", "Hub")))
		require.NoError(t, st.UpsertTask(relationTask("t1", "First")))
		require.NoError(t, st.UpsertTask(relationTask("t2", "Second")))

		rows := []*store.TaskNoteRelation{
			{ID: "r1", TaskID: "t1", NoteID: "n1", Kind: store.RelationReference, CreatedAt: 200},
			{ID: "r2", TaskID: "t2", NoteID: "n1", Kind: store.RelationReference, CreatedAt: 300},
			{ID: "r3", TaskID: "t1", NoteID: "n1", Kind: store.RelationEvidence, CreatedAt: 400},
			// Task side no longer exists: skipped, not an error
			{ID: "r4", TaskID: "gone", NoteID: "n1", Kind: store.RelationReference, CreatedAt: 500},
		}
		for _, r := range rows {
			require.NoError(t, st.InsertTaskNoteRelation(r))
		}

		tasks, err := svc.RelatedTasks("n1")
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "First", tasks[0].Title)
		assert.Equal(t, "Second", tasks[1].Title)
	})
}

func TestRelatedNotesDistinctAndOrdered(t *testing.T) {
	runRelationTests(t, "RelatedNotes", func(t *testing.T, svc *Service, st store.Storer) {
		require.NoError(t, st.UpsertTask(relationTask("t1", "Task")))
		require.NoError(t, st.CreateNote(relationNote("n1", "Meeting Notes")))
		require.NoError(t, st.CreateNote(relationNote("n2", "Evidence Log")))

		rows := []*store.TaskNoteRelation{
			{ID: "r1", TaskID: "t1", NoteID: "n2", Kind: store.RelationEvidence, CreatedAt: 200},
			{ID: "r2", TaskID: "t1", NoteID: "n1", Kind: store.RelationMeeting, CreatedAt: 300},
			{ID: "r3", TaskID: "t1", NoteID: "n2", Kind: store.RelationReference, CreatedAt: 400},
		}
		for _, r := range rows {
			require.NoError(t, st.InsertTaskNoteRelation(r))
		}

		notes, err := svc.RelatedNotes("t1")
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, "Evidence Log", notes[0].Title)
		assert.Equal(t, "Meeting Notes", notes[1].Title)
	})
}

func TestRelatedEmpty(t *testing.T) {
	runRelationTests(t, "RelatedEmpty", func(t *testing.T, svc *Service, st store.Storer) {
		tasks, err := svc.RelatedTasks("nothing")
		require.NoError(t, err)
		assert.Empty(t, tasks)

		notes, err := svc.RelatedNotes("nothing")
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}
