// Package store provides persistence for Lattice notes, links, tasks and
// task-note relations. SQLiteStore is the production implementation;
// MemStore mirrors it for tests.
package store

import "encoding/json"

// Note is a markdown document in the knowledge base.
// NormTitle is the identity key: lower-cased, trimmed, internal whitespace
// collapsed. Two titles name the same note iff their NormTitle is equal.
type Note struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	NormTitle  string          `json:"-"`
	FolderPath string          `json:"folderPath,omitempty"`
	Body       string          `json:"body"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedBy  string          `json:"createdBy,omitempty"`
	CreatedAt  int64           `json:"createdAt"`
	UpdatedAt  int64           `json:"updatedAt"`
}

// NoteLink is one wikilink occurrence owned by a source note. Exactly one of
// TargetNoteID ("" = null) and UnresolvedTarget is set at all times. Link
// rows are derived data: the owning note's full link set is regenerated on
// every body write.
type NoteLink struct {
	ID               string `json:"id"`
	SourceNoteID     string `json:"sourceNoteId"`
	TargetNoteID     string `json:"targetNoteId,omitempty"`
	UnresolvedTarget string `json:"unresolvedTarget,omitempty"`
	Kind             string `json:"kind"`
	CreatedAt        int64  `json:"createdAt"`
}

// Resolved reports whether the link currently points at an existing note.
func (l *NoteLink) Resolved() bool {
	return l.TargetNoteID != ""
}

// Link kinds, matching the three wikilink reference forms.
const (
	LinkKindPlain   = "plain"
	LinkKindHeading = "heading"
	LinkKindBlock   = "block"
)

// Task is the external task entity. Only the surface that search and
// relations consume lives here; board/column management is elsewhere.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// TaskNoteRelation ties a task to a note. Created and deleted explicitly by
// the caller; no automatic lifecycle.
type TaskNoteRelation struct {
	ID        string `json:"id"`
	TaskID    string `json:"taskId"`
	NoteID    string `json:"noteId"`
	Kind      string `json:"kind"`
	CreatedAt int64  `json:"createdAt"`
}

// Relation kinds accepted by CreateRelation.
const (
	RelationReference = "reference"
	RelationSpec      = "spec"
	RelationMeeting   = "meeting"
	RelationEvidence  = "evidence"
	RelationDerived   = "derived"
)

// ValidRelationKind reports whether kind is one of the enumerated relation
// kinds.
func ValidRelationKind(kind string) bool {
	switch kind {
	case RelationReference, RelationSpec, RelationMeeting, RelationEvidence, RelationDerived:
		return true
	}
	return false
}

// NoteTitle is the id/title projection used by resolution, mention scanning
// and title suggestions.
type NoteTitle struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NoteEmbedding is a note's vector representation. Vectors are produced by
// an external embedding model and handed in by the caller; the store only
// persists them.
type NoteEmbedding struct {
	NoteID    string    `json:"noteId"`
	Embedding []float32 `json:"embedding"`
}

// NoteFilter narrows ListNotes. Zero values mean "no constraint"; Limit <= 0
// means no limit.
type NoteFilter struct {
	FolderPath string
	CreatedBy  string
	Limit      int
	Offset     int
}

// Storer defines the interface for data persistence.
// This allows swapping between MemStore (testing) and SQLiteStore (production).
type Storer interface {
	// Notes
	CreateNote(note *Note) error
	GetNote(id string) (*Note, error)
	GetNoteByNormTitle(normTitle string) (*Note, error)
	UpdateNote(note *Note) error
	DeleteNote(id string) error
	ListNotes(filter NoteFilter) ([]*Note, error)
	ListNoteTitles() ([]NoteTitle, error)
	CountNotes() (int, error)
	SearchNotes(query string) ([]*Note, error)

	// Links (derived rows owned by the source note)
	InsertNoteLink(link *NoteLink) error
	DeleteNoteLinksBySource(sourceNoteID string) error
	ListNoteLinksBySource(sourceNoteID string) ([]*NoteLink, error)
	ListNoteLinksByTarget(targetNoteID string) ([]*NoteLink, error)
	ListUnresolvedNoteLinks() ([]*NoteLink, error)
	ResolveNoteLink(linkID, targetNoteID string) error
	DowngradeNoteLinks(targetNoteID, title string) error

	// Graph partitions
	ListOrphanNotes() ([]*Note, error)
	ListConnectedNotes() ([]*Note, error)

	// Embeddings (caller-supplied vectors, one per note)
	UpsertNoteEmbedding(noteID string, embedding []float32) error
	GetNoteEmbedding(noteID string) ([]float32, error)
	ListNoteEmbeddings() ([]NoteEmbedding, error)
	DeleteNoteEmbedding(noteID string) error

	// Tasks
	UpsertTask(task *Task) error
	GetTask(id string) (*Task, error)
	SearchTasks(query string) ([]*Task, error)

	// Relations
	InsertTaskNoteRelation(rel *TaskNoteRelation) error
	DeleteTaskNoteRelation(id string) error
	ListRelationsByNote(noteID string) ([]*TaskNoteRelation, error)
	ListRelationsByTask(taskID string) ([]*TaskNoteRelation, error)

	// Lifecycle
	Close() error
}
