package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/latticenotes/lattice/pkg/wikilink"
)

// MemStore is an in-memory implementation of Storer for testing. Its
// ordering and uniqueness behavior mirrors SQLiteStore exactly so the two
// are interchangeable under the same test suite.
type MemStore struct {
	mu         sync.RWMutex
	notes      map[string]*Note
	links      map[string]*NoteLink
	tasks      map[string]*Task
	relations  map[string]*TaskNoteRelation
	embeddings map[string][]float32
	embedDim   int
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		notes:      make(map[string]*Note),
		links:      make(map[string]*NoteLink),
		tasks:      make(map[string]*Task),
		relations:  make(map[string]*TaskNoteRelation),
		embeddings: make(map[string][]float32),
	}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

// =============================================================================
// Note CRUD
// =============================================================================

func (s *MemStore) CreateNote(note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note.NormTitle == "" {
		note.NormTitle = wikilink.NormalizeTitle(note.Title)
	}

	// norm_title is UNIQUE in the SQLite schema
	for _, other := range s.notes {
		if other.NormTitle == note.NormTitle {
			return fmt.Errorf("constraint failed: notes.norm_title %q", note.NormTitle)
		}
	}

	s.notes[note.ID] = copyNote(note)
	return nil
}

func (s *MemStore) GetNote(id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if note, ok := s.notes[id]; ok {
		return copyNote(note), nil
	}
	return nil, nil
}

func (s *MemStore) GetNoteByNormTitle(normTitle string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, note := range s.notes {
		if note.NormTitle == normTitle {
			return copyNote(note), nil
		}
	}
	return nil, nil
}

func (s *MemStore) UpdateNote(note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notes[note.ID]
	if !ok {
		// Matches the blind SQLite UPDATE, which affects zero rows.
		return nil
	}

	if note.NormTitle == "" {
		note.NormTitle = wikilink.NormalizeTitle(note.Title)
	}

	for id, other := range s.notes {
		if id != note.ID && other.NormTitle == note.NormTitle {
			return fmt.Errorf("constraint failed: notes.norm_title %q", note.NormTitle)
		}
	}

	updated := copyNote(note)
	updated.CreatedAt = existing.CreatedAt
	s.notes[note.ID] = updated
	return nil
}

func (s *MemStore) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notes, id)
	delete(s.embeddings, id)
	for linkID, link := range s.links {
		if link.SourceNoteID == id {
			delete(s.links, linkID)
		}
	}
	for relID, rel := range s.relations {
		if rel.NoteID == id {
			delete(s.relations, relID)
		}
	}
	return nil
}

func (s *MemStore) ListNotes(filter NoteFilter) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Note
	for _, note := range s.notes {
		if filter.FolderPath != "" && note.FolderPath != filter.FolderPath {
			continue
		}
		if filter.CreatedBy != "" && note.CreatedBy != filter.CreatedBy {
			continue
		}
		result = append(result, copyNote(note))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt != result[j].UpdatedAt {
			return result[i].UpdatedAt > result[j].UpdatedAt
		}
		return result[i].ID < result[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			result = nil
		} else {
			result = result[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}

func (s *MemStore) ListNoteTitles() ([]NoteTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var titles []NoteTitle
	for _, note := range s.notes {
		titles = append(titles, NoteTitle{ID: note.ID, Title: note.Title})
	}

	sort.Slice(titles, func(i, j int) bool {
		if titles[i].Title != titles[j].Title {
			return titles[i].Title < titles[j].Title
		}
		return titles[i].ID < titles[j].ID
	})

	return titles, nil
}

func (s *MemStore) CountNotes() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes), nil
}

func (s *MemStore) SearchNotes(query string) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Note
	for _, note := range s.notes {
		if strings.Contains(strings.ToLower(note.Title), query) ||
			strings.Contains(strings.ToLower(note.Body), query) {
			result = append(result, copyNote(note))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt != result[j].UpdatedAt {
			return result[i].UpdatedAt > result[j].UpdatedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// =============================================================================
// Note links
// =============================================================================

func (s *MemStore) InsertNoteLink(link *NoteLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *link
	s.links[link.ID] = &c
	return nil
}

func (s *MemStore) DeleteNoteLinksBySource(sourceNoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, link := range s.links {
		if link.SourceNoteID == sourceNoteID {
			delete(s.links, id)
		}
	}
	return nil
}

func (s *MemStore) ListNoteLinksBySource(sourceNoteID string) ([]*NoteLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*NoteLink
	for _, link := range s.links {
		if link.SourceNoteID == sourceNoteID {
			c := *link
			result = append(result, &c)
		}
	}

	sortLinks(result)
	return result, nil
}

func (s *MemStore) ListNoteLinksByTarget(targetNoteID string) ([]*NoteLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*NoteLink
	for _, link := range s.links {
		if link.TargetNoteID == targetNoteID && targetNoteID != "" {
			c := *link
			result = append(result, &c)
		}
	}

	sortLinks(result)
	return result, nil
}

func (s *MemStore) ListUnresolvedNoteLinks() ([]*NoteLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*NoteLink
	for _, link := range s.links {
		if link.UnresolvedTarget != "" {
			c := *link
			result = append(result, &c)
		}
	}

	sortLinks(result)
	return result, nil
}

func (s *MemStore) ResolveNoteLink(linkID, targetNoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if link, ok := s.links[linkID]; ok {
		link.TargetNoteID = targetNoteID
		link.UnresolvedTarget = ""
	}
	return nil
}

func (s *MemStore) DowngradeNoteLinks(targetNoteID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, link := range s.links {
		if link.TargetNoteID == targetNoteID {
			link.TargetNoteID = ""
			link.UnresolvedTarget = title
		}
	}
	return nil
}

// =============================================================================
// Graph partitions
// =============================================================================

func (s *MemStore) ListOrphanNotes() ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Note
	for id, note := range s.notes {
		if !s.linkedLocked(id) {
			result = append(result, copyNote(note))
		}
	}

	sortNotesByTitle(result)
	return result, nil
}

func (s *MemStore) ListConnectedNotes() ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Note
	for id, note := range s.notes {
		if s.linkedLocked(id) {
			result = append(result, copyNote(note))
		}
	}

	sortNotesByTitle(result)
	return result, nil
}

// linkedLocked reports whether a note has any link in either direction.
// Callers must hold at least the read lock.
func (s *MemStore) linkedLocked(noteID string) bool {
	for _, link := range s.links {
		if link.SourceNoteID == noteID || link.TargetNoteID == noteID {
			return true
		}
	}
	return false
}

// =============================================================================
// Tasks
// =============================================================================

func (s *MemStore) UpsertTask(task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *task
	if existing, ok := s.tasks[task.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	}
	s.tasks[task.ID] = &c
	return nil
}

func (s *MemStore) GetTask(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if task, ok := s.tasks[id]; ok {
		c := *task
		return &c, nil
	}
	return nil, nil
}

func (s *MemStore) SearchTasks(query string) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Task
	for _, task := range s.tasks {
		if strings.Contains(strings.ToLower(task.Title), query) ||
			strings.Contains(strings.ToLower(task.Description), query) {
			c := *task
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt != result[j].UpdatedAt {
			return result[i].UpdatedAt > result[j].UpdatedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// =============================================================================
// Embeddings
// =============================================================================

func (s *MemStore) UpsertNoteEmbedding(noteID string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(embedding) == 0 {
		return fmt.Errorf("empty embedding for note %s", noteID)
	}

	// The first write fixes the dimension, like the vec0 DDL does
	if s.embedDim == 0 {
		s.embedDim = len(embedding)
	}
	if len(embedding) != s.embedDim {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.embedDim, len(embedding))
	}

	s.embeddings[noteID] = append([]float32(nil), embedding...)
	return nil
}

func (s *MemStore) GetNoteEmbedding(noteID string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	embedding, ok := s.embeddings[noteID]
	if !ok {
		return nil, nil
	}
	return append([]float32(nil), embedding...), nil
}

func (s *MemStore) ListNoteEmbeddings() ([]NoteEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []NoteEmbedding
	for noteID, embedding := range s.embeddings {
		result = append(result, NoteEmbedding{
			NoteID:    noteID,
			Embedding: append([]float32(nil), embedding...),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].NoteID < result[j].NoteID
	})

	return result, nil
}

func (s *MemStore) DeleteNoteEmbedding(noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.embeddings, noteID)
	return nil
}

// =============================================================================
// Task-note relations
// =============================================================================

func (s *MemStore) InsertTaskNoteRelation(rel *TaskNoteRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *rel
	s.relations[rel.ID] = &c
	return nil
}

func (s *MemStore) DeleteTaskNoteRelation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.relations, id)
	return nil
}

func (s *MemStore) ListRelationsByNote(noteID string) ([]*TaskNoteRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*TaskNoteRelation
	for _, rel := range s.relations {
		if rel.NoteID == noteID {
			c := *rel
			result = append(result, &c)
		}
	}

	sortRelations(result)
	return result, nil
}

func (s *MemStore) ListRelationsByTask(taskID string) ([]*TaskNoteRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*TaskNoteRelation
	for _, rel := range s.relations {
		if rel.TaskID == taskID {
			c := *rel
			result = append(result, &c)
		}
	}

	sortRelations(result)
	return result, nil
}

// =============================================================================
// Helpers
// =============================================================================

func copyNote(n *Note) *Note {
	c := *n
	if n.Metadata != nil {
		c.Metadata = append(json.RawMessage(nil), n.Metadata...)
	}
	return &c
}

func sortNotesByTitle(notes []*Note) {
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Title != notes[j].Title {
			return notes[i].Title < notes[j].Title
		}
		return notes[i].ID < notes[j].ID
	})
}

func sortLinks(links []*NoteLink) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].CreatedAt != links[j].CreatedAt {
			return links[i].CreatedAt < links[j].CreatedAt
		}
		return links[i].ID < links[j].ID
	})
}

func sortRelations(rels []*TaskNoteRelation) {
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].CreatedAt != rels[j].CreatedAt {
			return rels[i].CreatedAt < rels[j].CreatedAt
		}
		return rels[i].ID < rels[j].ID
	})
}

// Compile-time interface check
var _ Storer = (*MemStore)(nil)
