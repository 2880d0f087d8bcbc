package related

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/latticenotes/lattice/internal/store"
)

// Service errors.
var (
	ErrNoteNotFound   = errors.New("note does not exist")
	ErrNoEmbedding    = errors.New("note has no embedding")
	ErrEmptyEmbedding = errors.New("embedding must not be empty")
)

// DefaultLimit caps SimilarNotes when the caller passes no limit.
const DefaultLimit = 5

// Service ties the persistent embedding rows to the query index. The store
// is the source of truth; the index is a rebuildable cache.
type Service struct {
	store store.Storer
	index *Index
	log   *slog.Logger
}

// NewService creates a similarity service. A nil logger discards output.
func NewService(st store.Storer, index *Index, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: st, index: index, log: log}
}

// SetEmbedding stores a note's embedding and adds it to the index. The note
// must exist.
func (s *Service) SetEmbedding(noteID string, embedding []float32) error {
	if len(embedding) == 0 {
		return ErrEmptyEmbedding
	}

	note, err := s.store.GetNote(noteID)
	if err != nil {
		return fmt.Errorf("failed to embed note %s: %w", noteID, err)
	}
	if note == nil {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, noteID)
	}

	if err := s.store.UpsertNoteEmbedding(noteID, embedding); err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", noteID, err)
	}
	if err := s.index.Add(noteID, embedding); err != nil {
		return fmt.Errorf("failed to index embedding for %s: %w", noteID, err)
	}

	s.log.Debug("embedded note", "note_id", noteID, "dim", len(embedding))
	return s.index.Save()
}

// SimilarNotes returns up to limit notes nearest to the given note in
// embedding space, best first. The note itself is excluded. Notes without
// an embedding are an error; the caller named a specific note.
func (s *Service) SimilarNotes(noteID string, limit int) ([]*store.Note, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	embedding, err := s.store.GetNoteEmbedding(noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding for %s: %w", noteID, err)
	}
	if embedding == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoEmbedding, noteID)
	}

	if err := s.ensureIndex(); err != nil {
		return nil, err
	}

	// One extra: the query note is its own nearest neighbor
	ids, err := s.index.Nearest(embedding, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	notes := make([]*store.Note, 0, limit)
	for _, id := range ids {
		if len(notes) == limit {
			break
		}
		if id == noteID {
			continue
		}

		note, err := s.store.GetNote(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load note %s: %w", id, err)
		}
		if note == nil {
			// Embedded note vanished between queries
			continue
		}
		notes = append(notes, note)
	}

	s.log.Debug("similarity query", "note_id", noteID, "results", len(notes))
	return notes, nil
}

// Rebuild reindexes every stored embedding from scratch and writes a fresh
// snapshot. Run it after bulk changes to drop stale vectors.
func (s *Service) Rebuild() error {
	embeddings, err := s.store.ListNoteEmbeddings()
	if err != nil {
		return fmt.Errorf("failed to list embeddings: %w", err)
	}

	s.index.Reset()
	for _, e := range embeddings {
		if err := s.index.Add(e.NoteID, e.Embedding); err != nil {
			return fmt.Errorf("failed to index note %s: %w", e.NoteID, err)
		}
	}

	s.log.Debug("rebuilt similarity index", "notes", s.index.Len())
	return s.index.Save()
}

// ensureIndex hydrates an empty index from the stored embeddings, covering
// a process that starts without a snapshot file.
func (s *Service) ensureIndex() error {
	if s.index.Len() > 0 {
		return nil
	}
	return s.Rebuild()
}
