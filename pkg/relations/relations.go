// Package relations manages the task-note relation table: explicit,
// caller-owned links between notes and the external task entity. Tasks
// themselves are owned elsewhere; this package only records that a task
// exists and how it relates to notes.
package relations

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/latticenotes/lattice/internal/store"
)

var (
	// ErrInvalidKind is returned for a relation kind outside the
	// documented enumeration.
	ErrInvalidKind = errors.New("invalid relation kind")
	// ErrNoteNotFound is returned when the note side of a relation does
	// not exist.
	ErrNoteNotFound = errors.New("note not found")
	// ErrTaskNotFound is returned when the task side of a relation does
	// not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrEmptyTitle is returned when a task is registered without a title.
	ErrEmptyTitle = errors.New("task title is empty")
)

// Service manages task-note relations over a store.
type Service struct {
	store store.Storer
	log   *slog.Logger
}

// NewService creates a relation service. A nil logger disables logging.
func NewService(st store.Storer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: st, log: log}
}

// RegisterTask records the external "task exists" fact so relations and
// search can reference it. Task lifecycle beyond this is out of scope.
func (s *Service) RegisterTask(title, description string) (*store.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	now := time.Now().UnixMilli()
	task := &store.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.UpsertTask(task); err != nil {
		return nil, fmt.Errorf("failed to register task %s: %w", task.ID, err)
	}

	s.log.Debug("task registered", "id", task.ID, "title", task.Title)
	return task, nil
}

// CreateRelation links a task to a note with the given kind. Both sides must
// exist. Duplicate relations are allowed; each call inserts a new row.
func (s *Service) CreateRelation(taskID, noteID, kind string) (*store.TaskNoteRelation, error) {
	if !store.ValidRelationKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	note, err := s.store.GetNote(noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to get note %s: %w", noteID, err)
	}
	if note == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, noteID)
	}

	task, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", taskID, err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	rel := &store.TaskNoteRelation{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		NoteID:    noteID,
		Kind:      kind,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.store.InsertTaskNoteRelation(rel); err != nil {
		return nil, fmt.Errorf("failed to create relation %s: %w", rel.ID, err)
	}

	s.log.Debug("relation created", "id", rel.ID, "task", taskID, "note", noteID, "kind", kind)
	return rel, nil
}

// DeleteRelation removes a relation by id. Deleting an unknown id is a
// silent no-op.
func (s *Service) DeleteRelation(id string) error {
	if err := s.store.DeleteTaskNoteRelation(id); err != nil {
		return fmt.Errorf("failed to delete relation %s: %w", id, err)
	}
	return nil
}

// RelatedTasks returns the distinct tasks related to a note, in relation
// creation order. Relations whose task has vanished are skipped.
func (s *Service) RelatedTasks(noteID string) ([]*store.Task, error) {
	rels, err := s.store.ListRelationsByNote(noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relations for note %s: %w", noteID, err)
	}

	seen := make(map[string]bool)
	tasks := make([]*store.Task, 0, len(rels))
	for _, rel := range rels {
		if seen[rel.TaskID] {
			continue
		}
		seen[rel.TaskID] = true
		task, err := s.store.GetTask(rel.TaskID)
		if err != nil {
			return nil, fmt.Errorf("failed to get task %s: %w", rel.TaskID, err)
		}
		if task == nil {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// RelatedNotes returns the distinct notes related to a task, in relation
// creation order. Relations whose note has vanished are skipped.
func (s *Service) RelatedNotes(taskID string) ([]*store.Note, error) {
	rels, err := s.store.ListRelationsByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relations for task %s: %w", taskID, err)
	}

	seen := make(map[string]bool)
	notes := make([]*store.Note, 0, len(rels))
	for _, rel := range rels {
		if seen[rel.NoteID] {
			continue
		}
		seen[rel.NoteID] = true
		note, err := s.store.GetNote(rel.NoteID)
		if err != nil {
			return nil, fmt.Errorf("failed to get note %s: %w", rel.NoteID, err)
		}
		if note == nil {
			continue
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// ListRelations returns the raw relation rows for a note, oldest first.
func (s *Service) ListRelations(noteID string) ([]*store.TaskNoteRelation, error) {
	rels, err := s.store.ListRelationsByNote(noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relations for note %s: %w", noteID, err)
	}
	return rels, nil
}
