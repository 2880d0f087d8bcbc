// Package notes implements the link resolution engine: it owns Note rows
// and keeps the derived NoteLink rows consistent with note bodies and with
// the set of existing note titles, as notes are created, renamed and
// deleted.
package notes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/latticenotes/lattice/internal/store"
	"github.com/latticenotes/lattice/pkg/wikilink"
)

var (
	ErrEmptyTitle     = errors.New("note title is empty")
	ErrDuplicateTitle = errors.New("a note with this title already exists")
	ErrNoteNotFound   = errors.New("note not found")
)

// DefaultListLimit bounds ListNotes when the caller gives no limit.
const DefaultListLimit = 100

// Service is the write side of the knowledge base. All link rows are
// derived: the full outgoing set of a note is rebuilt on every body write,
// never patched.
type Service struct {
	store store.Storer
	log   *slog.Logger
}

// NewService creates a note service on top of a store. A nil logger
// discards output.
func NewService(st store.Storer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: st, log: log}
}

// CreateParams carries the caller-supplied fields for a new note. Title is
// required; everything else is optional.
type CreateParams struct {
	Title      string
	Body       string
	FolderPath string
	Metadata   json.RawMessage
	CreatedBy  string
}

// UpdateParams names the fields to change. Nil pointers leave the stored
// value alone. Metadata nil means unchanged.
type UpdateParams struct {
	Title      *string
	Body       *string
	FolderPath *string
	Metadata   json.RawMessage
}

// CreateNote persists a new note, rebuilds its outgoing links from the body
// and resolves any previously-unresolved links that match the new title.
func (s *Service) CreateNote(p CreateParams) (*store.Note, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	norm := wikilink.NormalizeTitle(title)

	existing, err := s.store.GetNoteByNormTitle(norm)
	if err != nil {
		return nil, fmt.Errorf("failed to create note %q: %w", title, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateTitle, title)
	}

	now := time.Now().UnixMilli()
	note := &store.Note{
		ID:         uuid.NewString(),
		Title:      title,
		NormTitle:  norm,
		FolderPath: p.FolderPath,
		Body:       p.Body,
		Metadata:   p.Metadata,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateNote(note); err != nil {
		return nil, fmt.Errorf("failed to create note %s: %w", note.ID, err)
	}

	if p.Body != "" {
		if err := s.relink(note); err != nil {
			return nil, err
		}
	}
	if err := s.resolveFor(note); err != nil {
		return nil, err
	}

	s.log.Debug("note created", "id", note.ID, "title", note.Title)
	return note, nil
}

// GetNote returns a note by id, or (nil, nil) when it does not exist.
func (s *Service) GetNote(id string) (*store.Note, error) {
	note, err := s.store.GetNote(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note %s: %w", id, err)
	}
	return note, nil
}

// GetNoteByTitle returns the note whose title normalization-matches the
// given title, or (nil, nil) when none does.
func (s *Service) GetNoteByTitle(title string) (*store.Note, error) {
	norm := wikilink.NormalizeTitle(title)
	note, err := s.store.GetNoteByNormTitle(norm)
	if err != nil {
		return nil, fmt.Errorf("failed to get note by title %q: %w", title, err)
	}
	return note, nil
}

// UpdateNote applies the given partial fields. A body write rebuilds the
// note's outgoing links; a rename re-checks title uniqueness and re-runs
// pending resolution against the new identity.
func (s *Service) UpdateNote(id string, p UpdateParams) error {
	note, err := s.store.GetNote(id)
	if err != nil {
		return fmt.Errorf("failed to update note %s: %w", id, err)
	}
	if note == nil {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}

	identityChanged := false
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return ErrEmptyTitle
		}
		norm := wikilink.NormalizeTitle(title)
		if norm != note.NormTitle {
			other, err := s.store.GetNoteByNormTitle(norm)
			if err != nil {
				return fmt.Errorf("failed to update note %s: %w", id, err)
			}
			if other != nil && other.ID != id {
				return fmt.Errorf("%w: %q", ErrDuplicateTitle, title)
			}
			identityChanged = true
		}
		note.Title = title
		note.NormTitle = norm
	}

	bodyChanged := p.Body != nil
	if bodyChanged {
		note.Body = *p.Body
	}
	if p.FolderPath != nil {
		note.FolderPath = *p.FolderPath
	}
	if p.Metadata != nil {
		note.Metadata = p.Metadata
	}
	note.UpdatedAt = time.Now().UnixMilli()

	if err := s.store.UpdateNote(note); err != nil {
		return fmt.Errorf("failed to update note %s: %w", id, err)
	}

	if bodyChanged {
		if err := s.relink(note); err != nil {
			return err
		}
	}
	if identityChanged {
		if err := s.resolveFor(note); err != nil {
			return err
		}
	}

	s.log.Debug("note updated", "id", note.ID, "title", note.Title)
	return nil
}

// DeleteNote removes a note. Incoming resolved links are downgraded to
// unresolved (keeping their kind, with the deleted note's title as the
// unresolved target) before the row, its outgoing links and its task
// relations are deleted.
func (s *Service) DeleteNote(id string) error {
	note, err := s.store.GetNote(id)
	if err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	if note == nil {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}

	if err := s.store.DowngradeNoteLinks(id, note.Title); err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	if err := s.store.DeleteNote(id); err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}

	s.log.Debug("note deleted", "id", id, "title", note.Title)
	return nil
}

// ListNotes returns notes matching the filter, most recently updated first.
// A zero or negative limit falls back to DefaultListLimit.
func (s *Service) ListNotes(filter store.NoteFilter) ([]*store.Note, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	notes, err := s.store.ListNotes(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// CountNotes returns the total number of notes.
func (s *Service) CountNotes() (int, error) {
	count, err := s.store.CountNotes()
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

// ResolveLinksForNewNote resolves every unresolved link whose target title
// normalization-matches the given note. CreateNote already does this;
// the exported form exists for back-channel callers that insert notes
// without going through CreateNote.
func (s *Service) ResolveLinksForNewNote(noteID string) error {
	note, err := s.store.GetNote(noteID)
	if err != nil {
		return fmt.Errorf("failed to resolve links for %s: %w", noteID, err)
	}
	if note == nil {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, noteID)
	}
	return s.resolveFor(note)
}

// relink is the full-replace procedure: drop every link row owned by the
// note, re-extract the body and insert one row per occurrence, resolved
// when a note with the linked title exists. Not a diff; link counts per
// note are small.
func (s *Service) relink(note *store.Note) error {
	occurrences := wikilink.Extract(note.Body)

	if err := s.store.DeleteNoteLinksBySource(note.ID); err != nil {
		return fmt.Errorf("failed to relink note %s: %w", note.ID, err)
	}

	now := time.Now().UnixMilli()
	for _, occ := range occurrences {
		target, err := s.store.GetNoteByNormTitle(wikilink.NormalizeTitle(occ.Title))
		if err != nil {
			return fmt.Errorf("failed to relink note %s: %w", note.ID, err)
		}

		link := &store.NoteLink{
			ID:           uuid.NewString(),
			SourceNoteID: note.ID,
			Kind:         occ.Kind.String(),
			CreatedAt:    now,
		}
		if target != nil {
			link.TargetNoteID = target.ID
		} else {
			link.UnresolvedTarget = occ.Title
		}

		if err := s.store.InsertNoteLink(link); err != nil {
			return fmt.Errorf("failed to relink note %s: %w", note.ID, err)
		}
	}

	s.log.Debug("links rebuilt", "note", note.ID, "count", len(occurrences))
	return nil
}

// resolveFor points every unresolved link that matches the note's identity
// at the note.
func (s *Service) resolveFor(note *store.Note) error {
	pending, err := s.store.ListUnresolvedNoteLinks()
	if err != nil {
		return fmt.Errorf("failed to resolve links for %s: %w", note.ID, err)
	}

	resolved := 0
	for _, link := range pending {
		if wikilink.NormalizeTitle(link.UnresolvedTarget) != note.NormTitle {
			continue
		}
		if err := s.store.ResolveNoteLink(link.ID, note.ID); err != nil {
			return fmt.Errorf("failed to resolve links for %s: %w", note.ID, err)
		}
		resolved++
	}

	if resolved > 0 {
		s.log.Debug("links resolved", "target", note.ID, "count", resolved)
	}
	return nil
}
