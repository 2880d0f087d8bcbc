package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/latticenotes/lattice/pkg/wikilink"
)

// SQLiteStore is the SQLite-backed data store.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines the three core tables plus tasks.
const schema = `
-- Notes
-- norm_title is the identity key: lower-cased, trimmed, whitespace-collapsed
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    norm_title TEXT NOT NULL UNIQUE,
    folder_path TEXT,
    body TEXT NOT NULL DEFAULT '',
    metadata TEXT,
    created_by TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_folder ON notes(folder_path);
CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at);

-- Note links (derived data, regenerated on every body write)
-- Note: No foreign keys - referential integrity managed at application level
-- Exactly one of target_note_id / unresolved_target is set per row
CREATE TABLE IF NOT EXISTS note_links (
    id TEXT PRIMARY KEY,
    source_note_id TEXT NOT NULL,
    target_note_id TEXT,
    unresolved_target TEXT,
    kind TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_links_source ON note_links(source_note_id);
CREATE INDEX IF NOT EXISTS idx_links_target ON note_links(target_note_id);
CREATE INDEX IF NOT EXISTS idx_links_unresolved ON note_links(unresolved_target) WHERE unresolved_target IS NOT NULL;

-- Tasks (external entity; only the surface search and relations need)
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Task-note relations
CREATE TABLE IF NOT EXISTS task_note_relations (
    id TEXT PRIMARY KEY,
    task_id TEXT NOT NULL,
    note_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_relations_task ON task_note_relations(task_id);
CREATE INDEX IF NOT EXISTS idx_relations_note ON task_note_relations(note_id);

-- note_embeddings is a sqlite-vec vec0 virtual table created lazily on the
-- first embedding write; vec0 DDL fixes the vector dimension, which is not
-- known until then.
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A second pooled connection to :memory: would see its own empty database.
	db.SetMaxOpenConns(1)

	// Create schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Note CRUD
// =============================================================================

// CreateNote inserts a new note row.
func (s *SQLiteStore) CreateNote(note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Default the identity key
	if note.NormTitle == "" {
		note.NormTitle = wikilink.NormalizeTitle(note.Title)
	}

	_, err := s.db.Exec(`
		INSERT INTO notes (id, title, norm_title, folder_path, body, metadata, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, note.ID, note.Title, note.NormTitle, nullIfEmpty(note.FolderPath), note.Body,
		nullIfEmpty(string(note.Metadata)), nullIfEmpty(note.CreatedBy),
		note.CreatedAt, note.UpdatedAt)

	return err
}

// GetNote retrieves a note by ID. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetNote(id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, title, norm_title, folder_path, body, metadata, created_by, created_at, updated_at
		FROM notes WHERE id = ?
	`, id)

	return scanNote(row)
}

// GetNoteByNormTitle retrieves a note by its normalized title.
// Returns (nil, nil) when absent.
func (s *SQLiteStore) GetNoteByNormTitle(normTitle string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, title, norm_title, folder_path, body, metadata, created_by, created_at, updated_at
		FROM notes WHERE norm_title = ?
	`, normTitle)

	return scanNote(row)
}

// UpdateNote overwrites the stored row for note.ID with the full note.
func (s *SQLiteStore) UpdateNote(note *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Default the identity key
	if note.NormTitle == "" {
		note.NormTitle = wikilink.NormalizeTitle(note.Title)
	}

	_, err := s.db.Exec(`
		UPDATE notes SET title = ?, norm_title = ?, folder_path = ?, body = ?,
			metadata = ?, created_by = ?, updated_at = ?
		WHERE id = ?
	`, note.Title, note.NormTitle, nullIfEmpty(note.FolderPath), note.Body,
		nullIfEmpty(string(note.Metadata)), nullIfEmpty(note.CreatedBy),
		note.UpdatedAt, note.ID)

	return err
}

// DeleteNote removes a note row. Cascades are explicit: the note's outgoing
// links, its task relations and its embedding are deleted in the same call.
// Incoming links are left alone; downgrading them is the caller's move
// before deletion.
func (s *SQLiteStore) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM notes WHERE id = ?", id); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM note_links WHERE source_note_id = ?", id); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM task_note_relations WHERE note_id = ?", id); err != nil {
		return err
	}
	return s.deleteEmbeddingLocked(id)
}

// ListNotes returns notes matching the filter, most recently updated first.
func (s *SQLiteStore) ListNotes(filter NoteFilter) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, title, norm_title, folder_path, body, metadata, created_by, created_at, updated_at
		FROM notes`
	var conds []string
	var args []any

	if filter.FolderPath != "" {
		conds = append(conds, "folder_path = ?")
		args = append(args, filter.FolderPath)
	}
	if filter.CreatedBy != "" {
		conds = append(conds, "created_by = ?")
		args = append(args, filter.CreatedBy)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC, id"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite needs a LIMIT clause to accept OFFSET
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotes(rows)
}

// ListNoteTitles returns the id/title projection of every note, ordered by
// title.
func (s *SQLiteStore) ListNoteTitles() ([]NoteTitle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT id, title FROM notes ORDER BY title, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []NoteTitle
	for rows.Next() {
		var t NoteTitle
		if err := rows.Scan(&t.ID, &t.Title); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}

	return titles, rows.Err()
}

// CountNotes returns the total number of notes.
func (s *SQLiteStore) CountNotes() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&count)
	return count, err
}

// SearchNotes returns notes whose title or body contains the query,
// case-insensitive. The query must already be lower-cased by the caller.
func (s *SQLiteStore) SearchNotes(query string) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, title, norm_title, folder_path, body, metadata, created_by, created_at, updated_at
		FROM notes
		WHERE instr(lower(title), ?) > 0 OR instr(lower(body), ?) > 0
		ORDER BY updated_at DESC, id
	`, query, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotes(rows)
}

// =============================================================================
// Note links
// =============================================================================

// InsertNoteLink inserts a single link row.
func (s *SQLiteStore) InsertNoteLink(link *NoteLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO note_links (id, source_note_id, target_note_id, unresolved_target, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, link.ID, link.SourceNoteID, nullIfEmpty(link.TargetNoteID),
		nullIfEmpty(link.UnresolvedTarget), link.Kind, link.CreatedAt)

	return err
}

// DeleteNoteLinksBySource removes every link owned by a source note.
func (s *SQLiteStore) DeleteNoteLinksBySource(sourceNoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM note_links WHERE source_note_id = ?", sourceNoteID)
	return err
}

// ListNoteLinksBySource returns a note's outgoing links.
func (s *SQLiteStore) ListNoteLinksBySource(sourceNoteID string) ([]*NoteLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, source_note_id, target_note_id, unresolved_target, kind, created_at
		FROM note_links WHERE source_note_id = ?
		ORDER BY created_at, id
	`, sourceNoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNoteLinks(rows)
}

// ListNoteLinksByTarget returns the resolved links pointing at a note.
func (s *SQLiteStore) ListNoteLinksByTarget(targetNoteID string) ([]*NoteLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, source_note_id, target_note_id, unresolved_target, kind, created_at
		FROM note_links WHERE target_note_id = ?
		ORDER BY created_at, id
	`, targetNoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNoteLinks(rows)
}

// ListUnresolvedNoteLinks returns every link without a target, oldest first.
func (s *SQLiteStore) ListUnresolvedNoteLinks() ([]*NoteLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, source_note_id, target_note_id, unresolved_target, kind, created_at
		FROM note_links WHERE unresolved_target IS NOT NULL
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNoteLinks(rows)
}

// ResolveNoteLink points a link at a target note and clears its unresolved
// title.
func (s *SQLiteStore) ResolveNoteLink(linkID, targetNoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE note_links SET target_note_id = ?, unresolved_target = NULL
		WHERE id = ?
	`, targetNoteID, linkID)

	return err
}

// DowngradeNoteLinks converts every link pointing at a note back to
// unresolved, preserving kind and ownership. Used before deleting the
// target.
func (s *SQLiteStore) DowngradeNoteLinks(targetNoteID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE note_links SET target_note_id = NULL, unresolved_target = ?
		WHERE target_note_id = ?
	`, title, targetNoteID)

	return err
}

// =============================================================================
// Graph partitions
// =============================================================================

// ListOrphanNotes returns notes with no links in either direction, ordered
// by title.
func (s *SQLiteStore) ListOrphanNotes() ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, title, norm_title, folder_path, body, metadata, created_by, created_at, updated_at
		FROM notes n
		WHERE NOT EXISTS (SELECT 1 FROM note_links l WHERE l.source_note_id = n.id)
		  AND NOT EXISTS (SELECT 1 FROM note_links l WHERE l.target_note_id = n.id)
		ORDER BY n.title, n.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotes(rows)
}

// ListConnectedNotes returns notes with at least one link in either
// direction, ordered by title.
func (s *SQLiteStore) ListConnectedNotes() ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, title, norm_title, folder_path, body, metadata, created_by, created_at, updated_at
		FROM notes n
		WHERE EXISTS (SELECT 1 FROM note_links l WHERE l.source_note_id = n.id)
		   OR EXISTS (SELECT 1 FROM note_links l WHERE l.target_note_id = n.id)
		ORDER BY n.title, n.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotes(rows)
}

// =============================================================================
// Tasks
// =============================================================================

// UpsertTask inserts or updates a task.
func (s *SQLiteStore) UpsertTask(task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO tasks (id, title, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, task.ID, task.Title, task.Description, task.CreatedAt, task.UpdatedAt)

	return err
}

// GetTask retrieves a task by ID. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetTask(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var task Task
	err := s.db.QueryRow(`
		SELECT id, title, description, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id).Scan(&task.ID, &task.Title, &task.Description, &task.CreatedAt, &task.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// SearchTasks returns tasks whose title or description contains the query,
// case-insensitive. The query must already be lower-cased by the caller.
func (s *SQLiteStore) SearchTasks(query string) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, title, description, created_at, updated_at
		FROM tasks
		WHERE instr(lower(title), ?) > 0 OR instr(lower(description), ?) > 0
		ORDER BY updated_at DESC, id
	`, query, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		var task Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, &task)
	}

	return tasks, rows.Err()
}

// =============================================================================
// Task-note relations
// =============================================================================

// InsertTaskNoteRelation inserts a relation row.
func (s *SQLiteStore) InsertTaskNoteRelation(rel *TaskNoteRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO task_note_relations (id, task_id, note_id, kind, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rel.ID, rel.TaskID, rel.NoteID, rel.Kind, rel.CreatedAt)

	return err
}

// DeleteTaskNoteRelation removes a relation by ID. Deleting a relation that
// does not exist is a no-op.
func (s *SQLiteStore) DeleteTaskNoteRelation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM task_note_relations WHERE id = ?", id)
	return err
}

// ListRelationsByNote returns every relation referencing a note.
func (s *SQLiteStore) ListRelationsByNote(noteID string) ([]*TaskNoteRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, task_id, note_id, kind, created_at
		FROM task_note_relations WHERE note_id = ?
		ORDER BY created_at, id
	`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRelations(rows)
}

// ListRelationsByTask returns every relation referencing a task.
func (s *SQLiteStore) ListRelationsByTask(taskID string) ([]*TaskNoteRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, task_id, note_id, kind, created_at
		FROM task_note_relations WHERE task_id = ?
		ORDER BY created_at, id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRelations(rows)
}

// =============================================================================
// Embeddings
// =============================================================================

// UpsertNoteEmbedding stores a note's embedding, replacing any previous one.
// The first write fixes the table's vector dimension; writes of a different
// length fail.
func (s *SQLiteStore) UpsertNoteEmbedding(noteID string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(embedding) == 0 {
		return fmt.Errorf("empty embedding for note %s", noteID)
	}
	if err := s.ensureEmbeddingTable(len(embedding)); err != nil {
		return err
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("failed to serialize embedding: %w", err)
	}

	// vec0 virtual tables have no upsert; delete-then-insert in one tx
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM note_embeddings WHERE note_id = ?", noteID); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO note_embeddings (note_id, embedding) VALUES (?, ?)", noteID, blob); err != nil {
		return err
	}
	return tx.Commit()
}

// GetNoteEmbedding returns a note's embedding. Returns (nil, nil) when the
// note has none.
func (s *SQLiteStore) GetNoteEmbedding(noteID string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ok, err := s.embeddingTableExists()
	if err != nil || !ok {
		return nil, err
	}

	var blob []byte
	err = s.db.QueryRow("SELECT embedding FROM note_embeddings WHERE note_id = ?", noteID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return deserializeFloat32(blob)
}

// ListNoteEmbeddings returns every stored embedding, ordered by note id.
func (s *SQLiteStore) ListNoteEmbeddings() ([]NoteEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ok, err := s.embeddingTableExists()
	if err != nil || !ok {
		return nil, err
	}

	rows, err := s.db.Query("SELECT note_id, embedding FROM note_embeddings ORDER BY note_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []NoteEmbedding
	for rows.Next() {
		var e NoteEmbedding
		var blob []byte
		if err := rows.Scan(&e.NoteID, &blob); err != nil {
			return nil, err
		}
		if e.Embedding, err = deserializeFloat32(blob); err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	return result, rows.Err()
}

// DeleteNoteEmbedding removes a note's embedding if present.
func (s *SQLiteStore) DeleteNoteEmbedding(noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteEmbeddingLocked(noteID)
}

func (s *SQLiteStore) deleteEmbeddingLocked(noteID string) error {
	ok, err := s.embeddingTableExists()
	if err != nil || !ok {
		return err
	}
	_, err = s.db.Exec("DELETE FROM note_embeddings WHERE note_id = ?", noteID)
	return err
}

// embeddingTableExists reports whether the lazy vec0 table has been created
// yet. Callers must hold at least the read lock.
func (s *SQLiteStore) embeddingTableExists() (bool, error) {
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'note_embeddings'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) ensureEmbeddingTable(dim int) error {
	ok, err := s.embeddingTableExists()
	if err != nil || ok {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf(
		"CREATE VIRTUAL TABLE note_embeddings USING vec0(note_id TEXT PRIMARY KEY, embedding FLOAT[%d])", dim))
	return err
}

// =============================================================================
// Helpers
// =============================================================================

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var note Note
	var folderPath, metadata, createdBy sql.NullString

	err := row.Scan(
		&note.ID, &note.Title, &note.NormTitle, &folderPath, &note.Body,
		&metadata, &createdBy, &note.CreatedAt, &note.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	note.FolderPath = folderPath.String
	note.CreatedBy = createdBy.String
	if metadata.Valid && metadata.String != "" {
		note.Metadata = []byte(metadata.String)
	}

	return &note, nil
}

func scanNotes(rows *sql.Rows) ([]*Note, error) {
	var notes []*Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func scanNoteLinks(rows *sql.Rows) ([]*NoteLink, error) {
	var links []*NoteLink
	for rows.Next() {
		var link NoteLink
		var target, unresolved sql.NullString

		if err := rows.Scan(
			&link.ID, &link.SourceNoteID, &target, &unresolved, &link.Kind, &link.CreatedAt,
		); err != nil {
			return nil, err
		}

		link.TargetNoteID = target.String
		link.UnresolvedTarget = unresolved.String
		links = append(links, &link)
	}
	return links, rows.Err()
}

func scanRelations(rows *sql.Rows) ([]*TaskNoteRelation, error) {
	var rels []*TaskNoteRelation
	for rows.Next() {
		var rel TaskNoteRelation
		if err := rows.Scan(&rel.ID, &rel.TaskID, &rel.NoteID, &rel.Kind, &rel.CreatedAt); err != nil {
			return nil, err
		}
		rels = append(rels, &rel)
	}
	return rels, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// deserializeFloat32 decodes the little-endian float32 blob vec0 stores.
func deserializeFloat32(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("malformed embedding blob: %d bytes", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
