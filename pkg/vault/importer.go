// Package vault imports a directory tree of markdown files into the note
// store. Files become notes: YAML frontmatter may override the title and
// folder, the first H1 or the file stem fills in missing titles, and notes
// are upserted by normalized title so re-imports are idempotent. A watch
// mode re-imports files as they change on disk.
package vault

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hack-pad/hackpadfs"

	"github.com/latticenotes/lattice/pkg/notes"
)

// Options configures an Importer.
type Options struct {
	// Ignore holds doublestar patterns, relative to the vault root, whose
	// files are skipped.
	Ignore []string
	// CreatedBy is recorded on notes the importer creates.
	CreatedBy string
}

// Report counts the outcome of one import pass.
type Report struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Importer walks a vault filesystem and upserts its markdown files as notes.
type Importer struct {
	fsys  hackpadfs.FS
	notes *notes.Service
	opts  Options
	log   *slog.Logger
}

// New creates an importer over the given filesystem. A nil logger disables
// logging.
func New(fsys hackpadfs.FS, svc *notes.Service, opts Options, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Importer{fsys: fsys, notes: svc, opts: opts, log: log}
}

type fileResult int

const (
	fileSkipped fileResult = iota
	fileCreated
	fileUpdated
)

// Import walks the whole vault once. Files that fail to parse are skipped
// and logged, never fatal; walk errors abort the import.
func (i *Importer) Import() (*Report, error) {
	report := &Report{}

	err := fs.WalkDir(i.fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(name), ".md") {
			return nil
		}

		res, err := i.importFile(name)
		if err != nil {
			i.log.Warn("file import failed", "file", name, "error", err)
			report.Skipped++
			return nil
		}
		switch res {
		case fileCreated:
			report.Created++
		case fileUpdated:
			report.Updated++
		case fileSkipped:
			report.Skipped++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk vault: %w", err)
	}

	i.log.Info("vault imported",
		"created", report.Created, "updated", report.Updated, "skipped", report.Skipped)
	return report, nil
}

// importFile upserts a single markdown file by its slash-separated path
// relative to the vault root.
func (i *Importer) importFile(name string) (fileResult, error) {
	if i.ignored(name) {
		i.log.Debug("file ignored", "file", name)
		return fileSkipped, nil
	}

	content, err := hackpadfs.ReadFile(i.fsys, name)
	if err != nil {
		return fileSkipped, fmt.Errorf("failed to read %s: %w", name, err)
	}

	fm, meta, body, err := parseFrontmatter(content)
	if err != nil {
		return fileSkipped, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = strings.TrimSpace(extractTitle(body))
	}
	if title == "" {
		title = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}

	folder := fm.Folder
	if folder == "" {
		if dir := path.Dir(name); dir != "." {
			folder = dir
		}
	}

	existing, err := i.notes.GetNoteByTitle(title)
	if err != nil {
		return fileSkipped, err
	}

	if existing == nil {
		note, err := i.notes.CreateNote(notes.CreateParams{
			Title:      title,
			Body:       body,
			FolderPath: folder,
			Metadata:   meta,
			CreatedBy:  i.opts.CreatedBy,
		})
		if err != nil {
			return fileSkipped, err
		}
		i.log.Debug("note created from file", "file", name, "note", note.ID, "title", title)
		return fileCreated, nil
	}

	params := notes.UpdateParams{Title: &title, Body: &body, FolderPath: &folder}
	if meta != nil {
		params.Metadata = meta
	}
	if err := i.notes.UpdateNote(existing.ID, params); err != nil {
		return fileSkipped, err
	}
	i.log.Debug("note updated from file", "file", name, "note", existing.ID, "title", title)
	return fileUpdated, nil
}

func (i *Importer) ignored(name string) bool {
	for _, pattern := range i.opts.Ignore {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
