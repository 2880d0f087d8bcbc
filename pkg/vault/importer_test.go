package vault

import (
	"path"
	"testing"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticenotes/lattice/internal/store"
	"github.com/latticenotes/lattice/pkg/notes"
)

func newVaultFS(t *testing.T, files map[string]string) hackpadfs.FS {
	t.Helper()
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	for name, content := range files {
		if dir := path.Dir(name); dir != "." {
			require.NoError(t, hackpadfs.MkdirAll(fsys, dir, 0o755))
		}
		require.NoError(t, hackpadfs.WriteFullFile(fsys, name, []byte(content), 0o644))
	}
	return fsys
}

func newTestImporter(t *testing.T, files map[string]string, opts Options) (*Importer, *notes.Service, store.Storer) {
	t.Helper()
	st := store.NewMemStore()
	svc := notes.NewService(st, nil)
	return New(newVaultFS(t, files), svc, opts, nil), svc, st
}

// =============================================================================
// Import
// =============================================================================

func TestImportCreatesNotesFromFiles(t *testing.T) {
	imp, svc, st := newTestImporter(t, map[string]string{
		"welcome.md":          "# Welcome\n\nSee [[Road Map]].",
		"projects/roadmap.md": "---\ntitle: Road Map\n---\nThe plan.",
	}, Options{})

	report, err := imp.Import()
	require.NoError(t, err)
	assert.Equal(t, &Report{Created: 2}, report)

	welcome, err := svc.GetNoteByTitle("Welcome")
	require.NoError(t, err)
	require.NotNil(t, welcome)
	assert.Equal(t, "# Welcome\n\nSee [[Road Map]].", welcome.Body)
	assert.Equal(t, "", welcome.FolderPath)

	roadmap, err := svc.GetNoteByTitle("Road Map")
	require.NoError(t, err)
	require.NotNil(t, roadmap)
	assert.Equal(t, "The plan.", roadmap.Body)
	assert.Equal(t, "projects", roadmap.FolderPath)

	// The wikilink pipeline ran during import and resolved across files
	links, err := st.ListNoteLinksBySource(welcome.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, roadmap.ID, links[0].TargetNoteID)
}

func TestImportTitlePrecedence(t *testing.T) {
	imp, svc, _ := newTestImporter(t, map[string]string{
		"a.md": "---\ntitle: From Frontmatter\n---\n# From A Heading\ntext",
		"b.md": "# From Heading\ntext",
		"c.md": "plain text, no heading",
	}, Options{})

	_, err := imp.Import()
	require.NoError(t, err)

	for _, title := range []string{"From Frontmatter", "From Heading", "c"} {
		note, err := svc.GetNoteByTitle(title)
		require.NoError(t, err)
		assert.NotNil(t, note, "expected note titled %q", title)
	}
}

func TestImportFrontmatterMetadata(t *testing.T) {
	imp, svc, _ := newTestImporter(t, map[string]string{
		"tagged.md": "---\ntitle: Tagged\ntags:\n  - alpha\n  - beta\nrating: 5\n---\nbody",
	}, Options{})

	_, err := imp.Import()
	require.NoError(t, err)

	note, err := svc.GetNoteByTitle("Tagged")
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.JSONEq(t, `{"tags":["alpha","beta"],"rating":5}`, string(note.Metadata))
}

func TestImportFolderOverride(t *testing.T) {
	imp, svc, _ := newTestImporter(t, map[string]string{
		"deep/dir/file.md": "---\nfolder: custom/place\n---\n# Note Here",
	}, Options{})

	_, err := imp.Import()
	require.NoError(t, err)

	note, err := svc.GetNoteByTitle("Note Here")
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, "custom/place", note.FolderPath)
}

func TestImportReimportUpdates(t *testing.T) {
	files := map[string]string{"journal.md": "# Journal\nfirst draft"}
	imp, svc, _ := newTestImporter(t, files, Options{})

	first, err := imp.Import()
	require.NoError(t, err)
	assert.Equal(t, &Report{Created: 1}, first)

	before, err := svc.GetNoteByTitle("Journal")
	require.NoError(t, err)
	require.NotNil(t, before)

	require.NoError(t, hackpadfs.WriteFullFile(imp.fsys, "journal.md", []byte("# Journal\nsecond draft"), 0o644))

	second, err := imp.Import()
	require.NoError(t, err)
	assert.Equal(t, &Report{Updated: 1}, second)

	after, err := svc.GetNoteByTitle("Journal")
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "# Journal\nsecond draft", after.Body)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestImportIgnorePatterns(t *testing.T) {
	imp, svc, _ := newTestImporter(t, map[string]string{
		"drafts/wip.md":     "# Wip",
		"notes/keep.md":     "# Keep",
		"notes/old.skip.md": "# Old",
	}, Options{Ignore: []string{"drafts/**", "**/*.skip.md"}})

	report, err := imp.Import()
	require.NoError(t, err)
	assert.Equal(t, &Report{Created: 1, Skipped: 2}, report)

	keep, err := svc.GetNoteByTitle("Keep")
	require.NoError(t, err)
	assert.NotNil(t, keep)

	wip, err := svc.GetNoteByTitle("Wip")
	require.NoError(t, err)
	assert.Nil(t, wip)
}

func TestImportSkipsNonMarkdown(t *testing.T) {
	imp, _, st := newTestImporter(t, map[string]string{
		"real.md":    "# Real",
		"assets.txt": "not a note",
		"image.png":  "binary-ish",
	}, Options{})

	report, err := imp.Import()
	require.NoError(t, err)
	assert.Equal(t, &Report{Created: 1}, report, "non-markdown files are not even counted")

	count, err := st.CountNotes()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestImportMalformedFrontmatterSkipped(t *testing.T) {
	imp, _, st := newTestImporter(t, map[string]string{
		"bad.md":  "---\ntitle: [unclosed\n---\nbody",
		"good.md": "# Good",
	}, Options{})

	report, err := imp.Import()
	require.NoError(t, err, "one bad file does not abort the import")
	assert.Equal(t, &Report{Created: 1, Skipped: 1}, report)

	count, err := st.CountNotes()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestImportDuplicateTitlesUpsert(t *testing.T) {
	imp, svc, st := newTestImporter(t, map[string]string{
		"x.md": "---\ntitle: Same Note\n---\nfrom x",
		"y.md": "---\ntitle: same   note\n---\nfrom y",
	}, Options{})

	report, err := imp.Import()
	require.NoError(t, err)
	assert.Equal(t, &Report{Created: 1, Updated: 1}, report)

	count, err := st.CountNotes()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Lexical walk order: y.md lands last and wins the body
	note, err := svc.GetNoteByTitle("Same Note")
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, "from y", note.Body)
}

func TestImportCreatedBy(t *testing.T) {
	imp, svc, _ := newTestImporter(t, map[string]string{
		"note.md": "# Signed",
	}, Options{CreatedBy: "vault-import"})

	_, err := imp.Import()
	require.NoError(t, err)

	note, err := svc.GetNoteByTitle("Signed")
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, "vault-import", note.CreatedBy)
}

// =============================================================================
// Frontmatter / Markdown Helpers
// =============================================================================

func TestParseFrontmatterNoFence(t *testing.T) {
	fm, meta, body, err := parseFrontmatter([]byte("just text"))
	require.NoError(t, err)
	assert.Equal(t, "", fm.Title)
	assert.Nil(t, meta)
	assert.Equal(t, "just text", body)
}

func TestParseFrontmatterUnterminated(t *testing.T) {
	content := "---\ntitle: Dangling\nno closing fence"
	_, meta, body, err := parseFrontmatter([]byte(content))
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Equal(t, content, body)
}

func TestParseFrontmatterInterpretedKeysExcluded(t *testing.T) {
	fm, meta, body, err := parseFrontmatter([]byte("---\ntitle: T\nfolder: f\n---\nrest"))
	require.NoError(t, err)
	assert.Equal(t, "T", fm.Title)
	assert.Equal(t, "f", fm.Folder)
	assert.Nil(t, meta, "title and folder never leak into metadata")
	assert.Equal(t, "rest", body)
}

func TestExtractTitleVariants(t *testing.T) {
	assert.Equal(t, "Top", extractTitle("# Top\nbody"))
	assert.Equal(t, "", extractTitle("no headings at all"))
	assert.Equal(t, "First", extractTitle("## Sub\n\n# First\n\n# Second"))
}
