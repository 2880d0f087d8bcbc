// Package related finds the notes nearest to a note in embedding space.
// Vectors come from an external embedding model and are handed in by the
// caller; this package only stores, indexes and queries them.
package related

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/fogfish/hnsw"
	"github.com/fogfish/hnsw/vector"
	"github.com/hack-pad/hackpadfs"
	kvector "github.com/kshard/vector"
)

// Index is an HNSW index over note embeddings with an optional snapshot
// file. HNSW keys vectors by uint32, so the index carries the note-id
// mapping alongside and persists both together.
type Index struct {
	mu   sync.RWMutex
	hnsw *hnsw.HNSW[vector.VF32]
	ids  []string          // HNSW key -> note id
	keys map[string]uint32 // note id -> HNSW key
	fs   hackpadfs.FS
	path string
}

// snapshot is the gob payload of the snapshot file.
type snapshot struct {
	Nodes hnsw.Nodes[vector.VF32]
	IDs   []string
}

// NewIndex opens the snapshot at path when one exists, otherwise starts
// empty. Pass a nil fs for a purely in-memory index.
func NewIndex(fs hackpadfs.FS, path string) (*Index, error) {
	x := &Index{fs: fs, path: path}
	if fs == nil || x.load() != nil {
		x.reset()
	}
	return x, nil
}

func (x *Index) reset() {
	// config: standard Cosine
	x.hnsw = hnsw.New[vector.VF32](vector.SurfaceVF32(kvector.Cosine()))
	x.ids = nil
	x.keys = make(map[string]uint32)
}

// Reset empties the index.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.reset()
}

// Add inserts a note's embedding. HNSW has no update; re-adding a note id
// layers a second vector under the same key, and the stale one lingers
// until the next rebuild.
func (x *Index) Add(noteID string, vec []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.hnsw.Size() > 0 {
		dim := len(x.hnsw.Head().Vec)
		if len(vec) != dim {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", dim, len(vec))
		}
	}

	key, ok := x.keys[noteID]
	if !ok {
		key = uint32(len(x.ids))
		x.ids = append(x.ids, noteID)
		x.keys[noteID] = key
	}

	x.hnsw.Insert(vector.VF32{Key: key, Vec: vec})
	return nil
}

// Nearest returns the ids of up to k distinct notes nearest to vec, best
// first.
func (x *Index) Nearest(vec []float32, k int) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.hnsw.Size() == 0 {
		return nil, nil
	}

	dim := len(x.hnsw.Head().Vec)
	if len(vec) != dim {
		return nil, fmt.Errorf("vector dimension mismatch: expected %d, got %d", dim, len(vec))
	}

	ef := k * 2
	if ef < 100 {
		ef = 100
	}

	results := x.hnsw.Search(vector.VF32{Vec: vec}, k, ef)

	seen := make(map[string]bool, len(results))
	ids := make([]string, 0, len(results))
	for _, r := range results {
		id := x.ids[r.Key]
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return ids, nil
}

// Len returns the number of distinct notes in the index.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids)
}

// Save persists the index to its snapshot file. No-op without a backing FS.
func (x *Index) Save() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.fs == nil {
		return nil
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(snapshot{Nodes: x.hnsw.Nodes(), IDs: x.ids}); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if err := hackpadfs.WriteFullFile(x.fs, x.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}

	return nil
}

// load reads the snapshot file. Only called before the index is shared.
func (x *Index) load() error {
	content, err := hackpadfs.ReadFile(x.fs, x.path)
	if err != nil {
		return err
	}

	var snap snapshot
	dec := gob.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode index: %w", err)
	}

	// Rehydrate
	x.hnsw = hnsw.FromNodes[vector.VF32](
		vector.SurfaceVF32(kvector.Cosine()),
		snap.Nodes,
	)
	x.ids = snap.IDs
	x.keys = make(map[string]uint32, len(snap.IDs))
	for i, id := range snap.IDs {
		x.keys[id] = uint32(i)
	}

	return nil
}
