package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/thewpsquad/fieldkit/internal/atomicfile"
)

// IndexFileName is the vault index inside the system directory.
const IndexFileName = "index.json"

const indexVersion = 2

// record is one entity as stored in the index.
type record struct {
	ID       int64          `json:"id"`
	PostType string         `json:"post_type"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// fileEntry holds the entities parsed from one file, fingerprinted by mtime and size.
type fileEntry struct {
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
	Records []record  `json:"records"`
}

func (e fileEntry) matches(info iofs.FileInfo) bool {
	return e.Size == info.Size() && e.ModTime.Equal(info.ModTime())
}

type indexFile struct {
	Version int                  `json:"version"`
	Files   map[string]fileEntry `json:"files"`
}

// vaultIndex remembers parsed documents between reloads so unchanged files are not parsed again.
type vaultIndex struct {
	path string

	mu    sync.RWMutex
	files map[string]fileEntry
	dirty bool
}

func newVaultIndex(vaultPath, systemDir string) *vaultIndex {
	return &vaultIndex{
		path:  filepath.Join(vaultPath, systemDir, IndexFileName),
		files: make(map[string]fileEntry),
	}
}

// load replaces the in-memory index with the one on disk. An unreadable,
// corrupt or older index is discarded and rebuilt by the next reload.
func (x *vaultIndex) load() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	data, err := os.ReadFile(x.path)
	if errors.Is(err, os.ErrNotExist) {
		x.files, x.dirty = make(map[string]fileEntry), false
		return nil
	}
	if err != nil {
		x.files, x.dirty = make(map[string]fileEntry), true
		return err
	}

	var f indexFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&f); err != nil || f.Version != indexVersion || f.Files == nil {
		x.files, x.dirty = make(map[string]fileEntry), true
		return nil
	}
	x.files, x.dirty = f.Files, false
	return nil
}

// lookup returns the records of relPath if the file is unchanged since it was indexed.
func (x *vaultIndex) lookup(relPath string, info iofs.FileInfo) ([]record, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	e, ok := x.files[relPath]
	if !ok || !e.matches(info) {
		return nil, false
	}
	return e.Records, true
}

// remember indexes the records parsed from relPath.
func (x *vaultIndex) remember(relPath string, info iofs.FileInfo, records []record) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.files[relPath] = fileEntry{ModTime: info.ModTime(), Size: info.Size(), Records: records}
	x.dirty = true
}

// retain drops every file not in present.
func (x *vaultIndex) retain(present map[string]bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for p := range x.files {
		if !present[p] {
			delete(x.files, p)
			x.dirty = true
		}
	}
}

// flush writes the index when it changed since the last load or flush.
func (x *vaultIndex) flush() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.dirty {
		return nil
	}
	data, err := json.Marshal(indexFile{Version: indexVersion, Files: x.files})
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(x.path, data, 0644); err != nil {
		return err
	}
	x.dirty = false
	return nil
}

func (x *vaultIndex) size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.files)
}
