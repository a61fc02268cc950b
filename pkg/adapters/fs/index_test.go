package fs

import (
	"encoding/json"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeInfo struct {
	size    int64
	modTime time.Time
}

func (f fakeInfo) Name() string        { return "f" }
func (f fakeInfo) Size() int64         { return f.size }
func (f fakeInfo) Mode() iofs.FileMode { return 0644 }
func (f fakeInfo) ModTime() time.Time  { return f.modTime }
func (f fakeInfo) IsDir() bool         { return false }
func (f fakeInfo) Sys() any            { return nil }

func TestVaultIndex(t *testing.T) {
	mtime := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
	info := fakeInfo{size: 42, modTime: mtime}

	t.Run("missing file starts empty", func(t *testing.T) {
		x := newVaultIndex(t.TempDir(), ".fieldkit")
		if err := x.load(); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if x.size() != 0 {
			t.Errorf("expected empty index, got %d", x.size())
		}
	})

	t.Run("flush and reload keeps numbers", func(t *testing.T) {
		dir := t.TempDir()
		x := newVaultIndex(dir, ".fieldkit")
		x.remember("posts/a.md", info, []record{{ID: 1, PostType: "post", Meta: map[string]any{"n": json.Number("3")}}})
		if err := x.flush(); err != nil {
			t.Fatalf("flush failed: %v", err)
		}

		reloaded := newVaultIndex(dir, ".fieldkit")
		if err := reloaded.load(); err != nil {
			t.Fatalf("load failed: %v", err)
		}
		records, hit := reloaded.lookup("posts/a.md", info)
		if !hit {
			t.Fatal("expected hit for unchanged file")
		}
		if records[0].Meta["n"] != json.Number("3") {
			t.Errorf("expected json.Number, got %T", records[0].Meta["n"])
		}
	})

	t.Run("changed fingerprint misses", func(t *testing.T) {
		x := newVaultIndex(t.TempDir(), ".fieldkit")
		x.remember("a.md", info, nil)

		if _, hit := x.lookup("a.md", fakeInfo{size: 42, modTime: mtime.Add(time.Second)}); hit {
			t.Error("expected miss for changed mtime")
		}
		if _, hit := x.lookup("a.md", fakeInfo{size: 43, modTime: mtime}); hit {
			t.Error("expected miss for changed size")
		}
	})

	t.Run("corrupt or outdated index is discarded", func(t *testing.T) {
		for name, content := range map[string]string{
			"corrupt":  "{invalid",
			"outdated": `{"version": 1, "entries": {}}`,
		} {
			t.Run(name, func(t *testing.T) {
				dir := t.TempDir()
				if err := os.MkdirAll(filepath.Join(dir, ".fieldkit"), 0755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(filepath.Join(dir, ".fieldkit", IndexFileName), []byte(content), 0644); err != nil {
					t.Fatal(err)
				}

				x := newVaultIndex(dir, ".fieldkit")
				if err := x.load(); err != nil {
					t.Fatalf("load should discard, got %v", err)
				}
				if x.size() != 0 || !x.dirty {
					t.Errorf("expected empty dirty index, got size=%d dirty=%v", x.size(), x.dirty)
				}
			})
		}
	})

	t.Run("retain drops deleted files", func(t *testing.T) {
		x := newVaultIndex(t.TempDir(), ".fieldkit")
		x.remember("a.md", info, nil)
		x.remember("b.md", info, nil)
		x.retain(map[string]bool{"a.md": true})
		if x.size() != 1 {
			t.Errorf("expected 1 file after retain, got %d", x.size())
		}
	})

	t.Run("flush skips clean index", func(t *testing.T) {
		dir := t.TempDir()
		x := newVaultIndex(dir, ".fieldkit")
		if err := x.flush(); err != nil {
			t.Fatalf("flush failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, ".fieldkit", IndexFileName)); !os.IsNotExist(err) {
			t.Errorf("expected no index file, got %v", err)
		}
	})
}
