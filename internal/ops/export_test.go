package ops

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/fscan/internal/model"
)

func sampleSnapshot() Snapshot {
	mtime := time.Unix(1700000000, 0)
	return Snapshot{
		Root:      "/data",
		RunID:     "run-1",
		Version:   "test-version",
		Timestamp: time.Unix(1700000100, 0),
		Entries: []model.Entry{
			{Path: "/data/a.apk", Name: "a.apk", Size: 12, ModTime: mtime, Mode: 0o644},
			{Path: "/data/b", Name: "b", Dir: true, ModTime: mtime, Mode: 0o755 | os.ModeDir},
			{Path: "/data/.hidden", Name: ".hidden", Hidden: true, Symlink: true},
		},
	}
}

func TestExportJSON_Stdout(t *testing.T) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	os.Stdout = w

	exportErr := ExportJSON(sampleSnapshot(), "-")
	closeErr := w.Close()
	os.Stdout = oldStdout

	if exportErr != nil {
		t.Fatalf("ExportJSON returned error: %v", exportErr)
	}
	if closeErr != nil {
		t.Fatalf("closing pipe writer failed: %v", closeErr)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	out := strings.TrimSpace(string(data))
	for _, want := range []string{`"progver":"test-version"`, `"root":"/data"`, `"path":"/data/a.apk"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in export output, got:\n%s", want, out)
		}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		t.Fatalf("export output is not valid JSON: %v\n%s", err, out)
	}
	if len(raw) != 4 {
		t.Fatalf("expected 4 top-level elements, got %d", len(raw))
	}
}

func TestExportJSON_AtomicNoPartialFile(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "output.json")

	if err := ExportJSON(sampleSnapshot(), target); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}

	// A second export replaces the first in place.
	if err := ExportJSON(Snapshot{Root: "/other"}, target); err != nil {
		t.Fatalf("re-export: %v", err)
	}
	snap, err := ImportJSON(target)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if snap.Root != "/other" || len(snap.Entries) != 0 {
		t.Fatalf("unexpected snapshot after overwrite: %+v", snap)
	}

	leftovers, _ := filepath.Glob(filepath.Join(tmp, ".fscan-export-*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestExportJSON_MissingDirectoryFails(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "out.json")
	if err := ExportJSON(sampleSnapshot(), target); err == nil {
		t.Fatal("expected error exporting into a missing directory")
	}
}

func TestImportJSON_PreservesEntries(t *testing.T) {
	var buf bytes.Buffer
	want := sampleSnapshot()
	if err := WriteJSON(&buf, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Root != want.Root || got.RunID != want.RunID || got.Version != want.Version {
		t.Fatalf("header mismatch: %+v", got)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Fatalf("timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
	if len(got.Entries) != len(want.Entries) {
		t.Fatalf("got %d entries, want %d", len(got.Entries), len(want.Entries))
	}
	for i := range want.Entries {
		w, g := want.Entries[i], got.Entries[i]
		if g.Path != w.Path || g.Name != w.Name || g.Dir != w.Dir || g.Symlink != w.Symlink ||
			g.Hidden != w.Hidden || g.Size != w.Size || g.Mode != w.Mode || !g.ModTime.Equal(w.ModTime) {
			t.Fatalf("entry %d: got %+v, want %+v", i, g, w)
		}
	}
}

func TestImportJSON_Rejects(t *testing.T) {
	tests := map[string]string{
		"not json":      `{`,
		"short":         `[1, 0, {}]`,
		"wrong version": `[2, 0, {"progname":"fscan"}, []]`,
		"missing path":  `[1, 0, {"progname":"fscan"}, [{"name":"x"}]]`,
		"entries type":  `[1, 0, {"progname":"fscan"}, {"path":"/x"}]`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(input)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestImportJSON_MissingFile(t *testing.T) {
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
