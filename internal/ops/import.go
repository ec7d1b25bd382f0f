package ops

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/sadopc/fscan/internal/model"
)

// ImportJSON reads a match set written by ExportJSON.
func ImportJSON(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("cannot open import file: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadJSON decodes a match set from r.
func ReadJSON(r io.Reader) (Snapshot, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Snapshot{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(raw) < 4 {
		return Snapshot{}, fmt.Errorf("invalid export format: expected 4 elements, got %d", len(raw))
	}

	var major int
	if err := json.Unmarshal(raw[0], &major); err != nil {
		return Snapshot{}, fmt.Errorf("invalid format version: %w", err)
	}
	if major != formatMajor {
		return Snapshot{}, fmt.Errorf("unsupported export format version %d", major)
	}

	var header exportHeader
	if err := json.Unmarshal(raw[2], &header); err != nil {
		return Snapshot{}, fmt.Errorf("cannot parse header: %w", err)
	}

	var entries []exportEntry
	if err := json.Unmarshal(raw[3], &entries); err != nil {
		return Snapshot{}, fmt.Errorf("cannot parse entries: %w", err)
	}

	snap := Snapshot{
		Root:      header.Root,
		RunID:     header.RunID,
		Version:   header.Progver,
		Timestamp: time.Unix(header.Timestamp, 0),
		Entries:   make([]model.Entry, 0, len(entries)),
	}
	for i, e := range entries {
		if e.Path == "" {
			return Snapshot{}, fmt.Errorf("entry %d has no path", i)
		}
		snap.Entries = append(snap.Entries, fromExportEntry(e))
	}
	return snap, nil
}

func fromExportEntry(e exportEntry) model.Entry {
	entry := model.Entry{
		Path:    e.Path,
		Name:    e.Name,
		Dir:     e.Dir,
		Hidden:  model.IsHiddenName(e.Name),
		Symlink: e.Symlink,
		Size:    e.Asize,
		Mode:    fs.FileMode(e.Mode),
	}
	if e.Mtime != 0 {
		entry.ModTime = time.Unix(e.Mtime, 0)
	}
	return entry
}
