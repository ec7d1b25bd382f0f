package ops

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sadopc/fscan/internal/model"
)

// Match sets are written as
//
//	[1, 0, {"progname":"fscan","progver":"1.0","timestamp":1234567890,"root":"/data"},
//	  [{"path":"/data/a.apk","name":"a.apk","asize":123,"mtime":1700000000},
//	   {"path":"/data/b","name":"b","dir":true}
//	  ]
//	]

const formatMajor = 1

// Snapshot is a saved match set together with the run that produced it.
type Snapshot struct {
	Root      string
	RunID     string
	Version   string
	Timestamp time.Time
	Entries   []model.Entry
}

// JoinRoots names the root of a joint scan over several roots, using the
// OS path list separator.
func JoinRoots(roots []string) string {
	return strings.Join(roots, string(filepath.ListSeparator))
}

type exportHeader struct {
	Progname  string `json:"progname"`
	Progver   string `json:"progver"`
	Timestamp int64  `json:"timestamp"`
	Root      string `json:"root"`
	RunID     string `json:"run_id,omitempty"`
}

type exportEntry struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Dir     bool   `json:"dir,omitempty"`
	Symlink bool   `json:"symlink,omitempty"`
	Asize   int64  `json:"asize,omitempty"`
	Mtime   int64  `json:"mtime,omitempty"`
	Mode    uint32 `json:"mode,omitempty"`
}

func toExportEntry(e model.Entry) exportEntry {
	out := exportEntry{
		Path:    e.Path,
		Name:    e.Name,
		Dir:     e.Dir,
		Symlink: e.Symlink,
		Asize:   e.Size,
		Mode:    uint32(e.Mode),
	}
	if !e.ModTime.IsZero() {
		out.Mtime = e.ModTime.Unix()
	}
	return out
}

// errWriter keeps the first write error so the encoder can write
// unconditionally and check once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) WriteString(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (ew *errWriter) writeJSON(v any) {
	if ew.err != nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		ew.err = err
		return
	}
	_, ew.err = ew.w.Write(data)
}

// ExportJSON writes snap to path, or to stdout when path is "-".
// File targets are written to a temp file and renamed into place, so a
// failed export never leaves a partial file behind.
func ExportJSON(snap Snapshot, path string) (retErr error) {
	if path == "-" {
		return WriteJSON(os.Stdout, snap)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".fscan-export-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create export file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if retErr != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := WriteJSON(tmp, snap); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// Windows refuses to rename over an existing file.
		if runtime.GOOS != "windows" {
			return err
		}
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("cannot replace export file %s: %w", path, err)
		}
		if err := os.Rename(tmpPath, path); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON encodes snap to out.
func WriteJSON(out io.Writer, snap Snapshot) error {
	bw := bufio.NewWriterSize(out, 64*1024)
	ew := &errWriter{w: bw}

	version := snap.Version
	if version == "" {
		version = "dev"
	}
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	ew.WriteString(fmt.Sprintf("[%d, 0, ", formatMajor))
	ew.writeJSON(exportHeader{
		Progname:  "fscan",
		Progver:   version,
		Timestamp: ts.Unix(),
		Root:      snap.Root,
		RunID:     snap.RunID,
	})
	ew.WriteString(",\n[")
	for i, e := range snap.Entries {
		if i > 0 {
			ew.WriteString(",")
		}
		ew.WriteString("\n")
		ew.writeJSON(toExportEntry(e))
	}
	ew.WriteString("\n]\n]\n")

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}
