/*
PURPOSE:
  Writes interaction records as JSON Lines.
  One file per (timestamp, model, question); records append.

REQUIREMENTS:
  User-specified:
  - One JSON object per attempted call, fields in record order, UTF-8.
  - File name {timestamp}-{model slug}-{question id or Q}.jsonl.

  Implementation-discovered:
  - Open, append and close per record so a crash loses at most one line.
  - Question ids may contain slashes; they must not leave the export dir.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (RunMatrix, as a RecordSink)
  - Consumes: internal/model.Record

ERROR HANDLING:
  - Returns error on directory, open or write failure.

IMPLEMENTATION RULES:
  - Use encoding/json without HTML escaping.
  - Mutex guards writes so the HTTP API can share one writer.

USAGE:
  w := output.NewJSONWriter("atl_data/exports", runID)
  path, err := w.Write(rec)

SELF-HEALING INSTRUCTIONS:
  - If a field is added, add it to model.Record in its export position.

RELATED FILES:
  - internal/model/types.go
  - internal/output/slug.go

MAINTENANCE:
  - Update the file name scheme only together with downstream tooling.
*/

package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/daryltucker/llm-matrix/internal/model"
)

// DefaultExportDir is where records land when no directory is configured.
const DefaultExportDir = "atl_data/exports"

// timestampLayout is UTC to the second, colon-free so it is safe in filenames.
const timestampLayout = "2006-01-02T15-04-05Z"

// JSONWriter appends interaction records to per-call JSON Lines files.
// No file handle is held between writes.
type JSONWriter struct {
	dir   string
	runID string
	now   func() time.Time
	mu    sync.Mutex
}

// NewJSONWriter creates a writer rooted at dir that stamps runID on every record.
func NewJSONWriter(dir, runID string) *JSONWriter {
	if dir == "" {
		dir = DefaultExportDir
	}
	return &JSONWriter{
		dir:   dir,
		runID: runID,
		now:   time.Now,
	}
}

// Dir returns the export directory.
func (jw *JSONWriter) Dir() string { return jw.dir }

// RunID returns the run identifier stamped on records.
func (jw *JSONWriter) RunID() string { return jw.runID }

// Write stamps the run id and timestamp on r, then appends it as one line to
// {timestamp}-{model slug}-{question id or Q}.jsonl. It returns the file path.
func (jw *JSONWriter) Write(r *model.Record) (string, error) {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := os.MkdirAll(jw.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", jw.dir, err)
	}

	ts := jw.now().UTC().Format(timestampLayout)
	r.RunID = jw.runID
	r.Timestamp = ts

	qtag := "Q"
	if r.QuestionID != nil && *r.QuestionID != "" {
		qtag = fileSafe(*r.QuestionID)
	}
	path := filepath.Join(jw.dir, fmt.Sprintf("%s-%s-%s.jsonl", ts, Slugify(r.Model), qtag))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write record to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// fileSafe keeps a question id from escaping the export directory.
func fileSafe(s string) string {
	return strings.NewReplacer("/", "-", "\\", "-").Replace(s)
}
