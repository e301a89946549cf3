package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/darmiel/privaudit/internal/core"
)

const (
	FileExporterType  = "file"
	JSONLExporterType = "jsonl"
)

// exportDocument is the on-disk layout of a FileExporter export.
type exportDocument struct {
	ExportID     string            `json:"export_id"`
	Timestamp    string            `json:"timestamp"`
	SessionID    string            `json:"session_id"`
	TotalRecords int               `json:"total_records"`
	Fingerprint  string            `json:"fingerprint"`
	Entries      []core.AuditEntry `json:"entries"`
}

var _ core.Exporter = (*FileExporter)(nil)

// FileExporter writes every snapshot into its own JSON file inside a directory.
type FileExporter struct {
	dir string
}

func NewFileExporter(dir string) (*FileExporter, error) {
	if dir == "" {
		return nil, fmt.Errorf("export directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	return &FileExporter{dir: dir}, nil
}

func (f *FileExporter) Name() string {
	return FileExporterType
}

// FileName returns the name of the file a snapshot is written to.
func FileName(snapshot core.Snapshot) string {
	id := snapshot.ExportID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("audit-export-%s-%s.json",
		snapshot.Timestamp.UTC().Format("20060102T150405Z"), id)
}

func (f *FileExporter) Export(_ context.Context, snapshot core.Snapshot) (core.ExportResult, error) {
	path := filepath.Join(f.dir, FileName(snapshot))
	res, err := newResult(f.Name(), snapshot, path)
	if err != nil {
		return core.ExportResult{}, err
	}

	entries := snapshot.Entries
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	doc := exportDocument{
		ExportID:     snapshot.ExportID,
		Timestamp:    snapshot.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		SessionID:    snapshot.SessionID,
		TotalRecords: snapshot.TotalRecords,
		Fingerprint:  res.Fingerprint,
		Entries:      entries,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return core.ExportResult{}, fmt.Errorf("encoding export document: %w", err)
	}

	// write to a temp file first so readers never see a partial export
	tmp, err := os.CreateTemp(f.dir, ".audit-export-*")
	if err != nil {
		return core.ExportResult{}, fmt.Errorf("creating temp export file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return core.ExportResult{}, fmt.Errorf("writing export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return core.ExportResult{}, fmt.Errorf("closing export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return core.ExportResult{}, fmt.Errorf("moving export file into place: %w", err)
	}
	return res, nil
}

func (f *FileExporter) Close() error {
	return nil
}

var _ core.Exporter = (*JSONLExporter)(nil)

// JSONLExporter appends the entries of each snapshot to a single file,
// one JSON object per line. A snapshot is written in a single write, so the
// file never holds part of a snapshot.
type JSONLExporter struct {
	mu   sync.Mutex
	path string
	file *os.File
}

func NewJSONLExporter(filePath string) (*JSONLExporter, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening export file: %w", err)
	}
	return &JSONLExporter{
		path: filePath,
		file: file,
	}, nil
}

func (j *JSONLExporter) Name() string {
	return JSONLExporterType
}

func (j *JSONLExporter) Export(ctx context.Context, snapshot core.Snapshot) (core.ExportResult, error) {
	res, err := newResult(j.Name(), snapshot, j.path)
	if err != nil {
		return core.ExportResult{}, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range snapshot.Entries {
		if err := ctx.Err(); err != nil {
			return core.ExportResult{}, err
		}
		if err := enc.Encode(entry); err != nil {
			return core.ExportResult{}, fmt.Errorf("encoding export entry: %w", err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return core.ExportResult{}, err
	}
	if _, err := j.file.Write(buf.Bytes()); err != nil {
		return core.ExportResult{}, fmt.Errorf("writing export entries: %w", err)
	}
	return res, nil
}

func (j *JSONLExporter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
