package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/steprelay/pkg/domain"
	"github.com/klauspost/compress/zstd"
)

// Ext is the file extension of a stored trace.
const Ext = ".jsonl.zst"

// Store implements ports.TraceStore using the local filesystem.
//
// Each trace is one zstd-compressed JSON-lines file: a header line with the
// trace metadata, output and errors, followed by one line per snapshot.
type Store struct {
	BasePath string
}

// header is the first line of a trace file.
type header struct {
	ID        string              `json:"id"`
	Program   string              `json:"program,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Steps     int                 `json:"steps"`
	Outputs   []domain.OutputMark `json:"outputs,omitempty"`
	Errors    []string            `json:"errors,omitempty"`
	Sealed    string              `json:"sealed,omitempty"`
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".steprelay/traces".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".steprelay", "traces")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("trace id cannot be empty")
	}
	if filepath.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("invalid trace id %q", id)
	}
	return filepath.Join(s.BasePath, id+Ext), nil
}

// Save writes the trace atomically: it encodes into a temporary file in the
// same directory, fsyncs it and renames it over the destination.
func (s *Store) Save(ctx context.Context, id string, trace *domain.Trace) error {
	destPath, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure trace directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+id+"-*"+Ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if err := encode(tmpFile, trace); err != nil {
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing trace file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to trace: %w", err)
	}
	return nil
}

func encode(w io.Writer, trace *domain.Trace) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)

	h := header{
		ID:        trace.ID,
		Program:   trace.Program,
		CreatedAt: trace.CreatedAt,
		Steps:     len(trace.Steps),
		Outputs:   trace.Outputs,
		Errors:    trace.Errors,
		Sealed:    trace.Sealed,
	}
	if err := enc.Encode(h); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode trace header: %w", err)
	}
	for _, step := range trace.Steps {
		if err := enc.Encode(step); err != nil {
			zw.Close()
			return fmt.Errorf("failed to encode step %d: %w", step.Step, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to flush zstd stream: %w", err)
	}
	return nil
}

// Load reads a trace file.
func (s *Store) Load(ctx context.Context, id string) (*domain.Trace, error) {
	filePath, err := s.path(id)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrTraceNotFound
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	dec := json.NewDecoder(zr)
	var h header
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to decode trace header: %w", err)
	}

	trace := &domain.Trace{
		ID:        h.ID,
		Program:   h.Program,
		CreatedAt: h.CreatedAt,
		Steps:     make([]domain.Snapshot, 0, h.Steps),
		Outputs:   h.Outputs,
		Errors:    h.Errors,
		Sealed:    h.Sealed,
	}
	for {
		var step domain.Snapshot
		if err := dec.Decode(&step); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode step %d: %w", len(trace.Steps), err)
		}
		trace.Steps = append(trace.Steps, step)
	}
	if len(trace.Steps) != h.Steps {
		return nil, fmt.Errorf("trace %s is truncated: %d of %d steps", id, len(trace.Steps), h.Steps)
	}
	return trace, nil
}

// Delete removes the trace file.
func (s *Store) Delete(ctx context.Context, id string) error {
	filePath, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete trace file: %w", err)
	}
	return nil
}

// List returns the stored trace IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, Ext) || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, Ext))
	}
	sort.Strings(ids)
	return ids, nil
}
