package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/okian/vitae/internal/domain/model"
	"github.com/okian/vitae/pkg/logger"
	"github.com/okian/vitae/pkg/metrics"
)

// Default file store configuration constants.
const (
	defaultFilename = "analyses.json"
	dirPermission   = 0o750
	filePermission  = 0o600
)

// document is the single durable state blob. Every mutation rewrites it
// in full and swaps it into place atomically.
type document struct {
	Analyses []*model.AnalysisRecord `json:"analyses"`
}

// FileStore implements Store over one JSON document on disk.
//
// The write path is single-writer: writeMu serializes the whole
// read-modify-write-swap cycle. The in-memory view is guarded separately
// by an RWMutex so readers never block a writer mid-swap and never see
// an intermediate state.
type FileStore struct {
	dir      string
	filename string
	logger   logger.Logger

	writeMu sync.Mutex

	mu      sync.RWMutex
	records map[string]*model.AnalysisRecord
	lastTS  time.Time
	closed  bool
}

// Open loads (or initializes) the analysis document under dir.
// A missing document is not an error; the store starts empty.
func Open(ctx context.Context, dir string, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		dir:      dir,
		filename: defaultFilename,
		records:  make(map[string]*model.AnalysisRecord),
		logger:   logger.Get().Named("store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	raw, err := os.ReadFile(s.path())
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run; nothing persisted yet.
	case err != nil:
		return nil, fmt.Errorf("read analysis document: %w", err)
	default:
		var doc document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode analysis document: %w", err)
		}
		for _, rec := range doc.Analyses {
			if rec == nil || rec.ID == "" {
				continue
			}
			s.records[rec.ID] = rec
			if rec.Timestamp.After(s.lastTS) {
				s.lastTS = rec.Timestamp
			}
		}
	}

	metrics.UpdateStoredAnalyses(len(s.records))
	s.logger.Info(ctx, "analysis store opened",
		logger.String("path", s.path()),
		logger.Int("records", len(s.records)),
	)
	return s, nil
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, s.filename)
}

// Append durably persists a new record. The record's timestamp is
// clamped so creation times never run backwards across appends.
func (s *FileStore) Append(ctx context.Context, rec *model.AnalysisRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("append: %w", ErrIncompleteScores)
	}
	if !model.CompleteScores(rec.AreaScores) {
		return fmt.Errorf("append %s: %w", rec.ID, ErrIncompleteScores)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	_, exists := s.records[rec.ID]
	closed := s.closed
	last := s.lastTS
	s.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if exists {
		return fmt.Errorf("append %s: %w", rec.ID, ErrConflict)
	}

	stored := cloneRecord(rec)
	if stored.Timestamp.IsZero() || stored.Timestamp.Before(last) {
		stored.Timestamp = last
	}

	if err := s.persist(func(doc *document) {
		doc.Analyses = append(doc.Analyses, stored)
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.records[stored.ID] = stored
	s.lastTS = stored.Timestamp
	total := len(s.records)
	s.mu.Unlock()

	metrics.UpdateStoredAnalyses(total)
	s.logger.Debug(ctx, "record appended",
		logger.String("id", stored.ID),
		logger.String("filename", stored.Filename),
	)
	return nil
}

// Get returns a copy of the record with the given id.
func (s *FileStore) Get(_ context.Context, id string) (*model.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return cloneRecord(rec), nil
}

// List returns records ordered by timestamp descending, skipping offset
// records and truncating to limit.
func (s *FileStore) List(ctx context.Context, limit, offset int) ([]*model.AnalysisRecord, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Snapshot is ascending; reverse into newest-first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if offset > 0 {
		if offset >= len(all) {
			return []*model.AnalysisRecord{}, nil
		}
		all = all[offset:]
	}
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Delete removes the record with the given id from the durable document.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	_, ok := s.records[id]
	closed := s.closed
	s.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}

	if err := s.persist(func(doc *document) {
		kept := doc.Analyses[:0]
		for _, rec := range doc.Analyses {
			if rec.ID != id {
				kept = append(kept, rec)
			}
		}
		doc.Analyses = kept
	}); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.records, id)
	total := len(s.records)
	s.mu.Unlock()

	metrics.UpdateStoredAnalyses(total)
	s.logger.Debug(ctx, "record deleted", logger.String("id", id))
	return nil
}

// Snapshot returns every record ordered by timestamp ascending.
func (s *FileStore) Snapshot(_ context.Context) ([]*model.AnalysisRecord, error) {
	s.mu.RLock()
	out := make([]*model.AnalysisRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Count returns the number of stored records.
func (s *FileStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close rejects further use of the store. All completed mutations are
// already durable, so there is nothing to flush.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// persist rebuilds the full document from the in-memory view, applies
// mutate, writes it to a temp file in the same directory, syncs, and
// renames over the live path. An interrupted write leaves the previous
// document intact.
func (s *FileStore) persist(mutate func(*document)) error {
	s.mu.RLock()
	doc := document{Analyses: make([]*model.AnalysisRecord, 0, len(s.records)+1)}
	for _, rec := range s.records {
		doc.Analyses = append(doc.Analyses, rec)
	}
	s.mu.RUnlock()

	sort.SliceStable(doc.Analyses, func(i, j int) bool {
		if doc.Analyses[i].Timestamp.Equal(doc.Analyses[j].Timestamp) {
			return doc.Analyses[i].ID < doc.Analyses[j].ID
		}
		return doc.Analyses[i].Timestamp.Before(doc.Analyses[j].Timestamp)
	})
	mutate(&doc)

	raw, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analysis document: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, s.filename+".*")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Chmod(tmpPath, filePermission); err != nil {
		return fmt.Errorf("chmod temp document: %w", err)
	}
	if err := os.Rename(tmpPath, s.path()); err != nil {
		return fmt.Errorf("swap analysis document: %w", err)
	}
	return nil
}

// cloneRecord deep-copies a record so stored state can never be mutated
// through a reader's reference.
func cloneRecord(rec *model.AnalysisRecord) *model.AnalysisRecord {
	out := *rec
	if rec.AreaScores != nil {
		out.AreaScores = make(map[model.Area]float64, len(rec.AreaScores))
		for a, v := range rec.AreaScores {
			out.AreaScores[a] = v
		}
	}
	if rec.Specializations != nil {
		out.Specializations = append([]model.Specialization(nil), rec.Specializations...)
	}
	if rec.UnscoredAreas != nil {
		out.UnscoredAreas = append([]model.Area(nil), rec.UnscoredAreas...)
	}
	return &out
}
