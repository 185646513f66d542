package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Service tracks completed item keys for one batch.
type Service interface {
	// Done reports whether an item key already reached a terminal state.
	Done(itemKey string) bool

	// MarkDone records a terminal state for an item key and flushes.
	MarkDone(itemKey string, state TerminalState, attempts int) error

	// Records returns a copy of all completion records.
	Records() map[string]Record

	// Flush persists the checkpoint to disk.
	Flush() error
}

// FileService is a file-backed checkpoint, one JSON document per batch.
type FileService struct {
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	batch Batch
	now   func() time.Time
}

// Open loads the checkpoint for batchID from dir, starting fresh when no
// file exists yet.
func Open(dir, batchID string, logger *zap.Logger) (*FileService, error) {
	if batchID == "" {
		return nil, errors.New("batch id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	s := &FileService{
		path:   filepath.Join(dir, batchID+".checkpoint.json"),
		logger: logger,
		batch:  Batch{BatchID: batchID, Records: make(map[string]Record)},
		now:    time.Now,
	}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	if err := json.Unmarshal(data, &s.batch); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", s.path, err)
	}
	if s.batch.Records == nil {
		s.batch.Records = make(map[string]Record)
	}

	logger.Info("loaded checkpoint",
		zap.String("batch_id", batchID),
		zap.Int("completed", len(s.batch.Records)),
	)
	return s, nil
}

// Done implements Service.
func (s *FileService) Done(itemKey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.batch.Records[itemKey]
	return ok
}

// MarkDone implements Service.
func (s *FileService) MarkDone(itemKey string, state TerminalState, attempts int) error {
	s.mu.Lock()
	s.batch.Records[itemKey] = Record{
		ItemKey:     itemKey,
		State:       state,
		Attempts:    attempts,
		CompletedAt: s.now(),
	}
	s.mu.Unlock()
	return s.Flush()
}

// Records implements Service.
func (s *FileService) Records() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Record, len(s.batch.Records))
	for k, v := range s.batch.Records {
		out[k] = v
	}
	return out
}

// Flush implements Service. The write is atomic: a temp file is written
// and renamed over the previous checkpoint.
func (s *FileService) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batch.UpdatedAt = s.now()
	data, err := json.MarshalIndent(&s.batch, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}

var _ Service = (*FileService)(nil)
