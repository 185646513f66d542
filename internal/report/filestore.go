package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore persists reports as JSON files, one per batch.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("report directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Path returns the file path for a batch's report.
func (s *FileStore) Path(batchID string) string {
	return filepath.Join(s.dir, batchID+".report.json")
}

// Save writes the report, replacing any previous report for the batch.
// The write goes through a temp file and rename so readers never see a
// partial document.
func (s *FileStore) Save(r *ValidationReport) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}

	path := s.Path(r.BatchID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize report: %w", err)
	}

	s.logger.Info("report saved",
		zap.String("batch_id", r.BatchID),
		zap.String("path", path),
		zap.Int("flags", len(r.FlaggedItems)),
	)
	return nil
}

// Load reads a previously saved report.
func (s *FileStore) Load(batchID string) (*ValidationReport, error) {
	data, err := os.ReadFile(s.Path(batchID))
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r ValidationReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
