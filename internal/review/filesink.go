package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
)

// FileSink appends entries to a JSONL file, one JSON object per line.
// Appends are serialized and synced so a crashed run never leaves a torn
// line behind a completed Append call.
type FileSink struct {
	path   string
	logger *zap.Logger

	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (creating if needed) the JSONL file at path.
func NewFileSink(path string, logger *zap.Logger) (*FileSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sink directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open review sink: %w", err)
	}
	return &FileSink{path: path, logger: logger, file: f}, nil
}

// Append implements Sink.
func (s *FileSink) Append(ctx context.Context, entry *catalog.ManualReviewEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal review entry: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("failed to append review entry: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync review sink: %w", err)
	}

	s.logger.Info("appended manual review entry",
		zap.String("item_key", entry.ItemKey),
		zap.Int("attempts", entry.Attempts),
	)
	return nil
}

// ReadEntries reads back every appended entry, oldest first. Meant for
// operator dashboards; entries stay in the file until an external
// remediation process clears them.
func (s *FileSink) ReadEntries() ([]catalog.ManualReviewEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read review sink: %w", err)
	}

	var entries []catalog.ManualReviewEntry
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry catalog.ManualReviewEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to decode review entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

var _ Sink = (*FileSink)(nil)
