package review

import (
	"context"
	"sync"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
)

// Sink accepts manual review entries. Write-only from the engine's
// perspective; consumption is a human-driven external process.
type Sink interface {
	// Append records one entry. Appending the same item key twice
	// creates two entries.
	Append(ctx context.Context, entry *catalog.ManualReviewEntry) error
}

// MemorySink buffers entries in memory, mainly for tests and dry runs.
type MemorySink struct {
	mu      sync.Mutex
	entries []catalog.ManualReviewEntry
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements Sink.
func (s *MemorySink) Append(ctx context.Context, entry *catalog.ManualReviewEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

// Entries returns a copy of everything appended so far.
func (s *MemorySink) Entries() []catalog.ManualReviewEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.ManualReviewEntry(nil), s.entries...)
}

var _ Sink = (*MemorySink)(nil)
