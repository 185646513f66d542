package review

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
)

func TestFileSink_AppendsJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews", "manual.jsonl")
	sink, err := NewFileSink(path, nil)
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	require.NoError(t, sink.Append(ctx, &catalog.ManualReviewEntry{ItemKey: "zh|vocab|银行", Attempts: 3, LastError: "shape/examples"}))
	require.NoError(t, sink.Append(ctx, &catalog.ManualReviewEntry{ItemKey: "zh|vocab|银行", Attempts: 3, LastError: "still failing"}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []catalog.ManualReviewEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e catalog.ManualReviewEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())

	// Same key appended twice stays two entries.
	require.Len(t, entries, 2)
	assert.Equal(t, "shape/examples", entries[0].LastError)
	assert.Equal(t, "still failing", entries[1].LastError)
}

func TestMemorySink_CopiesEntries(t *testing.T) {
	sink := NewMemorySink()
	require.NoError(t, sink.Append(context.Background(), &catalog.ManualReviewEntry{ItemKey: "k", Attempts: 3}))

	got := sink.Entries()
	require.Len(t, got, 1)
	got[0].ItemKey = "mutated"

	assert.Equal(t, "k", sink.Entries()[0].ItemKey)
}
