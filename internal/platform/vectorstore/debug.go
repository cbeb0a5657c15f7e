package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
)

const previewChars = 100

// DebugSearch runs a query and logs every hit with its distance and a
// short preview of its content.
func DebugSearch(ctx context.Context, store Store, embedding []float32, n int) ([]Match, error) {
	matches, err := store.Query(ctx, embedding, n)
	if err != nil {
		return nil, fmt.Errorf("debug search: %w", err)
	}

	slog.Debug("Debug search", "results", len(matches))
	for i, m := range matches {
		slog.Debug("Debug search hit",
			"rank", i+1,
			"filename", filepath.Base(m.Metadata["filename"]),
			"distance", m.Distance,
			"preview", Preview(m.Content, previewChars),
		)
	}
	return matches, nil
}

// Preview returns the first n runes of s followed by "..." when s is longer.
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
