// Package vectorstore persists document chunks with their embeddings and
// answers nearest-neighbour queries over them.
package vectorstore

import (
	"context"
	"errors"
)

var (
	ErrNotConnected      = errors.New("vector store is not connected")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrUnknownMetric     = errors.New("unknown distance metric")
	ErrUnknownBackend    = errors.New("unknown vector store backend")
	ErrMetricMismatch    = errors.New("collection distance metric mismatch")
)

// Document is one stored chunk.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// Match is a query hit. Lower distances are closer.
type Match struct {
	Document
	Distance float64
}

type Store interface {
	// Add inserts docs, replacing any document with the same ID.
	Add(ctx context.Context, docs ...Document) error

	// Query returns up to n documents ordered by ascending distance to embedding.
	Query(ctx context.Context, embedding []float32, n int) ([]Match, error)

	// List returns every stored document without its embedding.
	List(ctx context.Context) ([]Document, error)

	Delete(ctx context.Context, ids ...string) error
	Count(ctx context.Context) (int, error)
	Close() error
}
