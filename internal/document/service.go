package document

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
	"github.com/ferdiebergado/ragchat/internal/platform/vectorstore"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
)

var ErrDocumentNotFound = errors.New("document not found")

const (
	MetaFilename   = "filename"
	MetaSource     = "source"
	MetaDocumentID = "document_id"
	MetaChunkIndex = "chunk_index"
)

// Result describes one ingested document.
type Result struct {
	DocumentID string
	Filename   string
	Chunks     int
}

// Summary describes one stored document.
type Summary struct {
	DocumentID string
	Filename   string
	Source     string
	Chunks     int
}

type Service interface {
	Ingest(ctx context.Context, sources ...Source) ([]Result, error)
	List(ctx context.Context) ([]Summary, error)
	Search(ctx context.Context, query string, n int) ([]vectorstore.Match, error)
	Delete(ctx context.Context, documentID string) (int, error)
}

type service struct {
	store    vectorstore.Store
	embedder llm.Embedder
	chunker  Chunker
	workers  int
	ingested prometheus.Counter
}

var _ Service = (*service)(nil)

// NewService returns a Service over store. ingested may be nil.
func NewService(store vectorstore.Store, embedder llm.Embedder, cfg *config.Ingest, ingested prometheus.Counter) Service {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &service{
		store:    store,
		embedder: embedder,
		chunker:  Chunker{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
		workers:  workers,
		ingested: ingested,
	}
}

// DocumentID is the first 16 hex characters of the blake2b-256 of content.
func DocumentID(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

func (s *service) Ingest(ctx context.Context, sources ...Source) ([]Result, error) {
	results := make([]Result, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, src := range sources {
		g.Go(func() error {
			res, err := s.ingest(ctx, src)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", src.Filename, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *service) ingest(ctx context.Context, src Source) (Result, error) {
	chunks := s.chunker.Split(src.Content)
	if len(chunks) == 0 {
		return Result{}, ErrEmptyDocument
	}

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return Result{}, fmt.Errorf("%w: %d chunks, %d embeddings", llm.ErrEmbeddingCount, len(chunks), len(vectors))
	}

	docID := DocumentID(src.Content)
	source := src.Path
	if source == "" {
		source = src.Filename
	}

	docs := make([]vectorstore.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vectorstore.Document{
			ID:      docID + "-" + strconv.Itoa(i),
			Content: chunk,
			Metadata: map[string]string{
				MetaFilename:   src.Filename,
				MetaSource:     source,
				MetaDocumentID: docID,
				MetaChunkIndex: strconv.Itoa(i),
			},
			Embedding: vectors[i],
		}
	}

	if err := s.store.Add(ctx, docs...); err != nil {
		return Result{}, fmt.Errorf("store chunks: %w", err)
	}

	if s.ingested != nil {
		s.ingested.Add(float64(len(docs)))
	}

	slog.Info("Document ingested.", "filename", src.Filename, "document_id", docID, "chunks", len(docs))
	return Result{DocumentID: docID, Filename: src.Filename, Chunks: len(docs)}, nil
}

func (s *service) List(ctx context.Context) ([]Summary, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	byID := make(map[string]*Summary)
	for _, doc := range docs {
		id := doc.Metadata[MetaDocumentID]
		if id == "" {
			id = doc.ID
		}

		sum, ok := byID[id]
		if !ok {
			sum = &Summary{
				DocumentID: id,
				Filename:   doc.Metadata[MetaFilename],
				Source:     doc.Metadata[MetaSource],
			}
			byID[id] = sum
		}
		sum.Chunks++
	}

	summaries := make([]Summary, 0, len(byID))
	for _, sum := range byID {
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Filename != summaries[j].Filename {
			return summaries[i].Filename < summaries[j].Filename
		}
		return summaries[i].DocumentID < summaries[j].DocumentID
	})
	return summaries, nil
}

func (s *service) Search(ctx context.Context, query string, n int) ([]vectorstore.Match, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", llm.ErrEmbeddingCount, len(vectors))
	}

	return vectorstore.DebugSearch(ctx, s.store, vectors[0], n)
}

func (s *service) Delete(ctx context.Context, documentID string) (int, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list chunks: %w", err)
	}

	var ids []string
	for _, doc := range docs {
		if doc.Metadata[MetaDocumentID] == documentID {
			ids = append(ids, doc.ID)
		}
	}
	if len(ids) == 0 {
		return 0, ErrDocumentNotFound
	}

	if err := s.store.Delete(ctx, ids...); err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}

	slog.Info("Document deleted.", "document_id", documentID, "chunks", len(ids))
	return len(ids), nil
}
