package document

import (
	"context"
	"errors"

	"github.com/ferdiebergado/ragchat/internal/platform/vectorstore"
)

type StubService struct {
	IngestFunc func(ctx context.Context, sources ...Source) ([]Result, error)
	ListFunc   func(ctx context.Context) ([]Summary, error)
	SearchFunc func(ctx context.Context, query string, n int) ([]vectorstore.Match, error)
	DeleteFunc func(ctx context.Context, documentID string) (int, error)
}

var _ Service = (*StubService)(nil)

func (s *StubService) Ingest(ctx context.Context, sources ...Source) ([]Result, error) {
	if s.IngestFunc == nil {
		return nil, errors.New("Ingest() not implemented by stub")
	}
	return s.IngestFunc(ctx, sources...)
}

func (s *StubService) List(ctx context.Context) ([]Summary, error) {
	if s.ListFunc == nil {
		return nil, errors.New("List() not implemented by stub")
	}
	return s.ListFunc(ctx)
}

func (s *StubService) Search(ctx context.Context, query string, n int) ([]vectorstore.Match, error) {
	if s.SearchFunc == nil {
		return nil, errors.New("Search() not implemented by stub")
	}
	return s.SearchFunc(ctx, query, n)
}

func (s *StubService) Delete(ctx context.Context, documentID string) (int, error) {
	if s.DeleteFunc == nil {
		return 0, errors.New("Delete() not implemented by stub")
	}
	return s.DeleteFunc(ctx, documentID)
}
