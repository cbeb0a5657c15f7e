package vectorstore

import (
	"context"
	"errors"
)

type StubStore struct {
	AddFunc    func(ctx context.Context, docs ...Document) error
	QueryFunc  func(ctx context.Context, embedding []float32, n int) ([]Match, error)
	ListFunc   func(ctx context.Context) ([]Document, error)
	DeleteFunc func(ctx context.Context, ids ...string) error
	CountFunc  func(ctx context.Context) (int, error)
}

var _ Store = (*StubStore)(nil)

func (s *StubStore) Add(ctx context.Context, docs ...Document) error {
	if s.AddFunc == nil {
		return errors.New("Add() not implemented by stub")
	}
	return s.AddFunc(ctx, docs...)
}

func (s *StubStore) Query(ctx context.Context, embedding []float32, n int) ([]Match, error) {
	if s.QueryFunc == nil {
		return nil, errors.New("Query() not implemented by stub")
	}
	return s.QueryFunc(ctx, embedding, n)
}

func (s *StubStore) List(ctx context.Context) ([]Document, error) {
	if s.ListFunc == nil {
		return nil, errors.New("List() not implemented by stub")
	}
	return s.ListFunc(ctx)
}

func (s *StubStore) Delete(ctx context.Context, ids ...string) error {
	if s.DeleteFunc == nil {
		return errors.New("Delete() not implemented by stub")
	}
	return s.DeleteFunc(ctx, ids...)
}

func (s *StubStore) Count(ctx context.Context) (int, error) {
	if s.CountFunc == nil {
		return 0, errors.New("Count() not implemented by stub")
	}
	return s.CountFunc(ctx)
}

func (s *StubStore) Close() error {
	return nil
}
