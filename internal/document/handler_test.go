package document_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ferdiebergado/ragchat/internal/document"
	"github.com/ferdiebergado/ragchat/internal/pkg/web"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
	"github.com/ferdiebergado/ragchat/internal/platform/vectorstore"
)

func TestHandler_Ingest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ingestFunc func(ctx context.Context, sources ...document.Source) ([]document.Result, error)
		wantStatus int
	}{
		{
			name: "Created",
			ingestFunc: func(_ context.Context, sources ...document.Source) ([]document.Result, error) {
				if sources[0].Filename != "guide.md" || sources[0].Path != "docs/guide.md" {
					t.Errorf("source = %+v", sources[0])
				}
				return []document.Result{{DocumentID: "abc", Filename: "guide.md", Chunks: 4}}, nil
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "Embedder unavailable",
			ingestFunc: func(context.Context, ...document.Source) ([]document.Result, error) {
				return nil, llm.ErrUnavailable
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "Empty document",
			ingestFunc: func(context.Context, ...document.Source) ([]document.Result, error) {
				return nil, document.ErrEmptyDocument
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := document.NewHandler(&document.StubService{IngestFunc: tt.ingestFunc})

			params := document.IngestRequest{Filename: "docs/guide.md", Content: "text"}
			req := httptest.NewRequest(http.MethodPost, "/documents", nil)
			req = req.WithContext(web.NewContextWithParams(req.Context(), params))
			rec := httptest.NewRecorder()

			h.Ingest(rec, req)

			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Fatalf("res.StatusCode = %d, want: %d", res.StatusCode, tt.wantStatus)
			}
			web.AssertContentType(t, res)

			if tt.wantStatus == http.StatusCreated {
				body := web.DecodeJSONResponse[web.OKResponse[document.IngestResponse]](t, res)
				if body.Data.DocumentID != "abc" || body.Data.Chunks != 4 {
					t.Errorf("body.Data = %+v", body.Data)
				}
			}
		})
	}
}

func TestHandler_Search_DefaultsResults(t *testing.T) {
	t.Parallel()

	var gotN int
	h := document.NewHandler(&document.StubService{
		SearchFunc: func(_ context.Context, _ string, n int) ([]vectorstore.Match, error) {
			gotN = n
			return []vectorstore.Match{{Document: vectorstore.Document{ID: "x-0", Content: "hi"}, Distance: 0.2}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/documents/search", nil)
	req = req.WithContext(web.NewContextWithParams(req.Context(), document.SearchRequest{Query: "hi"}))
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("res.StatusCode = %d, want: %d", res.StatusCode, http.StatusOK)
	}
	if gotN != 3 {
		t.Errorf("n = %d, want: %d", gotN, 3)
	}

	body := web.DecodeJSONResponse[web.OKResponse[document.SearchResponse]](t, res)
	if len(body.Data.Results) != 1 || body.Data.Results[0].Distance != 0.2 {
		t.Errorf("body.Data = %+v", body.Data)
	}
}

func TestHandler_Delete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Deleted", nil, http.StatusOK},
		{"Not found", document.ErrDocumentNotFound, http.StatusNotFound},
		{"Store closed", vectorstore.ErrNotConnected, http.StatusServiceUnavailable},
		{"Unexpected", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := document.NewHandler(&document.StubService{
				DeleteFunc: func(_ context.Context, id string) (int, error) {
					if id != "abc" {
						t.Errorf("id = %q, want: %q", id, "abc")
					}
					return 2, tt.err
				},
			})

			mux := http.NewServeMux()
			mux.HandleFunc("DELETE /documents/{document_id}", h.Delete)

			req := httptest.NewRequest(http.MethodDelete, "/documents/abc", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want: %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
