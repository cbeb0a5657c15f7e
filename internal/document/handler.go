package document

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/ferdiebergado/ragchat/internal/pkg/message"
	"github.com/ferdiebergado/ragchat/internal/pkg/web"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
	"github.com/ferdiebergado/ragchat/internal/platform/vectorstore"
)

const defaultSearchResults = 3

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type IngestRequest struct {
	Filename string `json:"filename,omitempty" validate:"required,max=255"`
	Content  string `json:"content,omitempty" validate:"required"`
}

func (r *IngestRequest) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("filename", r.Filename),
		slog.Int("content_chars", len(r.Content)),
	)
}

type IngestResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	req, err := web.ParamsFromContext[IngestRequest](r.Context())
	if err != nil {
		web.RespondBadRequest(w, err, message.InvalidInput, nil)
		return
	}

	src := Source{
		Path:     req.Filename,
		Filename: filepath.Base(req.Filename),
		Content:  req.Content,
	}
	results, err := h.svc.Ingest(r.Context(), src)
	if err != nil {
		h.fail(w, err)
		return
	}

	msg := message.DocumentIngested
	res := results[0]
	web.RespondCreated(w, &msg, &IngestResponse{
		DocumentID: res.DocumentID,
		Filename:   res.Filename,
		Chunks:     res.Chunks,
	})
}

type documentData struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Source     string `json:"source"`
	Chunks     int    `json:"chunks"`
}

type ListDocumentsResponse struct {
	Documents []documentData `json:"documents"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}

	data := make([]documentData, 0, len(summaries))
	for _, s := range summaries {
		data = append(data, documentData(s))
	}
	web.RespondOK(w, nil, &ListDocumentsResponse{Documents: data})
}

type SearchRequest struct {
	Query    string `json:"query,omitempty" validate:"required,notblank"`
	NResults int    `json:"n_results,omitempty" validate:"omitempty,gte=1,lte=50"`
}

type searchHit struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

type SearchResponse struct {
	Results []searchHit `json:"results"`
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := web.ParamsFromContext[SearchRequest](r.Context())
	if err != nil {
		web.RespondBadRequest(w, err, message.InvalidInput, nil)
		return
	}

	n := req.NResults
	if n == 0 {
		n = defaultSearchResults
	}

	matches, err := h.svc.Search(r.Context(), req.Query, n)
	if err != nil {
		h.fail(w, err)
		return
	}

	hits := make([]searchHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, searchHit{
			ID:       m.ID,
			Content:  m.Content,
			Metadata: m.Metadata,
			Distance: m.Distance,
		})
	}
	web.RespondOK(w, nil, &SearchResponse{Results: hits})
}

type DeleteResponse struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks"`
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("document_id")

	n, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	msg := message.DocumentDeleted
	web.RespondOK(w, &msg, &DeleteResponse{DocumentID: id, Chunks: n})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		web.RespondNotFound(w, err, message.DocumentNotFound, nil)
	case errors.Is(err, ErrEmptyDocument):
		web.RespondUnprocessableEntity(w, err, ErrEmptyDocument.Error(), nil)
	case errors.Is(err, llm.ErrUnavailable):
		web.RespondServiceUnavailable(w, err, message.LLMUnavailable)
	case errors.Is(err, vectorstore.ErrNotConnected):
		web.RespondServiceUnavailable(w, err, message.StoreUnavailable)
	default:
		web.RespondInternalServerError(w, err)
	}
}
