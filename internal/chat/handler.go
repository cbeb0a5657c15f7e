package chat

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ferdiebergado/ragchat/internal/auth"
	"github.com/ferdiebergado/ragchat/internal/pkg/message"
	"github.com/ferdiebergado/ragchat/internal/pkg/web"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
	"github.com/ferdiebergado/ragchat/internal/platform/vectorstore"
)

type Handler struct {
	svc Service
	now func() time.Time
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

type messageData struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Sources    []string  `json:"sources"`
	SearchUsed bool      `json:"search_used"`
}

type SessionData struct {
	SessionID string        `json:"session_id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []messageData `json:"messages"`
}

func newMessages(msgs []Message) []messageData {
	data := make([]messageData, 0, len(msgs))
	for _, m := range msgs {
		sources := m.Sources
		if sources == nil {
			sources = []string{}
		}
		data = append(data, messageData{
			Role:       m.Role,
			Content:    m.Content,
			Timestamp:  m.Timestamp,
			Sources:    sources,
			SearchUsed: m.SearchUsed,
		})
	}
	return data
}

func newSessionData(s Session) SessionData {
	return SessionData{
		SessionID: s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  newMessages(s.Messages),
	}
}

type NewSessionRequest struct {
	Title string `json:"title,omitempty" validate:"omitempty,max=200"`
}

type NewSessionResponse struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	req, err := web.ParamsFromContext[NewSessionRequest](r.Context())
	if err != nil {
		web.RespondBadRequest(w, err, message.InvalidInput, nil)
		return
	}

	session, err := h.svc.CreateSession(r.Context(), auth.OwnerFromContext(r.Context()), req.Title)
	if err != nil {
		h.fail(w, err)
		return
	}

	web.JSON(w, http.StatusOK, &NewSessionResponse{SessionID: session.ID, Title: session.Title})
}

type ListSessionsResponse struct {
	Sessions []SessionData `json:"sessions"`
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListSessions(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}

	data := make([]SessionData, 0, len(sessions))
	for _, s := range sessions {
		data = append(data, newSessionData(s))
	}
	web.JSON(w, http.StatusOK, &ListSessionsResponse{Sessions: data})
}

type GroupData struct {
	Label    string        `json:"label"`
	Sessions []SessionData `json:"sessions"`
}

type GroupedSessionsResponse struct {
	Groups []GroupData `json:"groups"`
}

func (h *Handler) GroupedSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListSessions(r.Context(), auth.OwnerFromContext(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}

	groups := GroupSessions(sessions, h.now())
	data := make([]GroupData, 0, len(groups))
	for _, g := range groups {
		sessions := make([]SessionData, 0, len(g.Sessions))
		for _, s := range g.Sessions {
			sessions = append(sessions, newSessionData(s))
		}
		data = append(data, GroupData{Label: g.Label, Sessions: sessions})
	}
	web.JSON(w, http.StatusOK, &GroupedSessionsResponse{Groups: data})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.GetSession(r.Context(), auth.OwnerFromContext(r.Context()), r.PathValue("session_id"))
	if err != nil {
		h.fail(w, err)
		return
	}

	data := newSessionData(session)
	web.JSON(w, http.StatusOK, &data)
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSession(r.Context(), auth.OwnerFromContext(r.Context()), r.PathValue("session_id")); err != nil {
		h.fail(w, err)
		return
	}

	web.JSON(w, http.StatusOK, &MessageResponse{Message: message.SessionDeleted})
}

type ChatRequest struct {
	Message         string `json:"message,omitempty" validate:"required,notblank"`
	SessionID       string `json:"session_id,omitempty"`
	SearchDocuments *bool  `json:"search_documents,omitempty"`
}

func (r *ChatRequest) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("message_chars", len(r.Message)),
		slog.String("session_id", r.SessionID),
		slog.Bool("search_documents", r.searchDocuments()),
	)
}

func (r *ChatRequest) searchDocuments() bool {
	return r.SearchDocuments == nil || *r.SearchDocuments
}

type ChatResponse struct {
	SessionID string        `json:"session_id"`
	Message   string        `json:"message"`
	Sources   []string      `json:"sources"`
	History   []messageData `json:"history"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := web.ParamsFromContext[ChatRequest](r.Context())
	if err != nil {
		web.RespondBadRequest(w, err, message.InvalidInput, nil)
		return
	}
	slog.Info("Chat request", "request", &req)

	params := ChatParams{
		Message:         req.Message,
		SessionID:       req.SessionID,
		SearchDocuments: req.searchDocuments(),
	}
	res, err := h.svc.Chat(r.Context(), auth.OwnerFromContext(r.Context()), params)
	if err != nil {
		h.fail(w, err)
		return
	}

	sources := res.Sources
	if sources == nil {
		sources = []string{}
	}
	web.JSON(w, http.StatusOK, &ChatResponse{
		SessionID: res.SessionID,
		Message:   res.Answer,
		Sources:   sources,
		History:   newMessages(res.History),
	})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		web.RespondNotFound(w, err, message.SessionNotFound, nil)
	case errors.Is(err, llm.ErrUnavailable):
		web.RespondServiceUnavailable(w, err, message.LLMUnavailable)
	case errors.Is(err, vectorstore.ErrNotConnected):
		web.RespondServiceUnavailable(w, err, message.StoreUnavailable)
	default:
		web.RespondInternalServerError(w, err)
	}
}
