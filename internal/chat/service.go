package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/platform/db"
	"github.com/ferdiebergado/ragchat/internal/platform/telemetry"
	"github.com/ferdiebergado/ragchat/internal/rag"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Answerer generates assistant replies.
type Answerer interface {
	Query(ctx context.Context, question string) (rag.Answer, error)
	Direct(ctx context.Context, question string) (string, error)
}

type ChatParams struct {
	Message         string
	SessionID       string
	SearchDocuments bool
}

type ChatResult struct {
	SessionID string
	Answer    string
	Sources   []string
	History   []Message
}

type Service interface {
	CreateSession(ctx context.Context, owner, title string) (Session, error)
	ListSessions(ctx context.Context, owner string) ([]Session, error)
	GetSession(ctx context.Context, owner, id string) (Session, error)
	DeleteSession(ctx context.Context, owner, id string) error
	Chat(ctx context.Context, owner string, params ChatParams) (ChatResult, error)
}

type service struct {
	repo     Repository
	txMgr    db.TxManager
	answerer Answerer
	router   *Router
	cfg      *config.Chat
	now      func() time.Time
}

var _ Service = (*service)(nil)

func NewService(repo Repository, txMgr db.TxManager, answerer Answerer, router *Router, cfg *config.Chat) Service {
	return &service{
		repo:     repo,
		txMgr:    txMgr,
		answerer: answerer,
		router:   router,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) CreateSession(ctx context.Context, owner, title string) (Session, error) {
	if strings.TrimSpace(title) == "" {
		title = s.cfg.DefaultTitle
	}

	now := s.now()
	session := Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return Session{}, err
	}

	slog.Info("Session created.", "session_id", session.ID)
	return session, nil
}

func (s *service) ListSessions(ctx context.Context, owner string) ([]Session, error) {
	sessions, err := s.repo.ListSessions(ctx, owner)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}

	messages, err := s.repo.ListMessages(ctx, ids...)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		sessions[i].Messages = nonNil(messages[sessions[i].ID])
	}
	return sessions, nil
}

func (s *service) GetSession(ctx context.Context, owner, id string) (Session, error) {
	if !validID(id) {
		return Session{}, ErrSessionNotFound
	}

	session, err := s.repo.FindSession(ctx, owner, id)
	if err != nil {
		return Session{}, err
	}

	messages, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return Session{}, err
	}
	session.Messages = nonNil(messages[id])
	return *session, nil
}

func (s *service) DeleteSession(ctx context.Context, owner, id string) error {
	if !validID(id) {
		return ErrSessionNotFound
	}

	if err := s.repo.DeleteSession(ctx, owner, id); err != nil {
		return err
	}

	slog.Info("Session deleted.", "session_id", id)
	return nil
}

// Chat answers params.Message within a session. An empty or unknown session
// ID starts a new session titled after the message. The model is asked before
// anything is written, so a failed answer leaves no trace.
func (s *service) Chat(ctx context.Context, owner string, params ChatParams) (ChatResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "chat.Chat")
	defer span.End()

	session, isNew, err := s.resolveSession(ctx, owner, params)
	if err != nil {
		return ChatResult{}, err
	}

	asked := s.now()
	shouldSearch := params.SearchDocuments && s.router.NeedsDocumentSearch(params.Message)
	span.SetAttributes(
		attribute.Bool("chat.search_requested", params.SearchDocuments),
		attribute.Bool("chat.search_used", shouldSearch),
		attribute.Bool("chat.new_session", isNew),
	)

	answer, sources, err := s.answer(ctx, params.Message, shouldSearch)
	if err != nil {
		return ChatResult{}, err
	}
	answered := s.now()

	userMsg := Message{
		SessionID:  session.ID,
		Role:       RoleUser,
		Content:    params.Message,
		Timestamp:  asked,
		Sources:    []string{},
		SearchUsed: params.SearchDocuments,
	}
	assistantMsg := Message{
		SessionID:  session.ID,
		Role:       RoleAssistant,
		Content:    answer,
		Timestamp:  answered,
		Sources:    sources,
		SearchUsed: shouldSearch,
	}

	var history []Message
	err = s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		if isNew {
			if err := s.repo.CreateSession(txCtx, session); err != nil {
				return err
			}
		}

		if err := s.repo.AddMessages(txCtx, userMsg, assistantMsg); err != nil {
			return err
		}

		count, err := s.repo.CountMessages(txCtx, session.ID)
		if err != nil {
			return err
		}

		title := session.Title
		if count == 2 {
			title = Title(params.Message, s.cfg.TitleLength)
		}
		if err := s.repo.TouchSession(txCtx, session.ID, title, answered); err != nil {
			return err
		}

		messages, err := s.repo.ListMessages(txCtx, session.ID)
		if err != nil {
			return err
		}
		history = nonNil(messages[session.ID])
		return nil
	})
	if err != nil {
		return ChatResult{}, fmt.Errorf("save chat turn: %w", err)
	}

	return ChatResult{
		SessionID: session.ID,
		Answer:    answer,
		Sources:   sources,
		History:   history,
	}, nil
}

func (s *service) resolveSession(ctx context.Context, owner string, params ChatParams) (Session, bool, error) {
	if validID(params.SessionID) {
		session, err := s.repo.FindSession(ctx, owner, params.SessionID)
		if err == nil {
			return *session, false, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return Session{}, false, err
		}
		slog.Info("Unknown session, starting a new one", "session_id", params.SessionID)
	}

	now := s.now()
	return Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		Title:     Title(params.Message, s.cfg.TitleLength),
		CreatedAt: now,
		UpdatedAt: now,
	}, true, nil
}

func (s *service) answer(ctx context.Context, message string, search bool) (string, []string, error) {
	if !search {
		text, err := s.answerer.Direct(ctx, message)
		if err != nil {
			return "", nil, err
		}
		return text, []string{}, nil
	}

	ans, err := s.answerer.Query(ctx, message)
	if err != nil {
		return "", nil, err
	}
	return ans.Text, nonNilStrings(ans.Sources), nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nonNil(msgs []Message) []Message {
	if msgs == nil {
		return []Message{}
	}
	return msgs
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
