package chat

import (
	"context"
	"errors"
	"time"

	"github.com/ferdiebergado/ragchat/internal/rag"
)

type StubService struct {
	CreateSessionFunc func(ctx context.Context, owner, title string) (Session, error)
	ListSessionsFunc  func(ctx context.Context, owner string) ([]Session, error)
	GetSessionFunc    func(ctx context.Context, owner, id string) (Session, error)
	DeleteSessionFunc func(ctx context.Context, owner, id string) error
	ChatFunc          func(ctx context.Context, owner string, params ChatParams) (ChatResult, error)
}

var _ Service = (*StubService)(nil)

func (s *StubService) CreateSession(ctx context.Context, owner, title string) (Session, error) {
	if s.CreateSessionFunc == nil {
		return Session{}, errors.New("CreateSession() not implemented by stub")
	}
	return s.CreateSessionFunc(ctx, owner, title)
}

func (s *StubService) ListSessions(ctx context.Context, owner string) ([]Session, error) {
	if s.ListSessionsFunc == nil {
		return nil, errors.New("ListSessions() not implemented by stub")
	}
	return s.ListSessionsFunc(ctx, owner)
}

func (s *StubService) GetSession(ctx context.Context, owner, id string) (Session, error) {
	if s.GetSessionFunc == nil {
		return Session{}, errors.New("GetSession() not implemented by stub")
	}
	return s.GetSessionFunc(ctx, owner, id)
}

func (s *StubService) DeleteSession(ctx context.Context, owner, id string) error {
	if s.DeleteSessionFunc == nil {
		return errors.New("DeleteSession() not implemented by stub")
	}
	return s.DeleteSessionFunc(ctx, owner, id)
}

func (s *StubService) Chat(ctx context.Context, owner string, params ChatParams) (ChatResult, error) {
	if s.ChatFunc == nil {
		return ChatResult{}, errors.New("Chat() not implemented by stub")
	}
	return s.ChatFunc(ctx, owner, params)
}

type StubAnswerer struct {
	QueryFunc  func(ctx context.Context, question string) (rag.Answer, error)
	DirectFunc func(ctx context.Context, question string) (string, error)
}

var _ Answerer = (*StubAnswerer)(nil)

func (s *StubAnswerer) Query(ctx context.Context, question string) (rag.Answer, error) {
	if s.QueryFunc == nil {
		return rag.Answer{}, errors.New("Query() not implemented by stub")
	}
	return s.QueryFunc(ctx, question)
}

func (s *StubAnswerer) Direct(ctx context.Context, question string) (string, error) {
	if s.DirectFunc == nil {
		return "", errors.New("Direct() not implemented by stub")
	}
	return s.DirectFunc(ctx, question)
}

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	sessions map[string]Session
	messages map[string][]Message
	nextID   int64

	// FailAddMessages makes AddMessages return this error when set.
	FailAddMessages error
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string]Session),
		messages: make(map[string][]Message),
	}
}

func (m *MemoryRepository) CreateSession(_ context.Context, s Session) error {
	s.Messages = nil
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryRepository) ListSessions(_ context.Context, owner string) ([]Session, error) {
	sessions := []Session{}
	for _, s := range m.sessions {
		if s.Owner == owner {
			sessions = append(sessions, s)
		}
	}
	for i := 1; i < len(sessions); i++ {
		for j := i; j > 0 && sessions[j].UpdatedAt.After(sessions[j-1].UpdatedAt); j-- {
			sessions[j], sessions[j-1] = sessions[j-1], sessions[j]
		}
	}
	return sessions, nil
}

func (m *MemoryRepository) FindSession(_ context.Context, owner, id string) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.Owner != owner {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryRepository) DeleteSession(_ context.Context, owner, id string) error {
	s, ok := m.sessions[id]
	if !ok || s.Owner != owner {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	delete(m.messages, id)
	return nil
}

func (m *MemoryRepository) TouchSession(_ context.Context, id, title string, updatedAt time.Time) error {
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Title = title
	s.UpdatedAt = updatedAt
	m.sessions[id] = s
	return nil
}

func (m *MemoryRepository) AddMessages(_ context.Context, msgs ...Message) error {
	if m.FailAddMessages != nil {
		return m.FailAddMessages
	}
	for _, msg := range msgs {
		m.nextID++
		msg.ID = m.nextID
		m.messages[msg.SessionID] = append(m.messages[msg.SessionID], msg)
	}
	return nil
}

func (m *MemoryRepository) ListMessages(_ context.Context, sessionIDs ...string) (map[string][]Message, error) {
	out := make(map[string][]Message, len(sessionIDs))
	for _, id := range sessionIDs {
		if msgs, ok := m.messages[id]; ok {
			out[id] = append([]Message(nil), msgs...)
		}
	}
	return out, nil
}

func (m *MemoryRepository) CountMessages(_ context.Context, sessionID string) (int, error) {
	return len(m.messages[sessionID]), nil
}

func (m *MemoryRepository) SessionCount() int {
	return len(m.sessions)
}
