package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ferdiebergado/ragchat/internal/platform/db"
)

var (
	ErrSessionNotFound = errors.New("chat repository: session not found")
	ErrQueryFailed     = errors.New("chat repository: query failed")
)

type Repository interface {
	CreateSession(ctx context.Context, s Session) error
	ListSessions(ctx context.Context, owner string) ([]Session, error)
	FindSession(ctx context.Context, owner, id string) (*Session, error)
	DeleteSession(ctx context.Context, owner, id string) error
	TouchSession(ctx context.Context, id, title string, updatedAt time.Time) error
	AddMessages(ctx context.Context, msgs ...Message) error
	ListMessages(ctx context.Context, sessionIDs ...string) (map[string][]Message, error)
	CountMessages(ctx context.Context, sessionID string) (int, error)
}

type repository struct {
	conn *sql.DB
}

var _ Repository = (*repository)(nil)

func NewRepository(conn *sql.DB) Repository {
	return &repository{conn: conn}
}

const QuerySessionCreate = `
INSERT INTO chat_sessions (id, owner, title, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
`

func (r *repository) CreateSession(ctx context.Context, s Session) error {
	exec := db.ExecutorFromContext(ctx, r.conn)
	if _, err := exec.ExecContext(ctx, QuerySessionCreate, s.ID, s.Owner, s.Title, s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("%w: create session %s: %v", ErrQueryFailed, s.ID, err)
	}
	return nil
}

const QuerySessionList = `
SELECT id, owner, title, created_at, updated_at FROM chat_sessions
WHERE owner = $1
ORDER BY updated_at DESC, id
`

func (r *repository) ListSessions(ctx context.Context, owner string) ([]Session, error) {
	exec := db.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.QueryContext(ctx, QuerySessionList, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Owner, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("chat repository: scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chat repository: iterate sessions: %w", err)
	}
	return sessions, nil
}

const QuerySessionFind = `
SELECT id, owner, title, created_at, updated_at FROM chat_sessions
WHERE id = $1 AND owner = $2
`

func (r *repository) FindSession(ctx context.Context, owner, id string) (*Session, error) {
	exec := db.ExecutorFromContext(ctx, r.conn)
	var s Session
	row := exec.QueryRowContext(ctx, QuerySessionFind, id, owner)
	if err := row.Scan(&s.ID, &s.Owner, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: find session %s: %v", ErrQueryFailed, id, err)
	}
	return &s, nil
}

const QuerySessionDelete = "DELETE FROM chat_sessions WHERE id = $1 AND owner = $2"

func (r *repository) DeleteSession(ctx context.Context, owner, id string) error {
	exec := db.ExecutorFromContext(ctx, r.conn)
	res, err := exec.ExecContext(ctx, QuerySessionDelete, id, owner)
	if err != nil {
		return fmt.Errorf("%w: delete session %s: %v", ErrQueryFailed, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete session %s: %v", ErrQueryFailed, id, err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

const QuerySessionTouch = "UPDATE chat_sessions SET title = $2, updated_at = $3 WHERE id = $1"

func (r *repository) TouchSession(ctx context.Context, id, title string, updatedAt time.Time) error {
	exec := db.ExecutorFromContext(ctx, r.conn)
	res, err := exec.ExecContext(ctx, QuerySessionTouch, id, title, updatedAt)
	if err != nil {
		return fmt.Errorf("%w: update session %s: %v", ErrQueryFailed, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update session %s: %v", ErrQueryFailed, id, err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

const QueryMessageCreate = `
INSERT INTO chat_messages (session_id, role, content, sources, search_used, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (r *repository) AddMessages(ctx context.Context, msgs ...Message) error {
	exec := db.ExecutorFromContext(ctx, r.conn)
	for _, m := range msgs {
		sources := m.Sources
		if sources == nil {
			sources = []string{}
		}
		encoded, err := json.Marshal(sources)
		if err != nil {
			return fmt.Errorf("chat repository: marshal sources: %w", err)
		}

		if _, err := exec.ExecContext(ctx, QueryMessageCreate, m.SessionID, string(m.Role), m.Content, string(encoded), m.SearchUsed, m.Timestamp); err != nil {
			return fmt.Errorf("%w: add %s message to session %s: %v", ErrQueryFailed, m.Role, m.SessionID, err)
		}
	}
	return nil
}

const QueryMessageList = `
SELECT id, session_id, role, content, sources, search_used, created_at FROM chat_messages
WHERE session_id = ANY($1::uuid[])
ORDER BY session_id, id
`

// ListMessages returns the messages of each session in insertion order, keyed by session ID.
func (r *repository) ListMessages(ctx context.Context, sessionIDs ...string) (map[string][]Message, error) {
	byID := make(map[string][]Message, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return byID, nil
	}

	exec := db.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.QueryContext(ctx, QueryMessageList, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m       Message
			role    string
			sources []byte
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &sources, &m.SearchUsed, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("chat repository: scan message: %w", err)
		}
		m.Role = Role(role)
		if err := json.Unmarshal(sources, &m.Sources); err != nil {
			return nil, fmt.Errorf("chat repository: unmarshal sources of message %d: %w", m.ID, err)
		}
		byID[m.SessionID] = append(byID[m.SessionID], m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chat repository: iterate messages: %w", err)
	}
	return byID, nil
}

const QueryMessageCount = "SELECT COUNT(*) FROM chat_messages WHERE session_id = $1"

func (r *repository) CountMessages(ctx context.Context, sessionID string) (int, error) {
	exec := db.ExecutorFromContext(ctx, r.conn)
	var n int
	if err := exec.QueryRowContext(ctx, QueryMessageCount, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count messages of %s: %v", ErrQueryFailed, sessionID, err)
	}
	return n, nil
}
