package chat

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID         int64
	SessionID  string
	Role       Role
	Content    string
	Timestamp  time.Time
	Sources    []string
	SearchUsed bool
}

type Session struct {
	ID        string
	Owner     string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []Message
}
