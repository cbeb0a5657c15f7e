package cache

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// MemoryRedis is an in-process RedisClient for tests.
type MemoryRedis struct {
	mu      sync.Mutex
	data    map[string]string
	GetErr  error
	SetErr  error
	Expires map[string]time.Duration
}

var _ RedisClient = (*MemoryRedis)(nil)

func NewMemoryRedis() *MemoryRedis {
	return &MemoryRedis{
		data:    make(map[string]string),
		Expires: make(map[string]time.Duration),
	}
}

func (m *MemoryRedis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return redis.NewStringResult("", m.GetErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *MemoryRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return redis.NewStatusResult("", m.SetErr)
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.Expires[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *MemoryRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *MemoryRedis) Close() error {
	return nil
}

func (m *MemoryRedis) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
