package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSessionPrefix = "pssuai:session"

// Store remembers which session ids are still live.
type Store interface {
	Save(ctx context.Context, operatorID, tokenID string, expiresAt time.Time) error
	Delete(ctx context.Context, operatorID, tokenID string) error
	Exists(ctx context.Context, operatorID, tokenID string) (bool, error)
}

// RedisStore shares sessions between instances. Keys expire with the token.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore builds a Redis backed store.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultSessionPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(operatorID, tokenID string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, operatorID, tokenID)
}

// Save stores the id until expiresAt. An already expired session gets a 1s TTL.
func (s *RedisStore) Save(ctx context.Context, operatorID, tokenID string, expiresAt time.Time) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("redis client not configured")
	}
	if tokenID == "" {
		return fmt.Errorf("token id required")
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, s.key(operatorID, tokenID), "1", ttl).Err()
}

// Delete forgets the session.
func (s *RedisStore) Delete(ctx context.Context, operatorID, tokenID string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("redis client not configured")
	}
	if tokenID == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(operatorID, tokenID)).Err()
}

// Exists reports whether the session is still live.
func (s *RedisStore) Exists(ctx context.Context, operatorID, tokenID string) (bool, error) {
	if s == nil || s.client == nil {
		return false, fmt.Errorf("redis client not configured")
	}
	if tokenID == "" {
		return false, nil
	}
	count, err := s.client.Exists(ctx, s.key(operatorID, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return count == 1, nil
}

// MemoryStore keeps sessions in process; a restart logs everyone out.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]time.Time
}

// NewMemoryStore builds an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]time.Time)}
}

// Save stores the id until expiresAt.
func (s *MemoryStore) Save(_ context.Context, operatorID, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return fmt.Errorf("token id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[operatorID]; !ok {
		s.sessions[operatorID] = make(map[string]time.Time)
	}
	s.sessions[operatorID][tokenID] = expiresAt
	return nil
}

// Delete forgets the session and drops empty operator buckets.
func (s *MemoryStore) Delete(_ context.Context, operatorID, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bucket, ok := s.sessions[operatorID]; ok {
		delete(bucket, tokenID)
		if len(bucket) == 0 {
			delete(s.sessions, operatorID)
		}
	}
	return nil
}

// Exists reports whether the session is live, pruning it once expired.
func (s *MemoryStore) Exists(ctx context.Context, operatorID, tokenID string) (bool, error) {
	s.mu.RLock()
	expiresAt, ok := s.sessions[operatorID][tokenID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		_ = s.Delete(ctx, operatorID, tokenID)
		return false, nil
	}
	return true, nil
}
