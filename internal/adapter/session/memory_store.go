package session

import (
	"context"
	"time"

	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/cache"
)

// MemoryStore implementa assistant.SessionStore em memória, para ambientes
// de desenvolvimento sem Redis. Sessões não sobrevivem a reinícios
type MemoryStore struct {
	pending *cache.TTL[assistant.PendingAction]
}

// NewMemoryStore cria uma loja de sessões em memória
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &MemoryStore{
		pending: cache.New[assistant.PendingAction](ttl),
	}
}

// SetPending implementa assistant.SessionStore.SetPending
func (s *MemoryStore) SetPending(ctx context.Context, accountID string, p assistant.PendingAction) error {
	s.pending.Set(accountID, p)
	return nil
}

// GetPending implementa assistant.SessionStore.GetPending
func (s *MemoryStore) GetPending(ctx context.Context, accountID string) (*assistant.PendingAction, error) {
	p, ok := s.pending.Get(accountID)
	if !ok {
		return nil, nil
	}

	return &p, nil
}

// ClearPending implementa assistant.SessionStore.ClearPending
func (s *MemoryStore) ClearPending(ctx context.Context, accountID string) error {
	s.pending.Delete(accountID)
	return nil
}
