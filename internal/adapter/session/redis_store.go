// Package session guarda a ação pendente de cada conta entre mensagens do
// assistente. O armazenamento padrão é Redis com expiração; sem Redis
// configurado, a loja em memória cobre ambientes de desenvolvimento.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notasimples/nfse-assistente/pkg/assistant"
)

const (
	pendingKeyPrefix = "assistente:pendente:"

	// DefaultTTL limita quanto tempo uma confirmação fica aguardando.
	// Depois disso o pedido original é descartado e a conversa recomeça
	DefaultTTL = 15 * time.Minute
)

// RedisStore implementa assistant.SessionStore sobre Redis
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore cria uma loja de sessões sobre o cliente Redis informado
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

// SetPending implementa assistant.SessionStore.SetPending
func (s *RedisStore) SetPending(ctx context.Context, accountID string, p assistant.PendingAction) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("erro ao serializar ação pendente: %w", err)
	}

	if err := s.client.Set(ctx, pendingKey(accountID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("erro ao gravar ação pendente: %w", err)
	}

	return nil
}

// GetPending implementa assistant.SessionStore.GetPending
func (s *RedisStore) GetPending(ctx context.Context, accountID string) (*assistant.PendingAction, error) {
	payload, err := s.client.Get(ctx, pendingKey(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao buscar ação pendente: %w", err)
	}

	var p assistant.PendingAction
	if err := json.Unmarshal(payload, &p); err != nil {
		// Sessão corrompida não pode travar a conversa: descarta e recomeça
		s.client.Del(ctx, pendingKey(accountID))
		return nil, nil
	}

	return &p, nil
}

// ClearPending implementa assistant.SessionStore.ClearPending
func (s *RedisStore) ClearPending(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, pendingKey(accountID)).Err(); err != nil {
		return fmt.Errorf("erro ao descartar ação pendente: %w", err)
	}

	return nil
}

func pendingKey(accountID string) string {
	return pendingKeyPrefix + accountID
}
