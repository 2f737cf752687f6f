// Package cache fornece um cache em memória com TTL e relógio injetável,
// permitindo testes determinísticos sem sleeps.
package cache

import (
	"sync"
	"time"
)

// Clock devolve o instante atual; injetável para testes determinísticos
type Clock func() time.Time

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// TTL é um cache em memória com expiração, seguro para uso concorrente
type TTL[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
	now   Clock
}

// New cria um cache com o TTL informado usando o relógio do sistema
func New[T any](ttl time.Duration) *TTL[T] {
	return NewWithClock[T](ttl, time.Now)
}

// NewWithClock cria um cache com TTL e relógio explícitos
func NewWithClock[T any](ttl time.Duration, now Clock) *TTL[T] {
	return &TTL[T]{
		items: make(map[string]entry[T]),
		ttl:   ttl,
		now:   now,
	}
}

// Get recupera um valor do cache; retorna false se ausente ou expirado
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set armazena um valor com o TTL configurado
func (c *TTL[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// SetWithTTL armazena um valor com um TTL próprio, para entradas cuja
// validade vem de fora, como tokens com expiração ditada pelo servidor
func (c *TTL[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[T]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete remove uma chave do cache
func (c *TTL[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Invalidate descarta todas as entradas do cache
func (c *TTL[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]entry[T])
}

// Len devolve o número de entradas ainda não expiradas
func (c *TTL[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, e := range c.items {
		if !now.After(e.expiresAt) {
			n++
		}
	}
	return n
}
