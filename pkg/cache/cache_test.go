package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLGetSet(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := NewWithClock[string](5*time.Minute, clock)

	_, ok := c.Get("ausente")
	assert.False(t, ok)

	c.Set("token", "abc123")
	got, ok := c.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc123", got)
}

func TestTTLExpiration(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := NewWithClock[int](time.Minute, clock)
	c.Set("visitas", 42)

	// Ainda dentro do TTL
	now = now.Add(59 * time.Second)
	got, ok := c.Get("visitas")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	// Depois do TTL
	now = now.Add(2 * time.Second)
	_, ok = c.Get("visitas")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLSetWithTTLOverridesDefault(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	c := NewWithClock[string](time.Minute, clock)
	c.SetWithTTL("token", "abc123", time.Hour)

	now = now.Add(30 * time.Minute)
	got, ok := c.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc123", got)

	now = now.Add(31 * time.Minute)
	_, ok = c.Get("token")
	assert.False(t, ok)
}

func TestTTLInvalidate(t *testing.T) {
	c := NewWithClock[bool](time.Hour, time.Now)
	c.Set("a", true)
	c.Set("b", true)
	assert.Equal(t, 2, c.Len())

	c.Invalidate()
	assert.Equal(t, 0, c.Len())

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLDelete(t *testing.T) {
	c := NewWithClock[string](time.Hour, time.Now)
	c.Set("chave", "valor")
	c.Delete("chave")

	_, ok := c.Get("chave")
	assert.False(t, ok)
}
