package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notasimples/nfse-assistente/internal/adapter/session"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func pendingEmission() assistant.PendingAction {
	action := assistant.NewAction(assistant.ActionEmitInvoice, assistant.ActionData{
		Amount:     &nlu.MonetaryAmount{Cents: 150000},
		ClientName: "João Silva",
	})

	return assistant.PendingAction{
		Action:      *action,
		Intent:      nlu.IntentEmitInvoice,
		Explanation: "Emitir nota de R$ 1.500,00 para João Silva?",
		CreatedAt:   time.Now(),
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	_, client := setupRedis(t)
	store := session.NewRedisStore(client, 0)
	ctx := context.Background()

	require.NoError(t, store.SetPending(ctx, "acc-1", pendingEmission()))

	got, err := store.GetPending(ctx, "acc-1")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, assistant.ActionEmitInvoice, got.Action.Type)
	assert.True(t, got.Action.RequiresConfirmation)
	assert.Equal(t, nlu.IntentEmitInvoice, got.Intent)
	assert.Equal(t, int64(150000), got.Action.Data.Amount.Cents)
	assert.Equal(t, "João Silva", got.Action.Data.ClientName)
}

func TestRedisStoreGetWithoutPending(t *testing.T) {
	_, client := setupRedis(t)
	store := session.NewRedisStore(client, 0)

	got, err := store.GetPending(context.Background(), "acc-1")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreSessionsAreIsolatedByAccount(t *testing.T) {
	_, client := setupRedis(t)
	store := session.NewRedisStore(client, 0)
	ctx := context.Background()

	require.NoError(t, store.SetPending(ctx, "acc-1", pendingEmission()))

	got, err := store.GetPending(ctx, "acc-2")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreClearPending(t *testing.T) {
	_, client := setupRedis(t)
	store := session.NewRedisStore(client, 0)
	ctx := context.Background()

	require.NoError(t, store.SetPending(ctx, "acc-1", pendingEmission()))
	require.NoError(t, store.ClearPending(ctx, "acc-1"))

	got, err := store.GetPending(ctx, "acc-1")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStorePendingExpires(t *testing.T) {
	mr, client := setupRedis(t)
	store := session.NewRedisStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.SetPending(ctx, "acc-1", pendingEmission()))

	mr.FastForward(time.Minute + time.Second)

	got, err := store.GetPending(ctx, "acc-1")

	require.NoError(t, err)
	assert.Nil(t, got, "ação pendente deve expirar junto com a chave")
}

func TestRedisStoreDiscardsCorruptPayload(t *testing.T) {
	mr, client := setupRedis(t)
	store := session.NewRedisStore(client, 0)
	ctx := context.Background()

	require.NoError(t, mr.Set("assistente:pendente:acc-1", "{nao é json"))

	got, err := store.GetPending(ctx, "acc-1")

	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("assistente:pendente:acc-1"), "payload corrompido deve ser descartado")
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := session.NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.SetPending(ctx, "acc-1", pendingEmission()))

	got, err := store.GetPending(ctx, "acc-1")

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, assistant.ActionEmitInvoice, got.Action.Type)

	require.NoError(t, store.ClearPending(ctx, "acc-1"))

	got, err = store.GetPending(ctx, "acc-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
