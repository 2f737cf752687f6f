package assistant_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

func newTestResolver(t *testing.T, dir *fakeDirectory) *assistant.Resolver {
	t.Helper()
	r, err := assistant.NewResolver(dir, logger.NewTestLogger())
	require.NoError(t, err)
	return r
}

func TestResolveByDocumentFound(t *testing.T) {
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients, mustClient(t, "acc-1", "Maria Souza", "65325273949"))
	r := newTestResolver(t, dir)

	res, err := r.Resolve(context.Background(), "acc-1",
		nil, &nlu.DocumentNumber{Digits: "65325273949", Kind: nlu.DocumentCPF})

	require.NoError(t, err)
	assert.Equal(t, assistant.ResolutionFound, res.Status)
	require.NotNil(t, res.Client)
	assert.Equal(t, "Maria Souza", res.Client.Name)
}

func TestResolveAutoCreateIsIdempotent(t *testing.T) {
	dir := &fakeDirectory{}
	r := newTestResolver(t, dir)

	name := &nlu.PersonName{Text: "LUCIANO BERNARDO"}
	doc := &nlu.DocumentNumber{Digits: "65325273949", Kind: nlu.DocumentCPF}

	first, err := r.Resolve(context.Background(), "acc-1", name, doc)
	require.NoError(t, err)
	assert.Equal(t, assistant.ResolutionCreated, first.Status)
	require.NotNil(t, first.Client)
	assert.Equal(t, "65325273949", first.Client.Document)

	second, err := r.Resolve(context.Background(), "acc-1", name, doc)
	require.NoError(t, err)
	assert.Equal(t, assistant.ResolutionFound, second.Status)
	assert.Equal(t, first.Client.ID, second.Client.ID)
	assert.Equal(t, 1, dir.created, "repetir a resolução não duplica o cadastro")
}

func TestResolveDocumentWithoutNameNotFound(t *testing.T) {
	r := newTestResolver(t, &fakeDirectory{})

	res, err := r.Resolve(context.Background(), "acc-1",
		nil, &nlu.DocumentNumber{Digits: "65325273949", Kind: nlu.DocumentCPF})

	require.NoError(t, err)
	assert.Equal(t, assistant.ResolutionNotFound, res.Status)
	assert.Nil(t, res.Client)
}

func TestResolveByNameSingleMatch(t *testing.T) {
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients, mustClient(t, "acc-1", "João Silva", "11144477735"))
	r := newTestResolver(t, dir)

	res, err := r.Resolve(context.Background(), "acc-1", &nlu.PersonName{Text: "João Silva"}, nil)

	require.NoError(t, err)
	assert.Equal(t, assistant.ResolutionFound, res.Status)
}

func TestResolveByNameCapsCandidates(t *testing.T) {
	dir := &fakeDirectory{}
	for i := 0; i < 7; i++ {
		c := mustClient(t, "acc-1", fmt.Sprintf("João Silva %d", i), fmt.Sprintf("%011d", i+1))
		dir.clients = append(dir.clients, c)
	}
	r := newTestResolver(t, dir)

	res, err := r.Resolve(context.Background(), "acc-1", &nlu.PersonName{Text: "João Silva"}, nil)

	require.NoError(t, err)
	assert.Equal(t, assistant.ResolutionAmbiguous, res.Status)
	assert.Len(t, res.Candidates, 5)
}

func TestResolveWithoutEntities(t *testing.T) {
	r := newTestResolver(t, &fakeDirectory{})

	res, err := r.Resolve(context.Background(), "acc-1", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, assistant.ResolutionNotFound, res.Status)
}

func TestLookupNeverCreates(t *testing.T) {
	dir := &fakeDirectory{}
	r := newTestResolver(t, dir)

	res, err := r.Lookup(context.Background(), "acc-1",
		&nlu.PersonName{Text: "Maria Souza"},
		&nlu.DocumentNumber{Digits: "65325273949", Kind: nlu.DocumentCPF})

	require.NoError(t, err)
	assert.Equal(t, assistant.ResolutionNotFound, res.Status)
	assert.Zero(t, dir.created)
}
