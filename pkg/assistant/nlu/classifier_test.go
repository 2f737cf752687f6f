package nlu_test

import (
	"testing"

	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyIntents(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		intent nlu.Intent
	}{
		{"emissao por verbo", "quero emitir uma nota fiscal", nlu.IntentEmitInvoice},
		{"emissao estrutural", "Emitir nota de R$ 1.500 para João Silva", nlu.IntentEmitInvoice},
		{"emissao multilinha", "10,00\nLUCIANO BERNARDO\nCPF 65325273949", nlu.IntentEmitInvoice},
		{"cancelamento", "cancelar a nota 123", nlu.IntentCancelInvoice},
		{"cadastro por verbo", "cadastre um novo cliente pra mim", nlu.IntentCreateClient},
		{"cadastro estrutural", "Maria Souza, CPF 653.252.739-49", nlu.IntentCreateClient},
		{"faturamento", "quanto faturei este mês?", nlu.IntentRevenue},
		{"faturamento por periodo", "quanto entrou em janeiro?", nlu.IntentRevenue},
		{"listar notas", "listar minhas notas", nlu.IntentListInvoices},
		{"listar clientes", "quais clientes eu tenho?", nlu.IntentListClients},
		{"status", "qual o status da minha nota?", nlu.IntentInvoiceStatus},
		{"ajuda", "ajuda", nlu.IntentHelp},
		{"saudacao", "oi, tudo bem?", nlu.IntentHelp},
		{"fora do dominio", "qual a capital da Austrália?", nlu.IntentUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := nlu.Classify(tc.text)
			assert.Equal(t, tc.intent, got.Intent)
		})
	}
}

func TestClassifyConfidence(t *testing.T) {
	routable := nlu.Classify("emitir nota fiscal de R$ 100,00 para João Silva")
	assert.True(t, routable.Routable())
	assert.GreaterOrEqual(t, routable.Confidence, nlu.DeterministicThreshold)

	// Dica fraca: substantivo sem verbo nem entidades não atinge o limiar
	weak := nlu.Classify("nota")
	assert.Equal(t, nlu.IntentEmitInvoice, weak.Intent)
	assert.False(t, weak.Routable())

	unknown := nlu.Classify("qual a capital da Austrália?")
	assert.Equal(t, nlu.IntentUnknown, unknown.Intent)
	assert.False(t, unknown.Routable())
}

func TestPriorityIntentStructural(t *testing.T) {
	text := "10,00\nLUCIANO BERNARDO\nCPF 65325273949"
	set := nlu.Extract(text)

	c, ok := nlu.PriorityIntent(text, set)
	require.True(t, ok)
	assert.Equal(t, nlu.IntentEmitInvoice, c.Intent)
	assert.True(t, c.Routable())
}

func TestPriorityIntentIgnoresKeywordOnlyMessages(t *testing.T) {
	text := "listar minhas notas"
	_, ok := nlu.PriorityIntent(text, nlu.Extract(text))
	assert.False(t, ok)
}

func TestPriorityIntentClientCreation(t *testing.T) {
	text := "Maria Souza, CPF 653.252.739-49"
	set := nlu.Extract(text)

	c, ok := nlu.PriorityIntent(text, set)
	require.True(t, ok)
	assert.Equal(t, nlu.IntentCreateClient, c.Intent)
}

func TestIsConfirmation(t *testing.T) {
	for _, text := range []string{"sim", "Sim!", "ok", "confirmar", "pode confirmar", "Confirmado", "certo", "isso mesmo"} {
		assert.True(t, nlu.IsConfirmation(text), "deveria confirmar: %q", text)
	}
	for _, text := range []string{"não", "não confirmo", "cancelar", "espera"} {
		assert.False(t, nlu.IsConfirmation(text), "não deveria confirmar: %q", text)
	}
}

func TestIsCancellation(t *testing.T) {
	for _, text := range []string{"não", "cancelar", "desisto", "pode cancelar", "deixa pra lá"} {
		assert.True(t, nlu.IsCancellation(text), "deveria cancelar: %q", text)
	}
	for _, text := range []string{"sim", "confirmar", "manda ver"} {
		assert.False(t, nlu.IsCancellation(text), "não deveria cancelar: %q", text)
	}
}
