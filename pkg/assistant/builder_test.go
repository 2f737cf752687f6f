package assistant_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
)

func TestBuildEmitWithoutAmountAsksValue(t *testing.T) {
	b := assistant.NewBuilder()

	set := nlu.EntitySet{Name: &nlu.PersonName{Text: "João Silva"}}
	action, explanation := b.BuildEmit(set, &assistant.Resolution{Status: assistant.ResolutionNotFound})

	require.NotNil(t, action)
	assert.Equal(t, assistant.ActionAwaitingValue, action.Type)
	assert.False(t, action.RequiresConfirmation)
	assert.Equal(t, "João Silva", action.Data.ClientName)
	assert.Contains(t, explanation, "valor")
	assert.Contains(t, explanation, "João Silva")
}

func TestBuildEmitUnknownDocumentAsksName(t *testing.T) {
	b := assistant.NewBuilder()

	set := nlu.EntitySet{
		Amount:   &nlu.MonetaryAmount{Cents: 50000},
		Document: &nlu.DocumentNumber{Digits: "65325273949", Kind: nlu.DocumentCPF},
	}
	action, explanation := b.BuildEmit(set, &assistant.Resolution{Status: assistant.ResolutionNotFound})

	require.NotNil(t, action)
	assert.Equal(t, assistant.ActionAwaitingClient, action.Type)
	require.NotNil(t, action.Data.Document)
	assert.Equal(t, "65325273949", action.Data.Document.Digits)
	assert.Contains(t, explanation, "653.252.739-49")
	assert.Contains(t, explanation, "nome")
}

func TestBuildEmitFillsDefaultService(t *testing.T) {
	b := assistant.NewBuilder()

	c := mustClient(t, "acc-1", "João Silva", "11144477735")
	set := nlu.EntitySet{Amount: &nlu.MonetaryAmount{Cents: 150000}}
	action, explanation := b.BuildEmit(set, &assistant.Resolution{Status: assistant.ResolutionFound, Client: c})

	require.NotNil(t, action)
	assert.Equal(t, assistant.ActionEmitInvoice, action.Type)
	assert.True(t, action.RequiresConfirmation)
	require.NotNil(t, action.Data.Service)
	assert.Equal(t, nlu.DefaultServiceCode, action.Data.Service.Code)
	assert.Equal(t, nlu.DefaultServiceText, action.Data.Service.Text)
	assert.Contains(t, explanation, nlu.DefaultServiceText)
}

func TestBuildEmitKeepsMessageService(t *testing.T) {
	b := assistant.NewBuilder()

	c := mustClient(t, "acc-1", "João Silva", "11144477735")
	set := nlu.EntitySet{
		Amount:  &nlu.MonetaryAmount{Cents: 150000},
		Service: &nlu.ServiceDescription{Code: "17.01", Text: "consultoria mensal"},
	}
	action, explanation := b.BuildEmit(set, &assistant.Resolution{Status: assistant.ResolutionFound, Client: c})

	require.NotNil(t, action.Data.Service)
	assert.Equal(t, "17.01", action.Data.Service.Code)
	assert.Contains(t, explanation, "consultoria mensal")
}

func TestBuildCreateClientAlreadyRegistered(t *testing.T) {
	b := assistant.NewBuilder()

	c := mustClient(t, "acc-1", "Maria Souza", "65325273949")
	set := nlu.EntitySet{
		Name:     &nlu.PersonName{Text: "Maria Souza"},
		Document: &nlu.DocumentNumber{Digits: "65325273949", Kind: nlu.DocumentCPF},
	}
	action, explanation := b.BuildCreateClient(set, &assistant.Resolution{Status: assistant.ResolutionFound, Client: c})

	assert.Nil(t, action)
	assert.Contains(t, explanation, "já está cadastrado")
	assert.Contains(t, explanation, "Maria Souza")
}

func TestBuildCancelWithRef(t *testing.T) {
	b := assistant.NewBuilder()

	action, explanation := b.BuildCancel("4587")

	require.NotNil(t, action)
	assert.Equal(t, assistant.ActionCancelInvoice, action.Type)
	assert.True(t, action.RequiresConfirmation)
	assert.Equal(t, "4587", action.Data.InvoiceRef)
	assert.Contains(t, explanation, "4587")
	assert.Contains(t, explanation, "definitivo")
}

func TestBuildCancelWithoutRefTargetsLatest(t *testing.T) {
	b := assistant.NewBuilder()

	action, explanation := b.BuildCancel("")

	require.NotNil(t, action)
	assert.Empty(t, action.Data.InvoiceRef)
	assert.Contains(t, explanation, "última nota")
}

func TestExtractInvoiceRef(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"cancelar a nota 123", "123"},
		{"cancela a nf 4587, por favor", "4587"},
		{"qual o status da nota 88?", "88"},
		{"cancelar nota do CPF 65325273949", ""},
		{"nota de 1.500,00", ""},
		{"cancelar a última nota", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, assistant.ExtractInvoiceRef(tc.message), "mensagem: %q", tc.message)
	}
}

func TestRequiresConfirmationPolicy(t *testing.T) {
	confirm := []assistant.ActionType{
		assistant.ActionEmitInvoice,
		assistant.ActionCancelInvoice,
		assistant.ActionCreateClient,
	}
	direct := []assistant.ActionType{
		assistant.ActionListInvoices,
		assistant.ActionRevenueQuery,
		assistant.ActionListClients,
		assistant.ActionInvoiceStatus,
		assistant.ActionAwaitingValue,
		assistant.ActionAwaitingClient,
		assistant.ActionAwaitingDocument,
		assistant.ActionChooseClient,
	}

	for _, at := range confirm {
		assert.True(t, assistant.RequiresConfirmation(at), "%s deveria exigir confirmação", at)
	}
	for _, at := range direct {
		assert.False(t, assistant.RequiresConfirmation(at), "%s não deveria exigir confirmação", at)
	}
}

func TestFunctionSchemasCoverAllIntents(t *testing.T) {
	schemas := assistant.FunctionSchemas()

	names := make(map[string]bool, len(schemas))
	for _, s := range schemas {
		names[s.Name] = true
		assert.NotEmpty(t, s.Description)
		assert.NotEmpty(t, s.Parameters)
	}

	for _, intent := range []nlu.Intent{
		nlu.IntentEmitInvoice,
		nlu.IntentCancelInvoice,
		nlu.IntentListInvoices,
		nlu.IntentRevenue,
		nlu.IntentCreateClient,
		nlu.IntentListClients,
		nlu.IntentInvoiceStatus,
	} {
		assert.True(t, names[string(intent)], "falta esquema para %s", intent)
	}
}

func TestParseFunctionCallNormalizesAliases(t *testing.T) {
	interp, err := assistant.ParseFunctionCall(assistant.FunctionCall{
		Name:      "emitir_nota",
		Arguments: `{"amount": 350.5, "client_name": "Maria Souza", "cpf": "653.252.739-49"}`,
	})

	require.NoError(t, err)
	assert.Equal(t, nlu.IntentEmitInvoice, interp.Intent)
	require.NotNil(t, interp.Set.Amount)
	assert.Equal(t, int64(35050), interp.Set.Amount.Cents)
	require.NotNil(t, interp.Set.Name)
	assert.Equal(t, "Maria Souza", interp.Set.Name.Text)
	require.NotNil(t, interp.Set.Document)
	assert.Equal(t, "65325273949", interp.Set.Document.Digits)
	assert.Equal(t, nlu.DocumentCPF, interp.Set.Document.Kind)
}

func TestParseFunctionCallRejectsUnknownArguments(t *testing.T) {
	_, err := assistant.ParseFunctionCall(assistant.FunctionCall{
		Name:      "emitir_nota",
		Arguments: `{"valor": 10, "urgencia": "alta"}`,
	})

	assert.Error(t, err)
}

func TestParseFunctionCallRejectsWrongTypes(t *testing.T) {
	_, err := assistant.ParseFunctionCall(assistant.FunctionCall{
		Name:      "emitir_nota",
		Arguments: `{"valor": "mil e quinhentos"}`,
	})

	assert.Error(t, err)
}

func TestParseFunctionCallUnknownFunction(t *testing.T) {
	_, err := assistant.ParseFunctionCall(assistant.FunctionCall{Name: "transferir_pix", Arguments: `{}`})

	assert.Error(t, err)
}

func TestParseFunctionCallNumericInvoiceRef(t *testing.T) {
	interp, err := assistant.ParseFunctionCall(assistant.FunctionCall{
		Name:      "cancelar_nota",
		Arguments: `{"numero": 123}`,
	})

	require.NoError(t, err)
	assert.Equal(t, nlu.IntentCancelInvoice, interp.Intent)
	assert.Equal(t, "123", interp.Ref)
}

func TestParseFunctionCallPeriod(t *testing.T) {
	interp, err := assistant.ParseFunctionCall(assistant.FunctionCall{
		Name:      "consultar_faturamento",
		Arguments: `{"periodo_inicio": "2025-01-01", "periodo_fim": "2025-01-31"}`,
	})

	require.NoError(t, err)
	require.NotNil(t, interp.Set.Period)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), interp.Set.Period.From)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), interp.Set.Period.To)
}

func TestParseFunctionCallDropsInvalidDocument(t *testing.T) {
	interp, err := assistant.ParseFunctionCall(assistant.FunctionCall{
		Name:      "cadastrar_cliente",
		Arguments: `{"nome": "Maria", "documento": "12345"}`,
	})

	require.NoError(t, err)
	require.NotNil(t, interp.Set.Name)
	assert.Nil(t, interp.Set.Document, "documento com tamanho inválido é descartado")
}
