package assistant_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/conversation"
)

func TestProcessEmitUnknownClientAsksForDocument(t *testing.T) {
	dir := &fakeDirectory{}
	exec := &fakeExecutor{}
	d, sessions := newTestDispatcher(t, dir, exec)

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "Emitir nota de R$ 1.500 para João Silva",
	})

	require.NotNil(t, result)
	assert.True(t, result.Success)
	require.NotNil(t, result.Action)
	assert.Equal(t, assistant.ActionAwaitingDocument, result.Action.Type)
	assert.False(t, result.RequiresConfirmation)
	assert.Contains(t, result.Explanation, "João Silva")
	assert.Contains(t, result.Explanation, "R$ 1.500,00")
	assert.True(t, sessions.has("acc-1"))
	assert.Zero(t, exec.callCount())
}

func TestProcessEmitKnownClientAsksConfirmation(t *testing.T) {
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients, mustClient(t, "acc-1", "João Silva", "11144477735"))
	exec := &fakeExecutor{}
	d, sessions := newTestDispatcher(t, dir, exec)

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "Emitir nota de R$ 1.500 para João Silva",
	})

	assert.True(t, result.Success)
	require.NotNil(t, result.Action)
	assert.Equal(t, assistant.ActionEmitInvoice, result.Action.Type)
	assert.True(t, result.RequiresConfirmation)
	assert.Contains(t, result.Explanation, "R$ 1.500,00")
	assert.Contains(t, result.Explanation, "João Silva")
	assert.Contains(t, result.Explanation, "Posso emitir?")

	require.NotNil(t, result.Action.Data.Amount)
	assert.Equal(t, int64(150000), result.Action.Data.Amount.Cents)
	require.NotNil(t, result.Action.Data.Client)
	assert.Equal(t, "João Silva", result.Action.Data.Client.Name)

	assert.True(t, sessions.has("acc-1"))
	assert.Zero(t, exec.callCount(), "nada executa antes da confirmação")
}

func TestProcessMultilineAutoCreatesClient(t *testing.T) {
	dir := &fakeDirectory{}
	exec := &fakeExecutor{}
	d, _ := newTestDispatcher(t, dir, exec)

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "10,00\nLUCIANO BERNARDO\nCPF 65325273949",
	})

	assert.True(t, result.Success)
	require.NotNil(t, result.Action)
	assert.Equal(t, assistant.ActionEmitInvoice, result.Action.Type)
	assert.True(t, result.RequiresConfirmation)
	assert.True(t, result.Action.Data.ClientCreated)
	assert.Contains(t, result.Explanation, "Cadastrei o cliente LUCIANO BERNARDO")
	assert.Contains(t, result.Explanation, "653.252.739-49")
	assert.Contains(t, result.Explanation, "R$ 10,00")
	assert.Equal(t, 1, dir.created)
}

func TestProcessUnrelatedMessageReturnsMenu(t *testing.T) {
	d, sessions := newTestDispatcher(t, &fakeDirectory{}, &fakeExecutor{})

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "qual a capital da Austrália?",
	})

	assert.False(t, result.Success)
	assert.Nil(t, result.Action)
	assert.False(t, result.RequiresConfirmation)
	assert.Contains(t, result.Explanation, "Emitir nota")
	assert.Contains(t, result.Explanation, "faturamento")
	assert.False(t, sessions.has("acc-1"))
}

func TestProcessConfirmationExecutesPendingAction(t *testing.T) {
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients, mustClient(t, "acc-1", "João Silva", "11144477735"))
	exec := &fakeExecutor{result: &assistant.ExecutionResult{Message: "Nota enviada para a prefeitura."}}
	d, sessions := newTestDispatcher(t, dir, exec)

	ctx := context.Background()
	req := assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "Emitir nota de R$ 1.500 para João Silva"}
	first := d.Process(ctx, req)
	require.True(t, first.RequiresConfirmation)

	second := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "sim"})

	assert.True(t, second.Success)
	assert.Equal(t, "Nota enviada para a prefeitura.", second.Explanation)
	require.Equal(t, 1, exec.callCount())
	assert.Equal(t, assistant.ActionEmitInvoice, exec.lastCall().Type)
	assert.False(t, sessions.has("acc-1"))
}

func TestProcessCancellationAbortsPendingAction(t *testing.T) {
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients, mustClient(t, "acc-1", "João Silva", "11144477735"))
	exec := &fakeExecutor{}
	d, sessions := newTestDispatcher(t, dir, exec)

	ctx := context.Background()
	d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "Emitir nota de R$ 1.500 para João Silva"})

	result := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "não"})

	assert.True(t, result.Success)
	assert.Equal(t, "Operação cancelada. Posso ajudar com mais alguma coisa?", result.Explanation)
	assert.Zero(t, exec.callCount())
	assert.False(t, sessions.has("acc-1"))
}

func TestProcessClarificationCompletesEmission(t *testing.T) {
	dir := &fakeDirectory{}
	exec := &fakeExecutor{}
	d, _ := newTestDispatcher(t, dir, exec)

	ctx := context.Background()
	first := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "Emitir nota de R$ 1.500 para João Silva"})
	require.Equal(t, assistant.ActionAwaitingDocument, first.Action.Type)

	second := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "CPF 653.252.739-49"})

	assert.True(t, second.Success)
	require.NotNil(t, second.Action)
	assert.Equal(t, assistant.ActionEmitInvoice, second.Action.Type)
	assert.True(t, second.RequiresConfirmation)
	assert.Contains(t, second.Explanation, "Cadastrei o cliente João Silva")
	assert.Contains(t, second.Explanation, "R$ 1.500,00")
	assert.Equal(t, 1, dir.created)

	third := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "pode emitir"})
	assert.True(t, third.Success)
	assert.Equal(t, 1, exec.callCount())
}

func TestProcessPendingAbandonedByNewIntent(t *testing.T) {
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients, mustClient(t, "acc-1", "João Silva", "11144477735"))
	exec := &fakeExecutor{result: &assistant.ExecutionResult{Message: "Faturamento de março: R$ 3.000,00."}}
	d, sessions := newTestDispatcher(t, dir, exec)

	ctx := context.Background()
	d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "Emitir nota de R$ 1.500 para João Silva"})

	result := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "quanto faturei este mês?"})

	assert.True(t, result.Success)
	require.NotNil(t, result.Action)
	assert.Equal(t, assistant.ActionRevenueQuery, result.Action.Type)
	assert.Equal(t, 1, exec.callCount())
	assert.False(t, sessions.has("acc-1"))
}

func TestProcessPendingRepromptsOnUnclearReply(t *testing.T) {
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients, mustClient(t, "acc-1", "João Silva", "11144477735"))
	exec := &fakeExecutor{}
	d, sessions := newTestDispatcher(t, dir, exec)

	ctx := context.Background()
	first := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "Emitir nota de R$ 1.500 para João Silva"})

	result := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "hmm talvez"})

	assert.True(t, result.Success)
	assert.True(t, result.RequiresConfirmation)
	assert.Contains(t, result.Explanation, "Ainda preciso da sua resposta.")
	assert.Contains(t, result.Explanation, first.Explanation)
	assert.True(t, sessions.has("acc-1"))
	assert.Zero(t, exec.callCount())
}

func TestProcessReadOnlyActionExecutesImmediately(t *testing.T) {
	exec := &fakeExecutor{result: &assistant.ExecutionResult{Message: "Suas notas mais recentes:"}}
	d, sessions := newTestDispatcher(t, &fakeDirectory{}, exec)

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "listar minhas notas",
	})

	assert.True(t, result.Success)
	require.NotNil(t, result.Action)
	assert.Equal(t, assistant.ActionListInvoices, result.Action.Type)
	assert.False(t, result.RequiresConfirmation)
	assert.Equal(t, 1, exec.callCount())
	assert.False(t, sessions.has("acc-1"))
}

func TestProcessAmbiguousClientAsksToChoose(t *testing.T) {
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients,
		mustClient(t, "acc-1", "João Silva", "11144477735"),
		mustClient(t, "acc-1", "João Silva Souza", "52998224725"),
	)
	exec := &fakeExecutor{}
	d, _ := newTestDispatcher(t, dir, exec)

	ctx := context.Background()
	first := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "Emitir nota de R$ 1.500 para João Silva"})

	require.NotNil(t, first.Action)
	assert.Equal(t, assistant.ActionChooseClient, first.Action.Type)
	assert.False(t, first.RequiresConfirmation)
	assert.Len(t, first.Action.Data.Candidates, 2)
	assert.Contains(t, first.Explanation, "1. João Silva")
	assert.Contains(t, first.Explanation, "2. João Silva Souza")

	second := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "1"})

	require.NotNil(t, second.Action)
	assert.Equal(t, assistant.ActionEmitInvoice, second.Action.Type)
	assert.True(t, second.RequiresConfirmation)
	require.NotNil(t, second.Action.Data.Client)
	assert.Equal(t, "11144477735", second.Action.Data.Client.Document)
}

func TestProcessChoiceOutOfRangeReprompts(t *testing.T) {
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients,
		mustClient(t, "acc-1", "João Silva", "11144477735"),
		mustClient(t, "acc-1", "João Silva Souza", "52998224725"),
	)
	d, sessions := newTestDispatcher(t, dir, &fakeExecutor{})

	ctx := context.Background()
	first := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "Emitir nota de R$ 1.500 para João Silva"})
	second := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "7"})

	assert.Equal(t, first.Explanation, second.Explanation)
	assert.True(t, sessions.has("acc-1"))
}

func TestProcessGenerativeFunctionCall(t *testing.T) {
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients, mustClient(t, "acc-1", "Maria Souza", "65325273949"))
	exec := &fakeExecutor{}
	model := &fakeModel{result: &assistant.ModelResult{
		FunctionCall: &assistant.FunctionCall{
			Name:      "emitir_nota",
			Arguments: `{"valor": 350, "cliente_nome": "Maria"}`,
		},
	}}
	d, _ := newTestDispatcher(t, dir, exec, assistant.WithLanguageModel(model))

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "aquela cobrança de sempre da Maria",
	})

	assert.Equal(t, 1, model.calls)
	assert.True(t, result.Success)
	require.NotNil(t, result.Action)
	assert.Equal(t, assistant.ActionEmitInvoice, result.Action.Type)
	assert.True(t, result.RequiresConfirmation)
	assert.Contains(t, result.Explanation, "R$ 350,00")
	assert.Contains(t, result.Explanation, "Maria Souza")
}

func TestProcessGenerativeFreeTextAnswer(t *testing.T) {
	model := &fakeModel{result: &assistant.ModelResult{
		Content: "NFS-e é a nota fiscal de serviço eletrônica emitida pela prefeitura.",
	}}
	d, _ := newTestDispatcher(t, &fakeDirectory{}, &fakeExecutor{}, assistant.WithLanguageModel(model))

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "me explica o que é uma nfs-e?",
	})

	assert.Equal(t, 1, model.calls)
	assert.True(t, result.Success)
	assert.Nil(t, result.Action)
	assert.Equal(t, model.result.Content, result.Explanation)
}

func TestProcessClientHistoryReplacesStoredTurns(t *testing.T) {
	history := &fakeHistory{}
	require.NoError(t, history.Append(context.Background(), &conversation.Turn{
		AccountID: "acc-1",
		Role:      conversation.RoleUser,
		Content:   "turno persistido que não deve ir ao modelo",
	}))

	model := &fakeModel{result: &assistant.ModelResult{Content: "resposta"}}
	d, _ := newTestDispatcher(t, &fakeDirectory{}, &fakeExecutor{},
		assistant.WithLanguageModel(model), assistant.WithHistory(history))

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "me explica o que é uma nfs-e?",
		History: []assistant.ModelMessage{
			{Role: "user", Content: "quanto faturei em janeiro?"},
			{Role: "assistant", Content: "Seu faturamento em janeiro foi R$ 2.000,00."},
			{Role: "system", Content: "papel inválido, descartado"},
		},
	})

	assert.True(t, result.Success)
	require.Equal(t, 1, model.calls)

	var contents []string
	for _, msg := range model.messages[1:] {
		contents = append(contents, msg.Content)
	}
	assert.Equal(t, []string{
		"quanto faturei em janeiro?",
		"Seu faturamento em janeiro foi R$ 2.000,00.",
		"me explica o que é uma nfs-e?",
	}, contents)
}

func TestProcessModelFailureFallsBackToRules(t *testing.T) {
	model := &fakeModel{err: errors.New("timeout")}
	d, _ := newTestDispatcher(t, &fakeDirectory{}, &fakeExecutor{}, assistant.WithLanguageModel(model))

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "nota",
	})

	assert.Equal(t, 1, model.calls, "o modelo nunca é chamado de novo")
	assert.True(t, result.Success)
	require.NotNil(t, result.Action)
	assert.Equal(t, assistant.ActionAwaitingValue, result.Action.Type)
	assert.Contains(t, result.Explanation, "valor")
}

func TestProcessDeterministicSkipsModel(t *testing.T) {
	model := &fakeModel{result: &assistant.ModelResult{Content: "não deveria ser usado"}}
	dir := &fakeDirectory{}
	dir.clients = append(dir.clients, mustClient(t, "acc-1", "João Silva", "11144477735"))
	d, _ := newTestDispatcher(t, dir, &fakeExecutor{}, assistant.WithLanguageModel(model))

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "Emitir nota de R$ 1.500 para João Silva",
	})

	assert.Zero(t, model.calls, "mensagens determinísticas não gastam chamada de modelo")
	require.NotNil(t, result.Action)
	assert.Equal(t, assistant.ActionEmitInvoice, result.Action.Type)
}

func TestProcessEmptyMessageFails(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeDirectory{}, &fakeExecutor{})

	result := d.Process(context.Background(), assistant.ProcessRequest{AccountID: "acc-1", Message: "   "})

	assert.False(t, result.Success)
	assert.Nil(t, result.Action)
	assert.NotEmpty(t, result.Explanation)
}

func TestProcessRecordsConversationTurns(t *testing.T) {
	history := &fakeHistory{}
	d, _ := newTestDispatcher(t, &fakeDirectory{}, &fakeExecutor{}, assistant.WithHistory(history))

	d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "oi",
	})

	turns := history.all()
	require.Len(t, turns, 2)
	assert.Equal(t, conversation.RoleUser, turns[0].Role)
	assert.Equal(t, "oi", turns[0].Content)
	assert.Equal(t, conversation.RoleAssistant, turns[1].Role)
	assert.NotEmpty(t, turns[1].Content)
}

func TestProcessGreetingShowsMenu(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeDirectory{}, &fakeExecutor{})

	result := d.Process(context.Background(), assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "bom dia!",
	})

	assert.True(t, result.Success)
	assert.Nil(t, result.Action)
	assert.Contains(t, result.Explanation, "Como posso ajudar?")
}

func TestProcessExplicitClientCreationWaitsConfirmation(t *testing.T) {
	dir := &fakeDirectory{}
	exec := &fakeExecutor{result: &assistant.ExecutionResult{Message: "Cliente Maria Souza cadastrado (CPF 653.252.739-49)."}}
	d, _ := newTestDispatcher(t, dir, exec)

	ctx := context.Background()
	first := d.Process(ctx, assistant.ProcessRequest{
		AccountID: "acc-1",
		CompanyID: "comp-1",
		Message:   "cadastrar cliente Maria Souza, CPF 653.252.739-49",
	})

	require.NotNil(t, first.Action)
	assert.Equal(t, assistant.ActionCreateClient, first.Action.Type)
	assert.True(t, first.RequiresConfirmation)
	assert.Contains(t, first.Explanation, "Maria Souza")
	assert.Zero(t, dir.created, "nada é criado antes da confirmação")

	second := d.Process(ctx, assistant.ProcessRequest{AccountID: "acc-1", CompanyID: "comp-1", Message: "confirmar"})
	assert.True(t, second.Success)
	assert.Equal(t, 1, exec.callCount())
	assert.Equal(t, assistant.ActionCreateClient, exec.lastCall().Type)
}

type fakeHistory struct {
	mu    sync.Mutex
	turns []conversation.Turn
}

func (f *fakeHistory) Append(_ context.Context, turn *conversation.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, *turn)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, accountID string, limit int) ([]conversation.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []conversation.Turn
	for i := len(f.turns) - 1; i >= 0 && len(out) < limit; i-- {
		if f.turns[i].AccountID == accountID {
			out = append(out, f.turns[i])
		}
	}
	return out, nil
}

func (f *fakeHistory) Purge(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []conversation.Turn
	for _, turn := range f.turns {
		if turn.AccountID != accountID {
			kept = append(kept, turn)
		}
	}
	f.turns = kept
	return nil
}

func (f *fakeHistory) Count(_ context.Context, accountID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, turn := range f.turns {
		if turn.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (f *fakeHistory) all() []conversation.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]conversation.Turn, len(f.turns))
	copy(out, f.turns)
	return out
}
