// Package assistant implementa o interpretador de comandos fiscais em
// linguagem natural: resolve a intenção da mensagem, prepara ações tipadas,
// arbitra entre o caminho determinístico e o modelo generativo e executa
// ações confirmadas contra os colaboradores externos.
package assistant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
)

// ActionType identifica a ação preparada pelo assistente
type ActionType string

const (
	ActionEmitInvoice   ActionType = "emitir_nota"
	ActionCancelInvoice ActionType = "cancelar_nota"
	ActionListInvoices  ActionType = "consultar_notas"
	ActionRevenueQuery  ActionType = "consultar_faturamento"
	ActionCreateClient  ActionType = "cadastrar_cliente"
	ActionListClients   ActionType = "consultar_clientes"
	ActionInvoiceStatus ActionType = "consultar_status"

	// Ações de esclarecimento: não mutam nada e carregam o que já foi
	// capturado para que a próxima mensagem complete o pedido original
	ActionAwaitingValue    ActionType = "aguardando_valor"
	ActionAwaitingClient   ActionType = "aguardando_cliente"
	ActionAwaitingDocument ActionType = "aguardando_documento"
	ActionChooseClient     ActionType = "escolher_cliente"
)

// confirmationPolicy é a tabela fixa que decide quais ações exigem
// confirmação explícita. Mutações fiscais e monetárias sempre exigem;
// consultas e esclarecimentos nunca
var confirmationPolicy = map[ActionType]bool{
	ActionEmitInvoice:   true,
	ActionCancelInvoice: true,
	ActionCreateClient:  true,
}

// RequiresConfirmation consulta a tabela fixa de confirmação
func RequiresConfirmation(t ActionType) bool {
	return confirmationPolicy[t]
}

// IsClarification informa se a ação apenas pede mais dados ao usuário
func (t ActionType) IsClarification() bool {
	switch t {
	case ActionAwaitingValue, ActionAwaitingClient, ActionAwaitingDocument, ActionChooseClient:
		return true
	}
	return false
}

// ActionData carrega os dados tipados da ação. Campos nulos não se
// aplicam à ação em questão
type ActionData struct {
	Amount        *nlu.MonetaryAmount     `json:"amount,omitempty"`
	Client        *client.Client          `json:"client,omitempty"`
	ClientName    string                  `json:"client_name,omitempty"`
	Document      *nlu.DocumentNumber     `json:"document,omitempty"`
	Candidates    []*client.Client        `json:"candidates,omitempty"`
	Service       *nlu.ServiceDescription `json:"service,omitempty"`
	Period        *nlu.Period             `json:"period,omitempty"`
	InvoiceRef    string                  `json:"invoice_ref,omitempty"`
	Limit         int                     `json:"limit,omitempty"`
	ClientCreated bool                    `json:"client_created,omitempty"`
}

// Action é o resultado tipado da interpretação de uma mensagem
type Action struct {
	Type                 ActionType `json:"type"`
	Data                 ActionData `json:"data"`
	RequiresConfirmation bool       `json:"requires_confirmation"`
}

// NewAction monta uma ação aplicando a tabela de confirmação
func NewAction(t ActionType, data ActionData) *Action {
	return &Action{
		Type:                 t,
		Data:                 data,
		RequiresConfirmation: RequiresConfirmation(t),
	}
}

// ProcessRequest é uma mensagem do usuário a ser interpretada. History é
// opcional: clientes sem sessão podem enviar os turnos recentes, que então
// substituem o histórico persistido na montagem do contexto do modelo
type ProcessRequest struct {
	AccountID string
	CompanyID string
	Message   string
	History   []ModelMessage
}

// ProcessResult é a resposta do assistente a uma mensagem
type ProcessResult struct {
	Success              bool    `json:"success"`
	Action               *Action `json:"action,omitempty"`
	Explanation          string  `json:"explanation"`
	RequiresConfirmation bool    `json:"requires_confirmation"`
}

// PendingAction é uma ação aguardando confirmação ou complemento de dados.
// Intent preserva o fluxo de origem para que respostas curtas como um CPF
// avulso continuem a operação certa
type PendingAction struct {
	Action      Action     `json:"action"`
	Intent      nlu.Intent `json:"intent"`
	Explanation string     `json:"explanation"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SessionStore guarda a ação pendente de cada conta entre mensagens
type SessionStore interface {
	// SetPending registra a ação pendente da conta
	SetPending(ctx context.Context, accountID string, p PendingAction) error

	// GetPending devolve a ação pendente ou nil quando não há
	GetPending(ctx context.Context, accountID string) (*PendingAction, error)

	// ClearPending descarta a ação pendente da conta
	ClearPending(ctx context.Context, accountID string) error
}

// ClientDirectory é o diretório de tomadores consultado pelo resolvedor.
// Buscas sem resultado devolvem nil sem erro
type ClientDirectory interface {
	// FindByDocument busca o tomador pelo documento dentro da conta
	FindByDocument(ctx context.Context, accountID, document string) (*client.Client, error)

	// SearchByName busca tomadores por fragmento de nome
	SearchByName(ctx context.Context, accountID, name string, limit int) ([]*client.Client, error)

	// Create cadastra o tomador; repetir o mesmo documento devolve o
	// registro já existente
	Create(ctx context.Context, c *client.Client) (*client.Client, error)

	// List lista os tomadores da conta
	List(ctx context.Context, accountID string, limit int) ([]*client.Client, error)
}

// IssuanceRequest é consumida uma única vez pelo orquestrador de emissão;
// nunca é reaproveitada em novas tentativas
type IssuanceRequest struct {
	AccountID   string `json:"account_id"`
	CompanyID   string `json:"company_id"`
	ClientID    string `json:"client_id"`
	AmountCents int64  `json:"amount_cents"`
	ServiceCode string `json:"service_code"`
	ServiceText string `json:"service_text"`
	// ISSRate zero delega a alíquota à configuração da empresa
	ISSRate float64 `json:"iss_rate,omitempty"`
}

// InvoiceService é o contrato de emissão e consulta de notas consumido
// pelo executor. Referências vazias significam a nota mais recente; datas
// zeradas em Recent listam sem filtro de período
type InvoiceService interface {
	Issue(ctx context.Context, req IssuanceRequest) (*invoice.Invoice, error)
	Cancel(ctx context.Context, accountID, companyID, ref string) (*invoice.Invoice, error)
	Status(ctx context.Context, accountID, companyID, ref string) (*invoice.Invoice, error)
	Recent(ctx context.Context, accountID, companyID string, from, to time.Time, limit int) ([]*invoice.Invoice, error)
}

// RevenueSummary resume o faturamento de um período
type RevenueSummary struct {
	TotalCents   int64     `json:"total_cents"`
	InvoiceCount int       `json:"invoice_count"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
}

// RevenueService consulta o faturamento consolidado de uma empresa
type RevenueService interface {
	Summary(ctx context.Context, accountID, companyID string, from, to time.Time) (*RevenueSummary, error)
}

// ModelMessage é uma mensagem enviada ao modelo generativo
type ModelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FunctionSchema descreve uma função que o modelo pode chamar. Parameters
// é um JSON Schema
type FunctionSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// FunctionCall é a decisão do modelo de invocar uma função nomeada
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ModelResult é a resposta do modelo generativo: texto livre ou chamada
// de função, nunca ambos
type ModelResult struct {
	Content      string        `json:"content,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// LanguageModel é o contrato opcional do modelo generativo. Falhas são
// sempre recuperadas pelo caminho determinístico
type LanguageModel interface {
	Complete(ctx context.Context, messages []ModelMessage, functions []FunctionSchema) (*ModelResult, error)
}

// ExecutionResult é o resultado de uma ação executada
type ExecutionResult struct {
	Message  string             `json:"message"`
	Invoice  *invoice.Invoice   `json:"invoice,omitempty"`
	Client   *client.Client     `json:"client,omitempty"`
	Clients  []*client.Client   `json:"clients,omitempty"`
	Invoices []*invoice.Invoice `json:"invoices,omitempty"`
	Revenue  *RevenueSummary    `json:"revenue,omitempty"`
}

// ActionExecutor executa uma ação já resolvida (e confirmada, quando a
// tabela de confirmação exige)
type ActionExecutor interface {
	Execute(ctx context.Context, accountID, companyID string, action *Action) (*ExecutionResult, error)
}
