package dto

import (
	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/conversation"
)

// AssistantMessageRequest representa uma mensagem do usuário ao assistente.
// CompanyID é opcional: vazio usa o cabeçalho company-id ou a empresa padrão.
// History permite que clientes sem sessão enviem os turnos recentes
type AssistantMessageRequest struct {
	Message   string                   `json:"message" binding:"required"`
	CompanyID string                   `json:"company_id"`
	History   []assistant.ModelMessage `json:"history"`
}

// AssistantExecuteRequest representa a confirmação de uma ação preparada
// pelo assistente. Tipo e dados voltam exatamente como recebidos na
// resposta anterior; a exigência de confirmação é recalculada no servidor
type AssistantExecuteRequest struct {
	ActionType assistant.ActionType `json:"action_type" binding:"required"`
	ActionData assistant.ActionData `json:"action_data"`
	CompanyID  string               `json:"company_id"`
}

// AssistantResponse representa a resposta do assistente a uma mensagem
type AssistantResponse struct {
	Success              bool              `json:"success"`
	Explanation          string            `json:"explanation"`
	Action               *assistant.Action `json:"action,omitempty"`
	RequiresConfirmation bool              `json:"requires_confirmation"`
}

// ConversationHistoryResponse representa o histórico recente da conversa
type ConversationHistoryResponse struct {
	Turns []conversation.Turn `json:"turns"`
	Total int                 `json:"total"`
}

// NewAssistantResponse cria um AssistantResponse a partir do resultado do
// interpretador
func NewAssistantResponse(result *assistant.ProcessResult) *AssistantResponse {
	return &AssistantResponse{
		Success:              result.Success,
		Explanation:          result.Explanation,
		Action:               result.Action,
		RequiresConfirmation: result.RequiresConfirmation,
	}
}

// NewConversationHistoryResponse cria um ConversationHistoryResponse
func NewConversationHistoryResponse(turns []conversation.Turn, total int) *ConversationHistoryResponse {
	if turns == nil {
		turns = []conversation.Turn{}
	}
	return &ConversationHistoryResponse{
		Turns: turns,
		Total: total,
	}
}
