package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/dto"
	"github.com/notasimples/nfse-assistente/internal/domain/company"
	"github.com/notasimples/nfse-assistente/pkg/accountctx"
	"github.com/notasimples/nfse-assistente/pkg/apperr"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/conversation"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

// AssistantController expõe o interpretador de comandos em linguagem
// natural e o histórico da conversa
type AssistantController struct {
	dispatcher  *assistant.Dispatcher
	history     conversation.Store
	companyRepo company.Repository
	logger      logger.Logger
}

// NewAssistantController cria uma nova instância de AssistantController
func NewAssistantController(dispatcher *assistant.Dispatcher, history conversation.Store, companyRepo company.Repository, logger logger.Logger) *AssistantController {
	return &AssistantController{
		dispatcher:  dispatcher,
		history:     history,
		companyRepo: companyRepo,
		logger:      logger,
	}
}

// Message interpreta uma mensagem do usuário
// @Summary Envia uma mensagem ao assistente
// @Description Interpreta a mensagem e devolve a resposta; mutações voltam como ação aguardando confirmação
// @Tags Assistente
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company-id header string false "Empresa emissora; vazio usa a empresa padrão"
// @Param message body dto.AssistantMessageRequest true "Mensagem do usuário"
// @Success 200 {object} dto.AssistantResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /assistant/message [post]
func (c *AssistantController) Message(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	var request dto.AssistantMessageRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	companyID, err := c.requestCompany(ctx, accountID, request.CompanyID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	result := c.dispatcher.Process(ctx, assistant.ProcessRequest{
		AccountID: accountID,
		CompanyID: companyID,
		Message:   request.Message,
		History:   request.History,
	})

	ctx.JSON(http.StatusOK, dto.NewAssistantResponse(result))
}

// Execute executa uma ação confirmada pelo usuário
// @Summary Executa uma ação confirmada
// @Description Executa a ação devolvida pelo assistente após a confirmação explícita do usuário
// @Tags Assistente
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company-id header string false "Empresa emissora; vazio usa a empresa padrão"
// @Param action body dto.AssistantExecuteRequest true "Ação confirmada"
// @Success 200 {object} dto.AssistantResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /assistant/execute [post]
func (c *AssistantController) Execute(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	var request dto.AssistantExecuteRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	companyID, err := c.requestCompany(ctx, accountID, request.CompanyID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	// A ação é remontada no servidor para que o cliente não consiga
	// burlar a tabela de confirmação
	action := assistant.NewAction(request.ActionType, request.ActionData)
	result := c.dispatcher.ExecuteAction(ctx, accountID, companyID, action)

	ctx.JSON(http.StatusOK, dto.NewAssistantResponse(result))
}

// requestCompany resolve a empresa da requisição: o corpo tem prioridade
// sobre o cabeçalho company-id e sobre a empresa padrão da conta
func (c *AssistantController) requestCompany(ctx *gin.Context, accountID, explicit string) (string, error) {
	if explicit == "" {
		return resolveCompanyID(ctx, accountID, c.companyRepo)
	}

	comp, err := c.companyRepo.FindByID(ctx, accountID, explicit)
	if err != nil {
		if errors.Is(err, company.ErrNotFound) {
			return "", apperr.New(apperr.CodeNotFound, "empresa não encontrada")
		}
		return "", err
	}

	return comp.ID, nil
}

// History devolve os turnos recentes da conversa
// @Summary Histórico da conversa
// @Description Lista os turnos mais recentes da conversa, do mais novo para o mais antigo
// @Tags Assistente
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param limit query int false "Quantidade máxima de turnos"
// @Success 200 {object} dto.ConversationHistoryResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /assistant/history [get]
func (c *AssistantController) History(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	turns, err := c.history.Recent(ctx, accountID, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar histórico", err.Error()))
		return
	}

	total, err := c.history.Count(ctx, accountID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao contar histórico", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewConversationHistoryResponse(turns, total))
}

// ClearHistory apaga o histórico da conversa
// @Summary Apaga o histórico
// @Description Apaga todos os turnos da conversa da conta
// @Tags Assistente
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} dto.SuccessResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /assistant/history [delete]
func (c *AssistantController) ClearHistory(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	if err := c.history.Purge(ctx, accountID); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao apagar histórico", err.Error()))
		return
	}

	c.logger.Info("histórico de conversa apagado", "account_id", accountID)

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("Histórico apagado", nil))
}
