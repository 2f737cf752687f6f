package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/dto"
	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/pkg/accountctx"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

// ClientController gerencia as requisições de tomadores de serviço
type ClientController struct {
	clientRepo client.Repository
	logger     logger.Logger
}

// NewClientController cria uma nova instância de ClientController
func NewClientController(clientRepo client.Repository, logger logger.Logger) *ClientController {
	return &ClientController{
		clientRepo: clientRepo,
		logger:     logger,
	}
}

// Create cadastra um tomador de serviço
// @Summary Cadastra um tomador
// @Description Cadastra um tomador; repetir o mesmo documento devolve o registro existente
// @Tags Tomadores
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param client body dto.ClientRequest true "Dados do tomador"
// @Success 200 {object} dto.ClientResponse
// @Success 201 {object} dto.ClientResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /clients [post]
func (c *ClientController) Create(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	var request dto.ClientRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	cli, err := client.NewClient(accountID, request.Name, request.Document)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Dados do tomador inválidos", err.Error()))
		return
	}

	cli.Email = request.Email
	cli.Phone = request.Phone
	if request.CityCode != "" || request.ZipCode != "" || request.Street != "" {
		cli.SetAddress(request.CityCode, request.CityName, request.State, request.ZipCode, request.Street, request.Number)
	}

	saved, err := c.clientRepo.Create(ctx, cli)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao cadastrar tomador", err.Error()))
		return
	}

	// Documento repetido devolve o cadastro que já existia
	if saved.ID != cli.ID {
		ctx.JSON(http.StatusOK, dto.NewClientResponse(saved))
		return
	}

	c.logger.Info("tomador cadastrado", "account_id", accountID, "client_id", saved.ID, "kind", string(saved.Kind))

	ctx.JSON(http.StatusCreated, dto.NewClientResponse(saved))
}

// List lista os tomadores da conta
// @Summary Lista tomadores
// @Description Lista os tomadores da conta; com name busca por fragmento de nome
// @Tags Tomadores
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param name query string false "Fragmento do nome"
// @Param page query int false "Página"
// @Param page_size query int false "Tamanho da página"
// @Success 200 {object} dto.ClientListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /clients [get]
func (c *ClientController) List(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "10"))
	pagination := dto.GetPagination(page, pageSize)

	if name := ctx.Query("name"); name != "" {
		clients, err := c.clientRepo.SearchByName(ctx, accountID, name, pagination.Limit())
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar tomadores", err.Error()))
			return
		}
		ctx.JSON(http.StatusOK, dto.NewClientListResponse(clients, len(clients), pagination.Page, pagination.PageSize))
		return
	}

	clients, err := c.clientRepo.List(ctx, accountID, pagination.Limit(), pagination.Offset())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao listar tomadores", err.Error()))
		return
	}

	total, err := c.clientRepo.Count(ctx, accountID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao contar tomadores", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewClientListResponse(clients, total, pagination.Page, pagination.PageSize))
}

// Get busca um tomador pelo ID
// @Summary Busca um tomador
// @Description Busca um tomador da conta pelo ID
// @Tags Tomadores
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID do tomador"
// @Success 200 {object} dto.ClientResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /clients/{id} [get]
func (c *ClientController) Get(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	cli, err := c.clientRepo.FindByID(ctx, accountID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Tomador não encontrado", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar tomador", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewClientResponse(cli))
}

// Update atualiza os dados de contato de um tomador
// @Summary Atualiza um tomador
// @Description Atualiza nome e dados de contato do tomador
// @Tags Tomadores
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID do tomador"
// @Param client body dto.ClientUpdateRequest true "Dados do tomador"
// @Success 200 {object} dto.ClientResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /clients/{id} [put]
func (c *ClientController) Update(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	var request dto.ClientUpdateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	cli, err := c.clientRepo.FindByID(ctx, accountID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Tomador não encontrado", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar tomador", err.Error()))
		return
	}

	if err := cli.Update(request.Name, request.Email, request.Phone); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Dados do tomador inválidos", err.Error()))
		return
	}

	if err := c.clientRepo.Update(ctx, cli); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao atualizar tomador", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewClientResponse(cli))
}

// Delete remove um tomador
// @Summary Remove um tomador
// @Description Remove um tomador da conta
// @Tags Tomadores
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID do tomador"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /clients/{id} [delete]
func (c *ClientController) Delete(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	if err := c.clientRepo.Delete(ctx, accountID, ctx.Param("id")); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Tomador não encontrado", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao remover tomador", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("Tomador removido", nil))
}
