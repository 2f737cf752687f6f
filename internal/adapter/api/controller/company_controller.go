package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/dto"
	"github.com/notasimples/nfse-assistente/internal/domain/company"
	"github.com/notasimples/nfse-assistente/internal/domain/provider"
	"github.com/notasimples/nfse-assistente/internal/service/plan"
	"github.com/notasimples/nfse-assistente/pkg/accountctx"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

// CompanyController gerencia as requisições de empresas emissoras
type CompanyController struct {
	companyRepo company.Repository
	limits      *plan.LimitService
	gateway     provider.Gateway
	logger      logger.Logger
}

// NewCompanyController cria uma nova instância de CompanyController
func NewCompanyController(companyRepo company.Repository, limits *plan.LimitService, gateway provider.Gateway, logger logger.Logger) *CompanyController {
	return &CompanyController{
		companyRepo: companyRepo,
		limits:      limits,
		gateway:     gateway,
		logger:      logger,
	}
}

// Create cadastra uma empresa emissora
// @Summary Cadastra uma empresa
// @Description Cadastra uma empresa emissora dentro do limite do plano
// @Tags Empresas
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company body dto.CompanyRequest true "Dados da empresa"
// @Success 201 {object} dto.CompanyResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /companies [post]
func (c *CompanyController) Create(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	var request dto.CompanyRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	if err := c.limits.CheckCompanyQuota(ctx, accountID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	comp, err := company.NewCompany(accountID, request.Name, request.Document, request.CityCode, company.TaxRegime(request.Regime))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Dados da empresa inválidos", err.Error()))
		return
	}

	if existing, err := c.companyRepo.FindByDocument(ctx, accountID, comp.Document); err == nil && existing != nil {
		ctx.JSON(http.StatusConflict, dto.NewErrorResponse(http.StatusConflict, "CNPJ já cadastrado", "a conta já possui uma empresa com esse CNPJ"))
		return
	} else if err != nil && !errors.Is(err, company.ErrNotFound) {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao verificar CNPJ", err.Error()))
		return
	}

	comp.TradeName = request.TradeName
	comp.Email = request.Email
	comp.MunicipalRegistration = request.MunicipalRegistration
	comp.CityName = request.CityName
	comp.State = request.State

	if request.ServiceCode != "" {
		if err := comp.SetDefaultService(request.ServiceCode, request.ServiceDescription, request.ISSRate); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Serviço padrão inválido", err.Error()))
			return
		}
	} else if request.ISSRate > 0 {
		comp.ISSRate = request.ISSRate
	}

	if err := c.companyRepo.Create(ctx, comp); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao cadastrar empresa", err.Error()))
		return
	}

	c.logger.Info("empresa cadastrada", "account_id", accountID, "company_id", comp.ID, "regime", string(comp.Regime))

	ctx.JSON(http.StatusCreated, dto.NewCompanyResponse(comp))
}

// List lista as empresas da conta
// @Summary Lista empresas
// @Description Lista as empresas emissoras da conta com paginação
// @Tags Empresas
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param page query int false "Página"
// @Param page_size query int false "Tamanho da página"
// @Success 200 {object} dto.CompanyListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /companies [get]
func (c *CompanyController) List(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "10"))
	pagination := dto.GetPagination(page, pageSize)

	companies, err := c.companyRepo.List(ctx, accountID, pagination.Limit(), pagination.Offset())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao listar empresas", err.Error()))
		return
	}

	total, err := c.companyRepo.Count(ctx, accountID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao contar empresas", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewCompanyListResponse(companies, total, pagination.Page, pagination.PageSize))
}

// Get busca uma empresa pelo ID
// @Summary Busca uma empresa
// @Description Busca uma empresa da conta pelo ID
// @Tags Empresas
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID da empresa"
// @Success 200 {object} dto.CompanyResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /companies/{id} [get]
func (c *CompanyController) Get(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	comp, err := c.companyRepo.FindByID(ctx, accountID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, company.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Empresa não encontrada", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar empresa", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewCompanyResponse(comp))
}

// Update atualiza os dados de uma empresa
// @Summary Atualiza uma empresa
// @Description Atualiza os dados cadastrais e o serviço padrão da empresa
// @Tags Empresas
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID da empresa"
// @Param company body dto.CompanyUpdateRequest true "Dados da empresa"
// @Success 200 {object} dto.CompanyResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /companies/{id} [put]
func (c *CompanyController) Update(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	var request dto.CompanyUpdateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	comp, err := c.companyRepo.FindByID(ctx, accountID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, company.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Empresa não encontrada", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar empresa", err.Error()))
		return
	}

	if err := comp.Update(request.Name, request.TradeName, request.Email, request.MunicipalRegistration); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Dados da empresa inválidos", err.Error()))
		return
	}

	if request.ServiceCode != "" {
		if err := comp.SetDefaultService(request.ServiceCode, request.ServiceDescription, request.ISSRate); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Serviço padrão inválido", err.Error()))
			return
		}
	} else if request.ISSRate > 0 {
		comp.ISSRate = request.ISSRate
	}

	if err := c.companyRepo.Update(ctx, comp); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao atualizar empresa", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewCompanyResponse(comp))
}

// Delete remove uma empresa
// @Summary Remove uma empresa
// @Description Remove uma empresa da conta
// @Tags Empresas
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID da empresa"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /companies/{id} [delete]
func (c *CompanyController) Delete(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	if err := c.companyRepo.Delete(ctx, accountID, ctx.Param("id")); err != nil {
		if errors.Is(err, company.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Empresa não encontrada", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao remover empresa", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("Empresa removida", nil))
}

// Register registra a empresa no provedor fiscal
// @Summary Registra a empresa no provedor
// @Description Envia o cadastro da empresa ao provedor fiscal e guarda a referência devolvida
// @Tags Empresas
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID da empresa"
// @Success 200 {object} dto.CompanyResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /companies/{id}/register [post]
func (c *CompanyController) Register(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	comp, err := c.companyRepo.FindByID(ctx, accountID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, company.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Empresa não encontrada", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar empresa", err.Error()))
		return
	}

	if comp.IsRegisteredWithProvider() {
		ctx.JSON(http.StatusConflict, dto.NewErrorResponse(http.StatusConflict, "Empresa já registrada", "a empresa já possui cadastro no provedor fiscal"))
		return
	}

	ref, err := c.gateway.RegisterCompany(ctx, provider.CompanyRegistration{
		Name:                  comp.Name,
		TradeName:             comp.TradeName,
		Document:              comp.Document,
		Email:                 comp.Email,
		MunicipalRegistration: comp.MunicipalRegistration,
		CityCode:              comp.CityCode,
		State:                 comp.State,
		Regime:                string(comp.Regime),
	})
	if err != nil {
		c.respondProviderError(ctx, err)
		return
	}

	comp.SetProviderRef(ref)
	if err := c.companyRepo.Update(ctx, comp); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao guardar referência do provedor", err.Error()))
		return
	}

	c.logger.Info("empresa registrada no provedor", "company_id", comp.ID, "provider_ref", ref)

	ctx.JSON(http.StatusOK, dto.NewCompanyResponse(comp))
}

// ProviderStatus consulta a situação da empresa no provedor fiscal
// @Summary Situação no provedor
// @Description Consulta a situação do cadastro da empresa junto ao provedor fiscal
// @Tags Empresas
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID da empresa"
// @Success 200 {object} dto.ProviderStatusResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /companies/{id}/provider-status [get]
func (c *CompanyController) ProviderStatus(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	comp, err := c.companyRepo.FindByID(ctx, accountID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, company.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Empresa não encontrada", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar empresa", err.Error()))
		return
	}

	if !comp.IsRegisteredWithProvider() {
		ctx.JSON(http.StatusConflict, dto.NewErrorResponse(http.StatusConflict, "Empresa não registrada", "registre a empresa no provedor fiscal antes de consultar a situação"))
		return
	}

	status, err := c.gateway.CheckConnection(ctx, comp.ProviderRef)
	if err != nil {
		c.respondProviderError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewProviderStatusResponse(status))
}

// respondProviderError traduz os erros do gateway fiscal para HTTP
func (c *CompanyController) respondProviderError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, provider.ErrRefused):
		ctx.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(http.StatusUnprocessableEntity, "Cadastro recusado pelo provedor", err.Error()))
	case errors.Is(err, provider.ErrNotFound):
		ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Cadastro não encontrado no provedor", "a referência guardada não existe mais no provedor fiscal"))
	case errors.Is(err, provider.ErrUnauthorized):
		c.logger.Error("credencial recusada pelo provedor fiscal", "error", err)
		ctx.JSON(http.StatusBadGateway, dto.NewErrorResponse(http.StatusBadGateway, "Falha de autorização na integração fiscal", "nossa equipe já foi notificada"))
	default:
		c.logger.Error("provedor fiscal indisponível", "error", err)
		ctx.JSON(http.StatusBadGateway, dto.NewErrorResponse(http.StatusBadGateway, "Provedor fiscal indisponível", "tente novamente em alguns minutos"))
	}
}
