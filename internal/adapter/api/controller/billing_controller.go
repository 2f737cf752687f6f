package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/dto"
	"github.com/notasimples/nfse-assistente/internal/domain/account"
	"github.com/notasimples/nfse-assistente/internal/domain/billing"
	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/internal/service/plan"
	"github.com/notasimples/nfse-assistente/pkg/accountctx"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

// BillingController gerencia planos, consumo e forma de pagamento
type BillingController struct {
	accountRepo account.Repository
	chargeRepo  billing.Repository
	invoiceRepo invoice.Repository
	logger      logger.Logger
}

// NewBillingController cria uma nova instância de BillingController
func NewBillingController(accountRepo account.Repository, chargeRepo billing.Repository, invoiceRepo invoice.Repository, logger logger.Logger) *BillingController {
	return &BillingController{
		accountRepo: accountRepo,
		chargeRepo:  chargeRepo,
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// Plans devolve o catálogo de planos
// @Summary Catálogo de planos
// @Description Lista os planos disponíveis com franquias e preços
// @Tags Cobrança
// @Produce json
// @Success 200 {object} dto.PlanCatalogResponse
// @Router /billing/plans [get]
func (c *BillingController) Plans(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewPlanCatalogResponse(plan.Catalog()))
}

// Usage devolve o consumo do mês corrente
// @Summary Consumo do mês
// @Description Resume as notas emitidas e as cobranças avulsas do mês corrente
// @Tags Cobrança
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} dto.UsageSummaryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /billing/usage [get]
func (c *BillingController) Usage(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	acc, err := c.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Conta não encontrada", "a conta do token não existe mais"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar conta", err.Error()))
		return
	}

	now := time.Now()

	issued, err := c.invoiceRepo.CountIssuedInMonth(ctx, accountID, now)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao contar notas do mês", err.Error()))
		return
	}

	charged, err := c.chargeRepo.SumInMonth(ctx, accountID, now)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao somar cobranças do mês", err.Error()))
		return
	}

	charges, err := c.chargeRepo.List(ctx, accountID, 20, 0)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao listar cobranças", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewUsageSummaryResponse(plan.LimitsFor(acc.Plan), issued, charged, charges))
}

// UpdatePlan troca o plano da conta
// @Summary Troca o plano
// @Description Altera o plano de cobrança da conta
// @Tags Cobrança
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param plan body dto.UpdatePlanRequest true "Novo plano"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /billing/plan [put]
func (c *BillingController) UpdatePlan(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	var request dto.UpdatePlanRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	acc, err := c.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Conta não encontrada", "a conta do token não existe mais"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar conta", err.Error()))
		return
	}

	if err := acc.ChangePlan(account.Plan(request.Plan)); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Plano inválido", "os planos aceitos são gratuito, mei, profissional e avulso"))
		return
	}

	if err := c.accountRepo.Update(ctx, acc); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao trocar plano", err.Error()))
		return
	}

	c.logger.Info("plano alterado", "account_id", accountID, "plan", string(acc.Plan))

	ctx.JSON(http.StatusOK, dto.NewAccountResponse(acc))
}

// UpdatePaymentMethod vincula a conta ao cliente do gateway de pagamento
// @Summary Vincula forma de pagamento
// @Description Guarda a referência do cliente criado no gateway de pagamento, pré-requisito do plano avulso
// @Tags Cobrança
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param payment body dto.PaymentMethodRequest true "Referência no gateway"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /billing/payment-method [put]
func (c *BillingController) UpdatePaymentMethod(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	var request dto.PaymentMethodRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	acc, err := c.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Conta não encontrada", "a conta do token não existe mais"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar conta", err.Error()))
		return
	}

	acc.SetPaymentCustomer(request.CustomerRef)

	if err := c.accountRepo.Update(ctx, acc); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao guardar forma de pagamento", err.Error()))
		return
	}

	c.logger.Info("forma de pagamento vinculada", "account_id", accountID)

	ctx.JSON(http.StatusOK, dto.NewAccountResponse(acc))
}
