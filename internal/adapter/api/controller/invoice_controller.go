package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/dto"
	"github.com/notasimples/nfse-assistente/internal/domain/company"
	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/internal/service/emission"
	"github.com/notasimples/nfse-assistente/internal/service/revenue"
	"github.com/notasimples/nfse-assistente/pkg/accountctx"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

// dateLayout é o formato aceito nos filtros de período
const dateLayout = "2006-01-02"

// InvoiceController gerencia as requisições de emissão e consulta de notas.
// Toda emissão passa pelo mesmo orquestrador usado pelo assistente
type InvoiceController struct {
	emissions   *emission.Service
	revenues    *revenue.Service
	invoiceRepo invoice.Repository
	companyRepo company.Repository
	logger      logger.Logger
}

// NewInvoiceController cria uma nova instância de InvoiceController
func NewInvoiceController(emissions *emission.Service, revenues *revenue.Service, invoiceRepo invoice.Repository, companyRepo company.Repository, logger logger.Logger) *InvoiceController {
	return &InvoiceController{
		emissions:   emissions,
		revenues:    revenues,
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		logger:      logger,
	}
}

// Issue emite uma nota fiscal
// @Summary Emite uma NFS-e
// @Description Emite uma nota pelo orquestrador; uma recusa síncrona da prefeitura volta como nota rejeitada
// @Tags Notas
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company-id header string false "Empresa emissora; vazio usa a empresa padrão"
// @Param invoice body dto.InvoiceRequest true "Dados da nota"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 402 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /invoices [post]
func (c *InvoiceController) Issue(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	var request dto.InvoiceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	companyID, err := resolveCompanyID(ctx, accountID, c.companyRepo)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	inv, err := c.emissions.Issue(ctx, assistant.IssuanceRequest{
		AccountID:   accountID,
		CompanyID:   companyID,
		ClientID:    request.ClientID,
		AmountCents: request.AmountCents,
		ServiceCode: request.ServiceCode,
		ServiceText: request.ServiceText,
		ISSRate:     request.ISSRate,
	})
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	c.logger.Info("nota emitida via API", "account_id", accountID,
		"invoice_id", inv.ID, "status", string(inv.Status))

	ctx.JSON(http.StatusCreated, dto.NewInvoiceResponse(inv))
}

// List lista as notas da empresa ativa
// @Summary Lista notas
// @Description Lista as notas mais recentes; from e to restringem o período
// @Tags Notas
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company-id header string false "Empresa emissora; vazio usa a empresa padrão"
// @Param from query string false "Data inicial (AAAA-MM-DD)"
// @Param to query string false "Data final (AAAA-MM-DD)"
// @Param limit query int false "Quantidade máxima"
// @Success 200 {object} dto.InvoiceListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /invoices [get]
func (c *InvoiceController) List(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	companyID, err := resolveCompanyID(ctx, accountID, c.companyRepo)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	from, to, err := parsePeriod(ctx.Query("from"), ctx.Query("to"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Período inválido", "use datas no formato AAAA-MM-DD"))
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	invoices, err := c.emissions.Recent(ctx, accountID, companyID, from, to, limit)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewInvoiceListResponse(invoices))
}

// Revenue apura o faturamento do período
// @Summary Faturamento do período
// @Description Soma as notas autorizadas do período; sem filtros apura o mês corrente
// @Tags Notas
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company-id header string false "Empresa emissora; vazio usa a empresa padrão"
// @Param from query string false "Data inicial (AAAA-MM-DD)"
// @Param to query string false "Data final (AAAA-MM-DD)"
// @Success 200 {object} dto.RevenueSummaryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /invoices/revenue [get]
func (c *InvoiceController) Revenue(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	companyID, err := resolveCompanyID(ctx, accountID, c.companyRepo)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	from, to, err := parsePeriod(ctx.Query("from"), ctx.Query("to"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Período inválido", "use datas no formato AAAA-MM-DD"))
		return
	}

	summary, err := c.revenues.Summary(ctx, accountID, companyID, from, to)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewRevenueSummaryResponse(summary))
}

// Get consulta uma nota, sincronizando o status com o provedor
// @Summary Consulta uma nota
// @Description Consulta a nota pelo ID ou número; notas em processamento são sincronizadas com o provedor
// @Tags Notas
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company-id header string false "Empresa emissora; vazio usa a empresa padrão"
// @Param id path string true "ID ou número da nota"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /invoices/{id} [get]
func (c *InvoiceController) Get(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	companyID, err := resolveCompanyID(ctx, accountID, c.companyRepo)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	inv, err := c.emissions.Status(ctx, accountID, companyID, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewInvoiceResponse(inv))
}

// Cancel cancela uma nota autorizada
// @Summary Cancela uma nota
// @Description Cancela uma nota autorizada junto ao provedor fiscal
// @Tags Notas
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company-id header string false "Empresa emissora; vazio usa a empresa padrão"
// @Param id path string true "ID ou número da nota"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /invoices/{id}/cancel [post]
func (c *InvoiceController) Cancel(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	companyID, err := resolveCompanyID(ctx, accountID, c.companyRepo)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	inv, err := c.emissions.Cancel(ctx, accountID, companyID, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	c.logger.Info("nota cancelada via API", "account_id", accountID, "invoice_id", inv.ID)

	ctx.JSON(http.StatusOK, dto.NewInvoiceResponse(inv))
}

// History devolve o histórico de status de uma nota
// @Summary Histórico de uma nota
// @Description Lista as mudanças de status registradas para a nota
// @Tags Notas
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company-id header string false "Empresa emissora; vazio usa a empresa padrão"
// @Param id path string true "ID ou número da nota"
// @Success 200 {object} dto.StatusHistoryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /invoices/{id}/history [get]
func (c *InvoiceController) History(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	companyID, err := resolveCompanyID(ctx, accountID, c.companyRepo)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	inv, err := c.emissions.Status(ctx, accountID, companyID, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	changes, err := c.invoiceRepo.StatusHistory(ctx, inv.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar histórico", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewStatusHistoryResponse(inv.ID, changes))
}

// parsePeriod interpreta o período opcional dos filtros; datas vazias
// viram tempo zero e listam sem filtro
func parsePeriod(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time

	if fromStr != "" {
		parsed, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return from, to, err
		}
		from = parsed
	}

	if toStr != "" {
		parsed, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return from, to, err
		}
		// a data final cobre o dia inteiro
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	return from, to, nil
}
