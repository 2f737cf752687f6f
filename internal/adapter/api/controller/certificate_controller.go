package controller

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/dto"
	"github.com/notasimples/nfse-assistente/internal/domain/certificate"
	"github.com/notasimples/nfse-assistente/internal/domain/company"
	"github.com/notasimples/nfse-assistente/pkg/accountctx"
	"github.com/notasimples/nfse-assistente/pkg/logger"
	"github.com/notasimples/nfse-assistente/pkg/pkcs12"
)

// CertificateController gerencia as requisições de certificados digitais
type CertificateController struct {
	certificateRepo certificate.Repository
	companyRepo     company.Repository
	logger          logger.Logger
}

// NewCertificateController cria uma nova instância de CertificateController
func NewCertificateController(certificateRepo certificate.Repository, companyRepo company.Repository, logger logger.Logger) *CertificateController {
	return &CertificateController{
		certificateRepo: certificateRepo,
		companyRepo:     companyRepo,
		logger:          logger,
	}
}

// Upload recebe um certificado A1 e o vincula a uma empresa
// @Summary Envia um certificado A1
// @Description Valida o arquivo .pfx com a senha informada, extrai a validade e ativa o certificado para a empresa
// @Tags Certificados
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param certificate body dto.CertificateUploadRequest true "Certificado em base64 e senha"
// @Success 201 {object} dto.CertificateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /certificates [post]
func (c *CertificateController) Upload(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	var request dto.CertificateUploadRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Requisição inválida", err.Error()))
		return
	}

	comp, err := c.companyRepo.FindByID(ctx, accountID, request.CompanyID)
	if err != nil {
		if errors.Is(err, company.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Empresa não encontrada", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar empresa", err.Error()))
		return
	}

	pfxData, err := base64.StdEncoding.DecodeString(request.File)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Arquivo inválido", "o arquivo deve ser enviado em base64"))
		return
	}

	// A senha é validada na própria decodificação do arquivo
	leaf, err := pkcs12.Inspect(pfxData, request.Password)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Certificado inválido", "verifique o arquivo e a senha informados"))
		return
	}

	name := request.Name
	if name == "" {
		name = leaf.Subject.CommonName
	}

	cert, err := certificate.NewCertificate(accountID, comp.ID, name, leaf.NotAfter)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Certificado recusado", err.Error()))
		return
	}

	if err := cert.StoreCertificateData(pfxData, request.Password); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Certificado recusado", err.Error()))
		return
	}

	if err := c.certificateRepo.Create(ctx, cert); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao guardar certificado", err.Error()))
		return
	}

	// O certificado recém-enviado passa a ser o ativo da empresa
	if err := c.certificateRepo.Activate(ctx, accountID, cert.ID); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao ativar certificado", err.Error()))
		return
	}

	c.logger.Info("certificado recebido", "account_id", accountID,
		"company_id", comp.ID, "certificate_id", cert.ID, "expires_at", cert.ExpirationDate)

	ctx.JSON(http.StatusCreated, dto.NewCertificateResponse(cert))
}

// List lista os certificados da conta
// @Summary Lista certificados
// @Description Lista os certificados da conta com paginação
// @Tags Certificados
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param page query int false "Página"
// @Param page_size query int false "Tamanho da página"
// @Success 200 {object} dto.CertificateListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /certificates [get]
func (c *CertificateController) List(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "10"))
	pagination := dto.GetPagination(page, pageSize)

	certificates, err := c.certificateRepo.List(ctx, accountID, pagination.Limit(), pagination.Offset())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao listar certificados", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewCertificateListResponse(certificates, len(certificates), pagination.Page, pagination.PageSize))
}

// Get busca um certificado pelo ID
// @Summary Busca um certificado
// @Description Busca um certificado da conta pelo ID
// @Tags Certificados
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID do certificado"
// @Success 200 {object} dto.CertificateResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /certificates/{id} [get]
func (c *CertificateController) Get(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	cert, err := c.certificateRepo.FindByID(ctx, accountID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, certificate.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Certificado não encontrado", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar certificado", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewCertificateResponse(cert))
}

// Activate torna um certificado o ativo da sua empresa
// @Summary Ativa um certificado
// @Description Ativa o certificado e desativa os demais da mesma empresa
// @Tags Certificados
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID do certificado"
// @Success 200 {object} dto.CertificateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /certificates/{id}/activate [post]
func (c *CertificateController) Activate(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)
	id := ctx.Param("id")

	cert, err := c.certificateRepo.FindByID(ctx, accountID, id)
	if err != nil {
		if errors.Is(err, certificate.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Certificado não encontrado", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao buscar certificado", err.Error()))
		return
	}

	if cert.IsExpired() {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Certificado vencido", "um certificado vencido não pode ser ativado"))
		return
	}

	if err := c.certificateRepo.Activate(ctx, accountID, id); err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao ativar certificado", err.Error()))
		return
	}

	cert.IsActive = true
	ctx.JSON(http.StatusOK, dto.NewCertificateResponse(cert))
}

// Delete remove um certificado
// @Summary Remove um certificado
// @Description Remove um certificado da conta
// @Tags Certificados
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "ID do certificado"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /certificates/{id} [delete]
func (c *CertificateController) Delete(ctx *gin.Context) {
	accountID := accountctx.GetAccountID(ctx)

	if err := c.certificateRepo.Delete(ctx, accountID, ctx.Param("id")); err != nil {
		if errors.Is(err, certificate.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, dto.NewErrorResponse(http.StatusNotFound, "Certificado não encontrado", "verifique o identificador informado"))
			return
		}
		ctx.JSON(http.StatusInternalServerError, dto.NewErrorResponse(http.StatusInternalServerError, "Erro ao remover certificado", err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse("Certificado removido", nil))
}
