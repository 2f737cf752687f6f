package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/dto"
	"github.com/notasimples/nfse-assistente/internal/domain/company"
	"github.com/notasimples/nfse-assistente/pkg/apperr"
)

// statusByCode mapeia os códigos de erro do sistema para status HTTP.
// Falhas do provedor fiscal viram 502: o problema não está na requisição
var statusByCode = map[apperr.Code]int{
	apperr.CodeInvalidInput:            http.StatusBadRequest,
	apperr.CodeUnauthorized:            http.StatusUnauthorized,
	apperr.CodeNoPaymentMethod:         http.StatusPaymentRequired,
	apperr.CodeChargeDeclined:          http.StatusPaymentRequired,
	apperr.CodeQuotaExceeded:           http.StatusForbidden,
	apperr.CodeNotFound:                http.StatusNotFound,
	apperr.CodeCompanyNotRegistered:    http.StatusConflict,
	apperr.CodeCertificateMissing:      http.StatusConflict,
	apperr.CodeCertificateExpired:      http.StatusConflict,
	apperr.CodeMunicipalityUnsupported: http.StatusUnprocessableEntity,
	apperr.CodeClientUnresolved:        http.StatusUnprocessableEntity,
	apperr.CodeClientAmbiguous:         http.StatusUnprocessableEntity,
	apperr.CodeRegimeViolation:         http.StatusUnprocessableEntity,
	apperr.CodeRevenueCeilingExceeded:  http.StatusUnprocessableEntity,
	apperr.CodeInvoiceRejected:         http.StatusUnprocessableEntity,
	apperr.CodeProviderUnavailable:     http.StatusBadGateway,
	apperr.CodeProviderUnauthorized:    http.StatusBadGateway,
	apperr.CodeProviderMalformed:       http.StatusBadGateway,
}

// respondServiceError traduz um erro dos serviços para a resposta HTTP.
// A mensagem e a orientação vêm da tabela de traduções; o detalhe técnico
// nunca chega ao cliente
func respondServiceError(ctx *gin.Context, err error) {
	translation := apperr.Translate(err, apperr.OriginUser)

	status, ok := statusByCode[translation.Category]
	if !ok {
		status = http.StatusInternalServerError
	}

	ctx.JSON(status, dto.NewErrorResponse(status, translation.Message, translation.Explanation))
}

// resolveCompanyID devolve a empresa ativa da requisição: o cabeçalho
// company-id quando presente, senão a empresa padrão da conta
func resolveCompanyID(ctx *gin.Context, accountID string, companies company.Repository) (string, error) {
	if companyID := ctx.GetString("company_id"); companyID != "" {
		return companyID, nil
	}

	comp, err := companies.FindDefault(ctx, accountID)
	if err != nil {
		if errors.Is(err, company.ErrNotFound) {
			return "", apperr.New(apperr.CodeNotFound, "nenhuma empresa cadastrada; cadastre uma empresa antes de continuar")
		}
		return "", err
	}

	return comp.ID, nil
}
