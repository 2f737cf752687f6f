package accountctx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/dto"
)

// AccountValidator define a interface para validação de conta
type AccountValidator interface {
	ValidateAccount(accountID string) (bool, error)
}

// AccountMiddleware valida que a conta autenticada existe e está ativa.
// Deve ser registrado depois do middleware de autenticação, que popula o
// account_id no contexto.
func AccountMiddleware(validator AccountValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isExcludedPath(c.FullPath()) {
			c.Next()
			return
		}

		accountID := c.GetString("account_id")
		if accountID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				http.StatusUnauthorized,
				"Conta não identificada",
				"autentique-se para acessar este recurso",
			))
			return
		}

		valid, err := validator.ValidateAccount(accountID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(
				http.StatusInternalServerError,
				"Erro ao validar conta",
				err.Error(),
			))
			return
		}

		if !valid {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				http.StatusForbidden,
				"Conta inválida",
				"a conta informada não existe ou está inativa",
			))
			return
		}

		c.Request = c.Request.WithContext(SetAccountIDContext(c.Request.Context(), accountID))

		c.Next()
	}
}

// isExcludedPath verifica se o caminho está excluído da validação de conta
func isExcludedPath(path string) bool {
	excludedPaths := []string{
		"/api/v1/auth/login",
		"/api/v1/auth/register",
		"/api/v1/health",
		"/metrics",
	}

	for _, excludedPath := range excludedPaths {
		if path == excludedPath {
			return true
		}
	}

	return false
}
