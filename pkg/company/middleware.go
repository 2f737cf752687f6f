package company

import (
	"context"

	"github.com/gin-gonic/gin"
)

// companyIDKey é a chave usada para armazenar o company_id no contexto
type companyIDKey struct{}

// CompanyMiddleware cria um middleware para capturar o cabeçalho company-id,
// usado como empresa ativa padrão quando a requisição não informa uma
func CompanyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetHeader("company-id")
		if companyID != "" {
			c.Set("company_id", companyID)
			// Também colocar no contexto padrão para funções que usam context.Context
			ctx := context.WithValue(c.Request.Context(), companyIDKey{}, companyID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// GetCompanyID recupera o company_id do contexto, se existir
func GetCompanyID(ctx context.Context) string {
	if companyID, ok := ctx.Value(companyIDKey{}).(string); ok {
		return companyID
	}
	return ""
}
