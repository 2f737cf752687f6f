package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/dto"
	"github.com/notasimples/nfse-assistente/pkg/accountctx"
)

// JWTAuthMiddleware cria um middleware para autenticação JWT
func JWTAuthMiddleware() gin.HandlerFunc {
	jwtService, err := NewJWTService()
	if err != nil {
		// Se não conseguir criar o serviço JWT, retornar erro 500
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(
				http.StatusInternalServerError,
				"Erro ao configurar autenticação",
				"O serviço JWT não foi inicializado corretamente",
			))
		}
	}

	return func(c *gin.Context) {
		// Obter o token do cabeçalho Authorization
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				http.StatusUnauthorized,
				"Autenticação requerida",
				"O cabeçalho Authorization não foi fornecido",
			))
			return
		}

		// Verificar o formato "Bearer <token>"
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				http.StatusUnauthorized,
				"Formato de token inválido",
				"Use o formato 'Bearer <token>'",
			))
			return
		}

		// Validar o token
		claims, err := jwtService.ValidateToken(tokenParts[1])
		if err != nil {
			message := "Token inválido"
			if err == ErrExpiredToken {
				message = "Token expirado"
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				http.StatusUnauthorized,
				message,
				err.Error(),
			))
			return
		}

		// Armazenar as claims no contexto
		c.Set("account_id", claims.AccountID)
		c.Set("account_email", claims.Email)
		c.Set("account_name", claims.Name)
		c.Set("account_plan", claims.Plan)

		// Definir o account ID para o middleware de conta
		c.Request = c.Request.WithContext(accountctx.SetAccountIDContext(c.Request.Context(), claims.AccountID))

		c.Next()
	}
}

// GetCurrentAccount obtém as informações da conta atual do contexto
func GetCurrentAccount(c *gin.Context) (string, string, string, string) {
	accountID, _ := c.Get("account_id")
	email, _ := c.Get("account_email")
	name, _ := c.Get("account_name")
	plan, _ := c.Get("account_plan")

	accountIDStr, _ := accountID.(string)
	emailStr, _ := email.(string)
	nameStr, _ := name.(string)
	planStr, _ := plan.(string)

	return accountIDStr, emailStr, nameStr, planStr
}
