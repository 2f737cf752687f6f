package route

import (
	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/controller"
	"github.com/notasimples/nfse-assistente/pkg/auth"
)

// SetupAuthRoutes configura as rotas para autenticação
func SetupAuthRoutes(router *gin.RouterGroup, authController *controller.AuthController) {
	authRouter := router.Group("/auth")
	{
		// Criação de conta e login não requerem autenticação
		authRouter.POST("/register", authController.Register)
		authRouter.POST("/login", authController.Login)

		// Rota para renovar token (não requer autenticação pois usa o próprio token)
		authRouter.POST("/refresh-token", authController.RefreshToken)

		// Rota para obter informações da conta logada (requer autenticação)
		authRouter.GET("/me", auth.JWTAuthMiddleware(), authController.Me)
	}
}
