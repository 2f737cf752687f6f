package route

import (
	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/controller"
)

// SetupClientRoutes configura as rotas para o módulo de tomadores de serviço
func SetupClientRoutes(router *gin.RouterGroup, clientController *controller.ClientController) {
	clientRouter := router.Group("/clients")
	{
		clientRouter.POST("", clientController.Create)
		clientRouter.GET("", clientController.List)
		clientRouter.GET("/:id", clientController.Get)
		clientRouter.PUT("/:id", clientController.Update)
		clientRouter.DELETE("/:id", clientController.Delete)
	}
}
