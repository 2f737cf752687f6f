package route

import (
	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/controller"
)

// SetupAssistantRoutes configura as rotas do assistente de comandos fiscais
func SetupAssistantRoutes(router *gin.RouterGroup, assistantController *controller.AssistantController) {
	assistantRouter := router.Group("/assistant")
	{
		// Interpretação de mensagens e execução de ações confirmadas
		assistantRouter.POST("/message", assistantController.Message)
		assistantRouter.POST("/execute", assistantController.Execute)

		// Histórico da conversa
		assistantRouter.GET("/history", assistantController.History)
		assistantRouter.DELETE("/history", assistantController.ClearHistory)
	}
}
