package route

import (
	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/controller"
)

// SetupInvoiceRoutes configura as rotas para o módulo de notas fiscais
func SetupInvoiceRoutes(router *gin.RouterGroup, invoiceController *controller.InvoiceController) {
	invoiceRouter := router.Group("/invoices")
	{
		invoiceRouter.POST("", invoiceController.Issue)
		invoiceRouter.GET("", invoiceController.List)
		invoiceRouter.GET("/revenue", invoiceController.Revenue)
		invoiceRouter.GET("/:id", invoiceController.Get)
		invoiceRouter.GET("/:id/history", invoiceController.History)
		invoiceRouter.POST("/:id/cancel", invoiceController.Cancel)
	}
}
