package route

import (
	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/controller"
)

// SetupBillingRoutes configura as rotas de planos e cobrança por uso
func SetupBillingRoutes(router *gin.RouterGroup, billingController *controller.BillingController) {
	billingRouter := router.Group("/billing")
	{
		billingRouter.GET("/plans", billingController.Plans)
		billingRouter.GET("/usage", billingController.Usage)
		billingRouter.PUT("/plan", billingController.UpdatePlan)
		billingRouter.PUT("/payment-method", billingController.UpdatePaymentMethod)
	}
}
