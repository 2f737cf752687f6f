package route

import (
	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/controller"
)

// SetupCompanyRoutes configura as rotas para o módulo de empresas emissoras
func SetupCompanyRoutes(router *gin.RouterGroup, companyController *controller.CompanyController) {
	companyRouter := router.Group("/companies")
	{
		// Operações CRUD básicas
		companyRouter.POST("", companyController.Create)
		companyRouter.GET("", companyController.List)
		companyRouter.GET("/:id", companyController.Get)
		companyRouter.PUT("/:id", companyController.Update)
		companyRouter.DELETE("/:id", companyController.Delete)

		// Vínculo com o provedor fiscal
		companyRouter.POST("/:id/register", companyController.Register)
		companyRouter.GET("/:id/provider-status", companyController.ProviderStatus)
	}
}
