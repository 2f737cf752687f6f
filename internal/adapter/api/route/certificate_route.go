package route

import (
	"github.com/gin-gonic/gin"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/controller"
)

// SetupCertificateRoutes configura as rotas para o módulo de certificados digitais
func SetupCertificateRoutes(router *gin.RouterGroup, certificateController *controller.CertificateController) {
	certificateRouter := router.Group("/certificates")
	{
		certificateRouter.POST("/upload", certificateController.Upload)
		certificateRouter.GET("", certificateController.List)
		certificateRouter.GET("/:id", certificateController.Get)
		certificateRouter.DELETE("/:id", certificateController.Delete)

		// O certificado ativado passa a assinar as emissões da empresa
		certificateRouter.POST("/:id/activate", certificateController.Activate)
	}
}
