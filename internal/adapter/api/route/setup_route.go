package route

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/notasimples/nfse-assistente/internal/adapter/api/controller"
	"github.com/notasimples/nfse-assistente/internal/infrastructure/observability"
	"github.com/notasimples/nfse-assistente/pkg/accountctx"
	"github.com/notasimples/nfse-assistente/pkg/auth"
)

// Deps agrupa as dependências necessárias para montar as rotas da API
type Deps struct {
	Auth         *controller.AuthController
	Companies    *controller.CompanyController
	Clients      *controller.ClientController
	Certificates *controller.CertificateController
	Invoices     *controller.InvoiceController
	Assistant    *controller.AssistantController
	Billing      *controller.BillingController

	Validator accountctx.AccountValidator
	Metrics   *observability.Metrics
}

// SetupRoutes configura todas as rotas da aplicação
func SetupRoutes(router *gin.Engine, deps Deps) {
	// Métricas e documentação ficam fora do prefixo da API
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	// Rotas públicas de autenticação
	SetupAuthRoutes(api, deps.Auth)

	// Rotas que requerem conta autenticada e ativa. O middleware de conta
	// depende do account_id gravado pelo middleware de autenticação
	protected := api.Group("")
	protected.Use(auth.JWTAuthMiddleware(), accountctx.AccountMiddleware(deps.Validator))

	SetupCompanyRoutes(protected, deps.Companies)
	SetupClientRoutes(protected, deps.Clients)
	SetupCertificateRoutes(protected, deps.Certificates)
	SetupInvoiceRoutes(protected, deps.Invoices)
	SetupAssistantRoutes(protected, deps.Assistant)
	SetupBillingRoutes(protected, deps.Billing)
}
