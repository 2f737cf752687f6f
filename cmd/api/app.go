package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/notasimples/nfse-assistente/internal/adapter/api/controller"
	"github.com/notasimples/nfse-assistente/internal/adapter/api/route"
	"github.com/notasimples/nfse-assistente/internal/adapter/generative"
	"github.com/notasimples/nfse-assistente/internal/adapter/notification"
	"github.com/notasimples/nfse-assistente/internal/adapter/payment"
	"github.com/notasimples/nfse-assistente/internal/adapter/provider"
	"github.com/notasimples/nfse-assistente/internal/adapter/repository"
	"github.com/notasimples/nfse-assistente/internal/adapter/session"
	"github.com/notasimples/nfse-assistente/internal/infrastructure/database"
	"github.com/notasimples/nfse-assistente/internal/infrastructure/observability"
	"github.com/notasimples/nfse-assistente/internal/service/certwatch"
	"github.com/notasimples/nfse-assistente/internal/service/emission"
	"github.com/notasimples/nfse-assistente/internal/service/plan"
	"github.com/notasimples/nfse-assistente/internal/service/revenue"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/auth"
	"github.com/notasimples/nfse-assistente/pkg/company"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

// pendingActionTTL limita por quanto tempo uma ação do assistente aguarda
// a confirmação do usuário
const pendingActionTTL = 30 * time.Minute

// App representa a aplicação e suas dependências
type App struct {
	router  *gin.Engine
	server  *http.Server
	logger  logger.Logger
	db      *pgxpool.Pool
	redis   *redis.Client
	poller  *emission.Poller
	watcher *certwatch.Watcher
}

// NewApp cria uma nova instância do aplicativo
func NewApp(ctx context.Context) (*App, error) {
	log := logger.NewLogger()

	// Banco de dados
	dbConfig := database.NewPostgresConfigFromEnv()
	db, err := database.NewPostgresPool(ctx, dbConfig)
	if err != nil {
		return nil, err
	}

	// Redis é opcional; sem ele as ações pendentes do assistente ficam em
	// memória e se perdem a cada reinício
	var redisClient *redis.Client
	redisConfig := database.NewRedisConfigFromEnv()
	if redisConfig.Enabled() {
		redisClient, err = database.NewRedisClient(ctx, redisConfig)
		if err != nil {
			return nil, err
		}
	}

	// Repositórios
	accountRepo := repository.NewAccountRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	clientRepo := repository.NewClientRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	conversationStore := repository.NewConversationRepository(db)

	metrics := observability.NewMetrics()

	// Provedor fiscal e gateway de pagamento
	gateway, err := provider.NewHTTPGateway(provider.Config{
		BaseURL: os.Getenv("PROVIDER_BASE_URL"),
		APIKey:  os.Getenv("PROVIDER_API_KEY"),
	}, log)
	if err != nil {
		return nil, err
	}
	instrumentedGateway := metrics.InstrumentGateway(gateway)

	charger, err := payment.NewHTTPCharger(payment.Config{
		BaseURL: os.Getenv("PAYMENT_BASE_URL"),
		APIKey:  os.Getenv("PAYMENT_API_KEY"),
	}, log)
	if err != nil {
		return nil, err
	}

	// Serviços de apoio
	limits, err := plan.NewLimitService(accountRepo, companyRepo, invoiceRepo, log)
	if err != nil {
		return nil, err
	}

	revenues, err := revenue.NewService(invoiceRepo, log)
	if err != nil {
		return nil, err
	}

	// Orquestrador de emissão
	deps := emission.Deps{
		Accounts:     accountRepo,
		Companies:    companyRepo,
		Clients:      clientRepo,
		Certificates: certificateRepo,
		Invoices:     invoiceRepo,
		Charges:      billingRepo,
		Limits:       limits,
		Gateway:      instrumentedGateway,
		Payments:     charger,
		Logger:       log,
	}

	// Notificações por e-mail quando o remetente está configurado
	if fromEmail := os.Getenv("NOTIFY_FROM_EMAIL"); fromEmail != "" {
		notifier, err := notification.NewEmailNotifier(ctx, notification.Config{
			Region:    os.Getenv("AWS_REGION"),
			FromEmail: fromEmail,
		}, accountRepo, log)
		if err != nil {
			return nil, err
		}
		deps.Notifier = notifier
	} else {
		log.Warn("NOTIFY_FROM_EMAIL não configurado, notificações irão apenas para o log")
		deps.Notifier = notification.NewLogNotifier(log)
	}

	emissions, err := emission.NewService(deps)
	if err != nil {
		return nil, err
	}

	poller, err := emission.NewPoller(emissions, emission.PollerConfig{})
	if err != nil {
		return nil, err
	}

	watcher, err := certwatch.NewWatcher(certificateRepo, deps.Notifier, log, certwatch.Config{})
	if err != nil {
		return nil, err
	}

	// Assistente de comandos
	directory := repository.NewClientDirectory(clientRepo)

	resolver, err := assistant.NewResolver(directory, log)
	if err != nil {
		return nil, err
	}

	executor, err := assistant.NewExecutor(emissions, revenues, directory, log)
	if err != nil {
		return nil, err
	}

	var sessions assistant.SessionStore
	if redisClient != nil {
		sessions = session.NewRedisStore(redisClient, pendingActionTTL)
	} else {
		sessions = session.NewMemoryStore(pendingActionTTL)
	}

	opts := []assistant.DispatcherOption{assistant.WithHistory(conversationStore)}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		model, err := generative.NewOpenAIModel(generative.Config{
			APIKey: apiKey,
			Model:  os.Getenv("OPENAI_MODEL"),
		}, log)
		if err != nil {
			return nil, err
		}
		opts = append(opts, assistant.WithLanguageModel(metrics.InstrumentModel(model)))
	} else {
		log.Warn("OPENAI_API_KEY não configurada, o assistente usará apenas o interpretador determinístico")
	}

	dispatcher, err := assistant.NewDispatcher(resolver, sessions, executor, log, opts...)
	if err != nil {
		return nil, err
	}

	// Autenticação
	jwtService, err := auth.NewJWTService()
	if err != nil {
		return nil, err
	}

	// Controllers
	authController := controller.NewAuthController(accountRepo, jwtService, log)
	companyController := controller.NewCompanyController(companyRepo, limits, instrumentedGateway, log)
	clientController := controller.NewClientController(clientRepo, log)
	certificateController := controller.NewCertificateController(certificateRepo, companyRepo, log)
	invoiceController := controller.NewInvoiceController(emissions, revenues, invoiceRepo, companyRepo, log)
	assistantController := controller.NewAssistantController(dispatcher, conversationStore, companyRepo, log)
	billingController := controller.NewBillingController(accountRepo, billingRepo, invoiceRepo, log)

	// Router e middlewares globais
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "company-id")
	router.Use(cors.New(corsConfig))

	router.Use(metrics.Middleware())
	router.Use(company.CompanyMiddleware())

	route.SetupRoutes(router, route.Deps{
		Auth:         authController,
		Companies:    companyController,
		Clients:      clientController,
		Certificates: certificateController,
		Invoices:     invoiceController,
		Assistant:    assistantController,
		Billing:      billingController,
		Validator:    repository.NewAccountValidator(accountRepo),
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:    ":" + serverPort(),
		Handler: router,
	}

	return &App{
		router:  router,
		server:  server,
		logger:  log,
		db:      db,
		redis:   redisClient,
		poller:  poller,
		watcher: watcher,
	}, nil
}

// Start sobe o servidor HTTP e os trabalhos de segundo plano e bloqueia
// até o contexto ser cancelado ou um deles falhar
func (a *App) Start(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.logger.Info("servidor HTTP iniciado", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		a.poller.Run(ctx)
		return nil
	})

	group.Go(func() error {
		a.watcher.Run(ctx)
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		a.logger.Info("encerrando o servidor")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return a.server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// Close libera os recursos da aplicação
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// serverPort devolve a porta do servidor HTTP
func serverPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}
