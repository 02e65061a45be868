package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/repogate-inc/repogate/internal/application/access"
	catalogUsecases "github.com/repogate-inc/repogate/internal/application/catalog/usecases"
	merchantUsecases "github.com/repogate-inc/repogate/internal/application/merchant/usecases"
	"github.com/repogate-inc/repogate/internal/application/purchase"
	purchaseUsecases "github.com/repogate-inc/repogate/internal/application/purchase/usecases"
	"github.com/repogate-inc/repogate/internal/infrastructure/config"
	"github.com/repogate-inc/repogate/internal/infrastructure/email"
	"github.com/repogate-inc/repogate/internal/infrastructure/github"
	"github.com/repogate-inc/repogate/internal/infrastructure/payment"
	"github.com/repogate-inc/repogate/internal/infrastructure/ratelimit"
	"github.com/repogate-inc/repogate/internal/infrastructure/repository"
	"github.com/repogate-inc/repogate/internal/infrastructure/secrets"
	"github.com/repogate-inc/repogate/internal/interfaces/http/handlers"
	"github.com/repogate-inc/repogate/internal/interfaces/http/middleware"
	"github.com/repogate-inc/repogate/internal/shared/logger"
	"github.com/repogate-inc/repogate/internal/shared/utils"
)

// Router wires the HTTP surface: public checkout endpoints, provider
// webhook receivers, and the owner-side admin routes.
type Router struct {
	engine          *gin.Engine
	checkoutHandler *handlers.CheckoutHandler
	webhookHandler  *handlers.WebhookHandler
	adminHandler    *handlers.AdminHandler
	listingHandler  *handlers.ListingHandler
	settingsHandler *handlers.SettingsHandler
	limiter         ratelimit.RateLimiter
	cfg             *config.Config
	scheduler       *purchaseUsecases.RetryPendingGrantsUseCase
	log             logger.Interface
}

// NewRouter constructs the full dependency graph from the database
// handle and configuration.
func NewRouter(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Router, error) {
	engine := gin.New()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := handlers.RegisterValidators(v); err != nil {
			return nil, err
		}
	}

	encryptor, err := secrets.NewEncryptor(cfg.Secrets.EncryptionSecret)
	if err != nil {
		return nil, err
	}

	purchaseRepo := repository.NewPurchaseRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	accessLogRepo := repository.NewAccessLogRepository(db)
	credentialsRepo := repository.NewCredentialsRepository(db, encryptor)
	pricingHistoryRepo := repository.NewPricingHistoryRepository(db)

	gatewayFactory := payment.NewGatewayFactory(&cfg.Payments, log)
	githubClient := github.NewClient(&cfg.GitHub, log)
	grantService := access.NewGrantService(githubClient, log)
	notifier := email.NewSMTPNotifier(&cfg.Email, cfg.Payments.AdminEmail)
	audit := purchase.NewAuditRecorder(accessLogRepo, log)

	createCheckoutUC := purchaseUsecases.NewCreateCheckoutUseCase(
		catalogRepo, purchaseRepo, credentialsRepo, gatewayFactory, notifier, audit, log,
	)
	grantFreeAccessUC := purchaseUsecases.NewGrantFreeAccessUseCase(
		catalogRepo, purchaseRepo, grantService, notifier, audit, log,
	)
	renewalUC := purchaseUsecases.NewHandleRenewalUseCase(
		catalogRepo, purchaseRepo, notifier, audit, log,
	)
	paymentSuccessUC := purchaseUsecases.NewHandlePaymentSuccessUseCase(
		catalogRepo, purchaseRepo, grantService, notifier, audit, renewalUC, log,
	)
	subCanceledUC := purchaseUsecases.NewHandleSubscriptionCanceledUseCase(
		catalogRepo, purchaseRepo, grantService, notifier, audit, log,
	)
	paymentFailedUC := purchaseUsecases.NewHandlePaymentFailedUseCase(
		purchaseRepo, notifier, audit, log,
	)
	revokeAccessUC := purchaseUsecases.NewRevokeAccessUseCase(
		catalogRepo, purchaseRepo, credentialsRepo, gatewayFactory, grantService, notifier, audit, log,
	)
	retryGrantsUC := purchaseUsecases.NewRetryPendingGrantsUseCase(
		catalogRepo, purchaseRepo, grantService, notifier, audit, log,
	)
	createListingUC := catalogUsecases.NewCreateListingUseCase(catalogRepo, pricingHistoryRepo, log)
	changePriceUC := catalogUsecases.NewChangeListingPriceUseCase(catalogRepo, pricingHistoryRepo, log)
	connectProviderUC := merchantUsecases.NewConnectProviderUseCase(credentialsRepo, log)
	disconnectProviderUC := merchantUsecases.NewDisconnectProviderUseCase(credentialsRepo, log)

	checkoutHandler := handlers.NewCheckoutHandler(createCheckoutUC, grantFreeAccessUC, log)
	webhookHandler := handlers.NewWebhookHandler(
		gatewayFactory, paymentSuccessUC, subCanceledUC, renewalUC, paymentFailedUC, log,
	)
	adminHandler := handlers.NewAdminHandler(revokeAccessUC, log)
	listingHandler := handlers.NewListingHandler(createListingUC, changePriceUC, log)
	settingsHandler := handlers.NewSettingsHandler(connectProviderUC, disconnectProviderUC, log)

	return &Router{
		engine:          engine,
		checkoutHandler: checkoutHandler,
		webhookHandler:  webhookHandler,
		adminHandler:    adminHandler,
		listingHandler:  listingHandler,
		settingsHandler: settingsHandler,
		limiter:         ratelimit.NewMemoryRateLimiter(),
		cfg:             cfg,
		scheduler:       retryGrantsUC,
		log:             log,
	}, nil
}

// RetryPendingGrantsUseCase exposes the sweep use case so the server
// command can hand it to the background scheduler.
func (r *Router) RetryPendingGrantsUseCase() *purchaseUsecases.RetryPendingGrantsUseCase {
	return r.scheduler
}

// SetupRoutes configures all HTTP routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Logger(r.log))
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.CORS([]string{r.cfg.Payments.SiteURL}))

	r.engine.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, nethttp.StatusOK, "ok", nil)
	})

	api := r.engine.Group("/api")
	{
		checkoutLimit := middleware.RateLimit(r.limiter, r.cfg.RateLimit.CheckoutPerMinute)
		api.POST("/checkout", checkoutLimit, r.checkoutHandler.CreateCheckout)
		api.POST("/free-access", checkoutLimit, r.checkoutHandler.GrantFreeAccess)

		admin := api.Group("/admin")
		{
			admin.POST("/purchases/:id/revoke", r.adminHandler.RevokeAccess)
			admin.POST("/repositories", r.listingHandler.CreateListing)
			admin.PUT("/repositories/:id/price", r.listingHandler.ChangePrice)
			admin.PUT("/settings/provider", r.settingsHandler.ConnectProvider)
			admin.DELETE("/settings/provider", r.settingsHandler.DisconnectProvider)
		}
	}

	webhooks := r.engine.Group("/webhooks")
	{
		webhookLimit := middleware.RateLimit(r.limiter, r.cfg.RateLimit.WebhookPerMinute)
		webhooks.POST("/:provider", webhookLimit, r.webhookHandler.Receive)
	}
}

// GetEngine returns the Gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
