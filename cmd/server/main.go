package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"defiant.backend/internal/config"
	"defiant.backend/internal/infrastructure/blockchain"
	"defiant.backend/internal/infrastructure/jobs"
	"defiant.backend/internal/infrastructure/models"
	"defiant.backend/internal/infrastructure/repositories"
	"defiant.backend/internal/interfaces/http/handlers"
	"defiant.backend/internal/interfaces/http/middleware"
	"defiant.backend/internal/usecases"
	"defiant.backend/pkg/crypto"
	"defiant.backend/pkg/jwt"
	"defiant.backend/pkg/logger"
	"defiant.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt:    false,
			TranslateError: true,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
		if err := db.AutoMigrate(
			&models.Merchant{},
			&models.Customer{},
			&models.ApiKey{},
			&models.Payment{},
			&models.Event{},
			&models.BalanceTransaction{},
			&models.Webhook{},
			&models.WebhookDelivery{},
		); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	// Initialize repositories
	merchantRepo := repositories.NewMerchantRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	apiKeyRepo := repositories.NewApiKeyRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	balanceTxRepo := repositories.NewBalanceTransactionRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	deliveryRepo := repositories.NewWebhookDeliveryRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Cipher for webhook secrets and deposit keys at rest
	cipher, err := crypto.NewCipher(cfg.Security.WebhookSecretEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize secret cipher: %w", err)
	}

	// Initialize crypto network client
	clientFactory := blockchain.NewClientFactory(cfg.Blockchain.Confirmations)
	evmClient, err := clientFactory.GetEVMClient(cfg.Blockchain.BaseSepoliaRPC)
	if err != nil {
		return fmt.Errorf("failed to initialize EVM client: %w", err)
	}

	// Initialize usecases
	webhookUsecase := usecases.NewWebhookUsecase(webhookRepo, deliveryRepo, eventRepo, cipher, cfg.Webhook)
	paymentUsecase := usecases.NewPaymentUsecase(paymentRepo, eventRepo, balanceTxRepo, merchantRepo, customerRepo, uow, webhookUsecase, evmClient, cipher, cfg.Fees)
	merchantUsecase := usecases.NewMerchantUsecase(merchantRepo)
	customerUsecase := usecases.NewCustomerUsecase(customerRepo)
	balanceUsecase := usecases.NewBalanceUsecase(balanceTxRepo)
	analyticsUsecase := usecases.NewAnalyticsUsecase(paymentRepo)
	eventUsecase := usecases.NewEventUsecase(eventRepo)
	apiKeyUsecase := usecases.NewApiKeyUsecase(apiKeyRepo)
	authUsecase := usecases.NewAuthUsecase(apiKeyUsecase, merchantRepo, jwtService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authUsecase)
	merchantHandler := handlers.NewMerchantHandler(merchantUsecase)
	paymentHandler := handlers.NewPaymentHandler(paymentUsecase)
	customerHandler := handlers.NewCustomerHandler(customerUsecase)
	balanceHandler := handlers.NewBalanceHandler(balanceUsecase)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsUsecase)
	webhookHandler := handlers.NewWebhookHandler(webhookUsecase, cfg.Webhook.InboundSecrets)
	eventHandler := handlers.NewEventHandler(eventUsecase)
	apiKeyHandler := handlers.NewApiKeyHandler(apiKeyUsecase)

	// Idempotency store
	idemStore := redis.NewIdempotencyStore(cfg.Idempotency.Retention)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcherJob := jobs.NewWebhookDispatcherJob(deliveryRepo, webhookRepo, eventRepo, webhookUsecase, cfg.Webhook)
	go dispatcherJob.Start(ctx)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		authHandler:      authHandler,
		merchantHandler:  merchantHandler,
		paymentHandler:   paymentHandler,
		customerHandler:  customerHandler,
		balanceHandler:   balanceHandler,
		analyticsHandler: analyticsHandler,
		webhookHandler:   webhookHandler,
		eventHandler:     eventHandler,
		apiKeyHandler:    apiKeyHandler,
		apiKeyAuth:       middleware.ApiKeyAuthMiddleware(apiKeyUsecase.ValidateKey),
		jwtAuth:          middleware.JWTAuthMiddleware(jwtService),
		idempotency:      middleware.IdempotencyMiddleware(idemStore),
		rateLimit:        middleware.RateLimitMiddleware(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window),
	})

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		dispatcherJob.Stop()
		cancel()
	}()

	// Start server
	log.Printf("🚀 Defiant Backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
