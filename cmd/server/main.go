package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"payportal.backend/internal/config"
	"payportal.backend/internal/infrastructure/jobs"
	"payportal.backend/internal/infrastructure/models"
	"payportal.backend/internal/infrastructure/repositories"
	"payportal.backend/internal/infrastructure/settlement"
	"payportal.backend/internal/interfaces/http/handlers"
	"payportal.backend/internal/interfaces/http/middleware"
	"payportal.backend/internal/usecases"
	"payportal.backend/pkg/crypto"
	"payportal.backend/pkg/jwt"
	"payportal.backend/pkg/logger"
	"payportal.backend/pkg/metrics"
	"payportal.backend/pkg/rabbitmq"
	"payportal.backend/pkg/ratelimit"
	"payportal.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DriverName:           "postgres",
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{})
	}
	newProducer = func(url, exchange string) (rabbitmq.Publisher, error) {
		return rabbitmq.NewEventProducer(url, exchange)
	}
	runServer = serveHTTP
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Redis.Enabled() {
		if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer redis.Close()
		logger.Info(ctx, "Redis initialized")
	} else {
		logger.Warn(ctx, "REDIS_URL not set; rate limiting is per instance and logout does not revoke tokens")
	}

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Warn(ctx, "Database not available; endpoints will return errors", zap.Error(err))
	} else if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info(ctx, "Database schema migrated")
	}

	publisher := rabbitmq.Publisher(rabbitmq.FallbackProducer{})
	if cfg.RabbitMQ.URL != "" {
		p, err := newProducer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn(ctx, "RabbitMQ unavailable; settlement events will not be published", zap.Error(err))
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	m := metrics.New()
	app := buildApp(cfg, db, publisher, m)

	backlogJob := jobs.NewPaymentBacklogJob(app.paymentRepo, m, cfg.Jobs.BacklogInterval)
	go backlogJob.Start(ctx)
	defer backlogJob.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(cfg, app.routes, m),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info(ctx, "PayPortal backend starting",
		zap.String("port", cfg.Server.Port), zap.Bool("tls", cfg.Server.TLSEnabled()))
	if err := runServer(ctx, srv, cfg.Server); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info(context.Background(), "Server stopped")
	return nil
}

type app struct {
	paymentRepo *repositories.PaymentRepository
	routes      routeDeps
}

func buildApp(cfg *config.Config, db *gorm.DB, publisher rabbitmq.Publisher, m *metrics.Metrics) *app {
	userRepo := repositories.NewUserRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	paymentEventRepo := repositories.NewPaymentEventRepository(db)
	uow := repositories.NewUnitOfWork(db)

	hasher := crypto.NewHasher(cfg.Security.BcryptCost)
	fingerprints := crypto.NewFingerprinter(cfg.Security.IdentityPepper)
	jwtService := jwt.NewJWTService(cfg.Session.Secret, cfg.Session.TTL)

	limiterCfg := ratelimit.Config{MaxAttempts: cfg.RateLimit.MaxAttempts, Window: cfg.RateLimit.Window}
	var (
		limiter     ratelimit.Limiter = ratelimit.NewMemoryLimiter(limiterCfg)
		revoker     usecases.TokenRevoker
		revocations middleware.RevocationChecker
	)
	var idempotency gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.Redis.Enabled() {
		limiter = ratelimit.NewRedisLimiter(redis.GetClient(), limiterCfg)
		store := redis.NewRevocationStore()
		revoker, revocations = store, store
		idempotency = middleware.IdempotencyMiddleware(cfg.Session.IdempotencyTTL)
	}

	authUsecase := usecases.NewAuthUsecase(userRepo, uow, hasher, fingerprints, jwtService, revoker, m)
	paymentUsecase := usecases.NewPaymentUsecase(paymentRepo, paymentEventRepo, uow, hasher, settlement.NewGateway(publisher), m)

	sameSite := http.SameSiteLaxMode
	if cfg.Server.IsProduction() {
		sameSite = http.SameSiteStrictMode
	}
	csrfOpts := middleware.CSRFOptions{
		Secure:   cfg.Session.SecureCookies,
		SameSite: sameSite,
		MaxAge:   cfg.Session.CSRFCookieTTL,
		Metrics:  m,
	}

	return &app{
		paymentRepo: paymentRepo,
		routes: routeDeps{
			authHandler: handlers.NewAuthHandler(authUsecase, handlers.SessionCookieOptions{
				Secure: cfg.Session.SecureCookies,
				TTL:    cfg.Session.TTL,
				CSRF:   csrfOpts,
			}),
			paymentHandler:  handlers.NewPaymentHandler(paymentUsecase),
			employeeHandler: handlers.NewEmployeeHandler(paymentUsecase),
			session: middleware.SessionAuth(jwtService, middleware.SessionOptions{
				AllowBearer: cfg.Session.AllowBearer,
				Revocations: revocations,
			}),
			csrf:            csrfOpts,
			loginLimiter:    middleware.RateLimit(limiter, "login", m),
			registerLimiter: middleware.RateLimit(limiter, "register", m),
			idempotency:     idempotency,
		},
	}
}

// serveHTTP runs srv until ctx is cancelled, then drains in-flight requests.
func serveHTTP(ctx context.Context, srv *http.Server, cfg config.ServerConfig) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
