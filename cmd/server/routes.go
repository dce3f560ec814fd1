package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"payportal.backend/internal/config"
	"payportal.backend/internal/domain/entities"
	"payportal.backend/internal/interfaces/http/handlers"
	"payportal.backend/internal/interfaces/http/middleware"
	"payportal.backend/pkg/logger"
	"payportal.backend/pkg/metrics"
)

type routeDeps struct {
	authHandler     *handlers.AuthHandler
	paymentHandler  *handlers.PaymentHandler
	employeeHandler *handlers.EmployeeHandler
	session         gin.HandlerFunc
	csrf            middleware.CSRFOptions
	loginLimiter    gin.HandlerFunc
	registerLimiter gin.HandlerFunc
	idempotency     gin.HandlerFunc
}

func newRouter(cfg *config.Config, d routeDeps, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Warn(context.Background(), "Ignoring invalid TRUSTED_PROXIES", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware("/health", "/metrics"))
	r.Use(middleware.MetricsMiddleware(m))
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))
	applyCORSMiddleware(r, cfg.Server.AllowedOrigins)
	r.Use(middleware.RequireHTTPS(cfg.Security.RequireHTTPS, cfg.Server.TrustedProxies))

	registerHealthRoute(r)
	r.GET("/metrics", gin.WrapH(m.Handler()))
	registerAPIRoutes(r, d)
	return r
}

func registerAPIRoutes(r *gin.Engine, d routeDeps) {
	validateCSRF := middleware.ValidateCSRF(d.csrf)

	api := r.Group("/api")
	api.Use(middleware.IssueCSRFToken(d.csrf))
	{
		api.GET("/csrf-token", handlers.CSRFToken)

		// credential endpoints
		api.POST("/register", d.registerLimiter, d.authHandler.Register)
		api.POST("/login", d.loginLimiter, validateCSRF, d.authHandler.Login)
		api.POST("/logout", d.session, d.authHandler.Logout)
		api.GET("/me", d.session, d.authHandler.Me)

		api.GET("/pastPayments",
			d.session,
			middleware.RequireCapability(entities.CapabilityListOwnPayments),
			d.paymentHandler.ListPayments)
		api.POST("/createPayment",
			d.session,
			validateCSRF,
			middleware.RequireCapability(entities.CapabilityCreatePayment),
			d.idempotency,
			d.paymentHandler.CreatePayment)
	}

	employee := api.Group("/employee")
	employee.Use(d.session)
	{
		employee.GET("/pending-payments", middleware.RequireCapability(entities.CapabilityListAllPayments), d.employeeHandler.ListPending)
		employee.GET("/submitted-payments", middleware.RequireCapability(entities.CapabilityListAllPayments), d.employeeHandler.ListSubmitted)
		employee.POST("/verify-swift/:id", validateCSRF, middleware.RequireCapability(entities.CapabilityVerifyPayment), d.employeeHandler.VerifySwift)
		employee.POST("/submit-swift/:id", validateCSRF, middleware.RequireCapability(entities.CapabilitySubmitPayment), d.employeeHandler.SubmitSwift)
		employee.GET("/payments/:id/events", middleware.RequireCapability(entities.CapabilityAuditPayment), d.employeeHandler.Events)
	}
}
