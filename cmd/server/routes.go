package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"defiant.backend/internal/interfaces/http/handlers"
	"defiant.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	authHandler      *handlers.AuthHandler
	merchantHandler  *handlers.MerchantHandler
	paymentHandler   *handlers.PaymentHandler
	customerHandler  *handlers.CustomerHandler
	balanceHandler   *handlers.BalanceHandler
	analyticsHandler *handlers.AnalyticsHandler
	webhookHandler   *handlers.WebhookHandler
	eventHandler     *handlers.EventHandler
	apiKeyHandler    *handlers.ApiKeyHandler

	apiKeyAuth  gin.HandlerFunc
	jwtAuth     gin.HandlerFunc
	idempotency gin.HandlerFunc
	rateLimit   gin.HandlerFunc
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", d.authHandler.Login)
			auth.POST("/refresh", d.authHandler.Refresh)
		}

		// Merchant signup (public)
		v1.POST("/merchants", d.merchantHandler.CreateMerchant)

		// Inbound webhooks from external providers (signature authenticated)
		v1.POST("/webhooks/inbound/:provider", d.webhookHandler.ProcessInbound)

		// Payment routes (API key protected)
		payments := v1.Group("/payments")
		payments.Use(d.apiKeyAuth, d.rateLimit)
		{
			payments.POST("", middleware.RequireWrite(), d.idempotency, d.paymentHandler.CreatePayment)
			payments.GET("", d.paymentHandler.ListPayments)
			payments.GET("/:id", d.paymentHandler.GetPayment)
			payments.POST("/:id/confirm", middleware.RequireWrite(), d.idempotency, d.paymentHandler.ConfirmPayment)
			payments.POST("/:id/capture", middleware.RequireWrite(), d.idempotency, d.paymentHandler.CapturePayment)
			payments.POST("/:id/refund", middleware.RequireWrite(), d.idempotency, d.paymentHandler.RefundPayment)
			payments.POST("/:id/cancel", middleware.RequireWrite(), d.idempotency, d.paymentHandler.CancelPayment)
			payments.POST("/:id/dispute", middleware.RequireWrite(), d.idempotency, d.paymentHandler.DisputePayment)
		}

		// Customer routes (API key protected)
		customers := v1.Group("/customers")
		customers.Use(d.apiKeyAuth, d.rateLimit)
		{
			customers.POST("", middleware.RequireWrite(), d.customerHandler.CreateCustomer)
			customers.GET("", d.customerHandler.ListCustomers)
			customers.GET("/:id", d.customerHandler.GetCustomer)
			customers.PATCH("/:id", middleware.RequireWrite(), d.customerHandler.UpdateCustomer)
		}

		// Balance routes (API key protected, read only)
		balance := v1.Group("/balance")
		balance.Use(d.apiKeyAuth, d.rateLimit)
		{
			balance.GET("", d.balanceHandler.GetBalance)
			balance.GET("/transactions", d.balanceHandler.ListTransactions)
		}

		// Analytics routes (API key protected, read only)
		analytics := v1.Group("/analytics")
		analytics.Use(d.apiKeyAuth, d.rateLimit)
		{
			analytics.GET("/summary", d.analyticsHandler.GetSummary)
		}

		// Webhook endpoint management (API key protected)
		webhooks := v1.Group("/webhooks")
		webhooks.Use(d.apiKeyAuth, d.rateLimit)
		{
			webhooks.POST("", middleware.RequireWrite(), d.webhookHandler.CreateWebhook)
			webhooks.GET("", d.webhookHandler.ListWebhooks)
			webhooks.GET("/:id", d.webhookHandler.GetWebhook)
			webhooks.PATCH("/:id", middleware.RequireWrite(), d.webhookHandler.UpdateWebhook)
			webhooks.DELETE("/:id", middleware.RequireWrite(), d.webhookHandler.DeleteWebhook)
		}

		// Event routes (API key protected)
		events := v1.Group("/events")
		events.Use(d.apiKeyAuth, d.rateLimit)
		{
			events.GET("", d.eventHandler.ListEvents)
			events.GET("/stream", d.eventHandler.StreamEvents)
			events.GET("/:id", d.eventHandler.GetEvent)
		}

		// Dashboard routes (JWT session protected)
		dashboard := v1.Group("/dashboard")
		dashboard.Use(d.jwtAuth)
		{
			dashboard.GET("/merchants/me", d.merchantHandler.GetCurrentMerchant)
			dashboard.POST("/merchants/me/allow-large-payments", d.merchantHandler.SetAllowLargePayments)

			dashboard.POST("/api-keys", d.apiKeyHandler.CreateApiKey)
			dashboard.GET("/api-keys", d.apiKeyHandler.ListApiKeys)
			dashboard.DELETE("/api-keys/:id", d.apiKeyHandler.RevokeApiKey)
		}
	}
}
