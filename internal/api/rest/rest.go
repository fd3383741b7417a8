package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-marketplace/internal/api/middleware"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/ratelimit"
	"github.com/feral-file/ff-marketplace/internal/signature"
)

// SetupMarketplaceRoutes configures the marketplace REST routes.
// Signed requests are authenticated as signedAs.
func SetupMarketplaceRoutes(router *gin.Engine, handler MarketplaceHandler, authCfg middleware.AuthConfig, verifier *signature.Signer, signedAs domain.Principal) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Public read access
		v1.GET("/tokens/:id", handler.GetToken)
		v1.GET("/tokens/:id/owner", handler.GetOwner)
		v1.GET("/owners/:principal/tokens", handler.GetOwnerTokens)
		v1.GET("/listings", handler.ListListings)
		v1.GET("/listings/:id", handler.GetListing)
		v1.GET("/stats", handler.GetStats)
		v1.GET("/supply", handler.GetSupply)
		v1.GET("/config", handler.GetConfig)
		v1.GET("/ledger/records", handler.ListRecords)
		v1.GET("/ledger/records/:index", handler.GetRecord)
		v1.GET("/ledger/tokens/:id", handler.GetTokenHistory)
		v1.GET("/payments", handler.ListPayments)

		// Token holders (JWT)
		auth := middleware.Auth(authCfg)
		v1.POST("/tokens/:id/transfer", auth, handler.TransferToken)
		v1.POST("/tokens/:id/burn", auth, handler.BurnToken)
		v1.POST("/listings", auth, handler.CreateListing)
		v1.DELETE("/listings/:id", auth, handler.DeleteListing)

		// Settlement notifier (signed)
		v1.POST("/transaction-notification", middleware.Signed(verifier, signedAs), handler.TransactionNotification)

		// Admin (API key)
		admin := v1.Group("/admin", middleware.APIKeyAuth(authCfg))
		admin.POST("/tokens", handler.MintToken)
		admin.PUT("/config", handler.UpdateConfig)
	}
}

// SetupSettlementRoutes configures the settlement proxy REST routes
func SetupSettlementRoutes(router *gin.Engine, handler SettlementHandler, authCfg middleware.AuthConfig, limiter ratelimit.Limiter) {
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Depositors (JWT, rate limited per caller)
		v1.POST("/notify", middleware.Auth(authCfg), middleware.RateLimit(limiter), handler.Notify)

		// Public read access
		v1.GET("/processed", handler.ListProcessed)
		v1.GET("/processed/:height", handler.GetProcessed)
		v1.GET("/payments", handler.ListPayments)
		v1.GET("/notifications", handler.ListNotifications)
		v1.GET("/status", handler.GetStatus)
		v1.GET("/market-fee", handler.GetMarketFee)

		// Admin (API key)
		admin := v1.Group("/admin", middleware.APIKeyAuth(authCfg))
		admin.PUT("/config", handler.UpdateConfig)
	}
}
