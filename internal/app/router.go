// internal/app/router.go
package app

import (
	catalogHandler "skycover-agent/internal/handlers/catalog"
	notifyHandler "skycover-agent/internal/handlers/notification"
	purchaseHandler "skycover-agent/internal/handlers/purchase"
	sessionHandler "skycover-agent/internal/handlers/session"
	walletHandler "skycover-agent/internal/handlers/wallet"
	wsHandler "skycover-agent/internal/handlers/websocket"
	"skycover-agent/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	SessionHandler    *sessionHandler.SessionHandler
	WalletHandler     *walletHandler.WalletHandler
	PurchaseHandler   *purchaseHandler.PurchaseHandler
	CatalogHandler    *catalogHandler.CatalogHandler
	NotifHandler      *notifyHandler.NotificationHandler
	WSHandler         *wsHandler.WebSocketHandler
	SessionMiddleware *middleware.SessionMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Session ====================
	session := api.Group("/session")
	{
		session.POST("/login", h.SessionHandler.Login)
		session.POST("/logout", h.SessionHandler.Logout)
		session.GET("", h.SessionHandler.GetSession)
		session.POST("/validate", h.SessionHandler.Validate)
		session.POST("/activity", h.SessionHandler.Activity)
	}

	// ==================== Wallet ====================
	wallet := api.Group("/wallet")
	wallet.Use(h.SessionMiddleware.RequireSession(), h.SessionMiddleware.TouchActivity())
	{
		wallet.POST("/connect", h.WalletHandler.Connect)
		wallet.POST("/disconnect", h.WalletHandler.Disconnect)
		wallet.POST("/sync", h.WalletHandler.Sync)
		wallet.GET("", h.WalletHandler.GetBinding)
	}

	// ==================== Purchases ====================
	purchases := api.Group("/purchases")
	purchases.Use(h.SessionMiddleware.RequireSession(), h.SessionMiddleware.TouchActivity())
	{
		purchases.POST("", h.PurchaseHandler.CreatePurchase)
		purchases.GET("", h.PurchaseHandler.ListPurchases)
		purchases.GET("/unreconciled", h.PurchaseHandler.ListUnreconciled)
	}

	// ==================== Catalog ====================
	catalog := api.Group("")
	catalog.Use(h.SessionMiddleware.RequireSession(), h.SessionMiddleware.TouchActivity())
	{
		catalog.GET("/templates", h.CatalogHandler.ListTemplates)
		catalog.GET("/policies", h.CatalogHandler.ListPolicies)
	}

	// ==================== Notifications ====================
	notifications := api.Group("/notifications")
	{
		notifications.GET("/latest", h.NotifHandler.GetLatestNotifications)
	}
}
