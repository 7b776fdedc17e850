package router

import (
	"net/http"

	"loyalty/config"
	"loyalty/internal/handler"
	"loyalty/internal/middleware"
	"loyalty/internal/service"
	"loyalty/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(cfg *config.Config, app *service.App, limiter *middleware.KeyedRateLimiter) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Handlers
	authHandler := handler.NewAuthHandler(app.Registration, &cfg.JWT)
	meHandler := handler.NewMeHandler(app.Store, app.Purchases)
	referralHandler := handler.NewReferralHandler(app.Store)
	notificationHandler := handler.NewNotificationHandler(app.Store.Notifications)
	adminHandler := handler.NewAdminHandler(app)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter))
	}
	{
		api.POST("/auth/register", authHandler.Register)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", meHandler.GetProfile)
			me.GET("/wallet", meHandler.GetWallet)
			me.GET("/community-points", meHandler.GetCommunityPoints)
			me.GET("/cp-transactions", meHandler.GetCpTransactions)
			me.GET("/unlock-history", meHandler.GetUnlockHistory)
			me.GET("/point-transactions", meHandler.GetPointTransactions)
			me.GET("/referrals", referralHandler.GetMyReferrals)
			me.GET("/referral-code", referralHandler.GetMyReferralCode)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.POST("/fcm-token", meHandler.RegisterFCMToken)
			me.GET("/purchases", meHandler.ListPurchases)
			me.POST("/purchases", meHandler.CreatePurchase)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/analytics", adminHandler.Analytics)
			admin.GET("/members", adminHandler.ListMembers)
			admin.POST("/members/:id/unlock", adminHandler.UnlockMember)
			admin.GET("/levels", adminHandler.GetLevels)
			admin.PUT("/levels", adminHandler.ReplaceLevels)
			admin.GET("/cp-transactions", adminHandler.ListCpTransactions)
			admin.GET("/unlock-history", adminHandler.ListUnlockHistory)
			admin.GET("/reserve", adminHandler.GetReserve)
			admin.GET("/purchases", adminHandler.ListPurchases)
			admin.POST("/purchases/:id/approve", adminHandler.ApprovePurchase)
			admin.POST("/purchases/:id/reject", adminHandler.RejectPurchase)
			admin.POST("/sweep", adminHandler.Sweep)
			admin.GET("/settings", adminHandler.ListSettings)
			admin.GET("/settings/purchase-split", adminHandler.GetPurchaseSplit)
			admin.PUT("/settings/purchase-split", adminHandler.SetPurchaseSplit)
		}
	}

	r.GET("/ws/notifications", ws.UpgradeNotificationsWS(&cfg.JWT, app.Hub))

	return r
}
