package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/givebridge-backend/internal/handlers"
	"github.com/yungbote/givebridge-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	CampaignHandler *handlers.CampaignHandler
	DonationHandler *handlers.DonationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	campaigns := router.Group("/campaigns")
	{
		campaigns.GET("", cfg.CampaignHandler.Browse)
		campaigns.GET("/active", cfg.CampaignHandler.ListActive)
		campaigns.GET("/featured", cfg.CampaignHandler.ListFeatured)
		campaigns.GET("/trending", cfg.CampaignHandler.ListTrending)
		campaigns.GET("/ending-soon", cfg.CampaignHandler.ListEndingSoon)
		campaigns.GET("/search", cfg.CampaignHandler.Search)
		campaigns.GET("/statistics", cfg.CampaignHandler.Statistics)
		campaigns.GET("/category/:category", cfg.CampaignHandler.ListByCategory)
		campaigns.GET("/slug/:slug", cfg.CampaignHandler.GetBySlug)
		campaigns.GET("/:id", cfg.CampaignHandler.GetByID)
		campaigns.GET("/:id/donations", cfg.DonationHandler.ListByCampaign)
	}
	router.GET("/donations/number/:number", cfg.DonationHandler.GetByNumber)
	router.GET("/payment/providers", cfg.DonationHandler.ListProviders)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Campaigns
	protected.POST("/campaigns", cfg.CampaignHandler.Create)
	protected.PUT("/campaigns/:id", cfg.CampaignHandler.Update)
	protected.DELETE("/campaigns/:id", cfg.CampaignHandler.Delete)
	protected.GET("/me/campaigns", cfg.CampaignHandler.ListMine)
	// Donations
	protected.POST("/donations", cfg.DonationHandler.Create)
	protected.GET("/donations/:id", cfg.DonationHandler.GetByID)
	protected.GET("/me/donations", cfg.DonationHandler.ListMine)
	protected.POST("/donations/:id/intent", cfg.DonationHandler.CreateIntent)
	protected.POST("/payment/verify", cfg.DonationHandler.VerifyPayment)

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
	admin.GET("/campaigns/status/:status", cfg.CampaignHandler.ListByStatus)
	admin.POST("/campaigns/:id/approve", cfg.CampaignHandler.Approve)
	admin.POST("/campaigns/:id/reject", cfg.CampaignHandler.Reject)
	admin.POST("/campaigns/bulk-status", cfg.CampaignHandler.BulkUpdateStatus)
	admin.POST("/donations/:id/refund", cfg.DonationHandler.Refund)

	return router
}
