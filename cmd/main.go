package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/givebridge-backend/internal/clients/redis"
	"github.com/yungbote/givebridge-backend/internal/clients/sendgrid"
	"github.com/yungbote/givebridge-backend/internal/config"
	"github.com/yungbote/givebridge-backend/internal/db"
	"github.com/yungbote/givebridge-backend/internal/handlers"
	"github.com/yungbote/givebridge-backend/internal/logger"
	"github.com/yungbote/givebridge-backend/internal/middleware"
	"github.com/yungbote/givebridge-backend/internal/observability"
	"github.com/yungbote/givebridge-backend/internal/payment"
	"github.com/yungbote/givebridge-backend/internal/repos"
	"github.com/yungbote/givebridge-backend/internal/server"
	"github.com/yungbote/givebridge-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "givebridge",
		Environment: logMode,
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Cache
	log.Info("Setting up cache from main...")
	var cache redis.Cache
	if cfg.Cache.RedisAddr != "" {
		cache, err = redis.NewCache(log, cfg.Cache.RedisAddr)
		if err != nil {
			log.Warn("Redis init failed, falling back to in-memory cache", "error", err)
			cache = redis.NewMemoryCache()
		}
	} else {
		cache = redis.NewMemoryCache()
	}
	defer cache.Close()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	campaignRepo := repos.NewCachedCampaignRepo(repos.NewCampaignRepo(thePG, log), cache, cfg.CacheTTL(), log)
	donationRepo := repos.NewCachedDonationRepo(repos.NewDonationRepo(thePG, log), cache, cfg.CacheTTL(), log)

	// Payment providers
	log.Info("Setting up payment providers from main...")
	registry := payment.NewRegistry()
	if cfg.Payment.Mock.Enabled {
		registry.Register(payment.NewMockProvider(log))
	}
	if cfg.Payment.Stripe.Enabled {
		stripeProvider, serr := payment.NewStripeProvider(log, cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.PublishableKey)
		if serr != nil {
			log.Warn("Stripe provider init failed", "error", serr)
		} else {
			registry.Register(stripeProvider)
		}
	}
	registry.SetDefault(cfg.Payment.DefaultProvider)

	// Mail
	var mailClient sendgrid.Client
	if cfg.Sendgrid.APIKey != "" {
		mailClient, err = sendgrid.New(log, sendgrid.ConfigFromEnv(log))
		if err != nil {
			log.Warn("Sendgrid init failed, notifications disabled", "error", err)
		}
	}
	notifier := services.NewEmailNotifier(log, mailClient)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(log, cfg, userRepo)
	campaignService := services.NewCampaignService(thePG, log, campaignRepo, userRepo, notifier)
	donationService := services.NewDonationService(thePG, log, registry, donationRepo, campaignRepo, userRepo, notifier)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	campaignHandler := handlers.NewCampaignHandler(campaignService)
	donationHandler := handlers.NewDonationHandler(donationService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		CampaignHandler: campaignHandler,
		DonationHandler: donationHandler,
	})

	fmt.Printf("Server listening on :%s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
