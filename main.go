package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"micro-missions/handlers"
	"micro-missions/middleware"
	"micro-missions/models"
	"micro-missions/services"
	"micro-missions/utils"
	"micro-missions/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	var cache services.MissionCache
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisMissionCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Mission cache disabled: %v", err)
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	gateway := services.NewMissionGateway(db, services.GatewayConfig{
		BonusCoins:      cfg.BonusCoinsAllMissions,
		EnforceHardLock: cfg.EnforceHardLock,
		Fitness:         services.NewGoogleFitClient(cfg.FitnessAPIBaseURL, cfg.VerificationTimeout),
		Cache:           cache,
	})
	if err := gateway.Badges.SeedBadgeTypes(ctx); err != nil {
		log.Fatal("failed to seed badge types:", err)
	}

	var uploader handlers.ProofUploader
	if cfg.R2.Enabled() {
		store, err := utils.NewR2ProofStore(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		uploader = store
	} else {
		log.Println("⚠️  R2 not configured, screenshot uploads disabled")
	}

	scheduler, err := workers.NewMissionScheduler(ctx, gateway, cfg.SeedDailyMissions)
	if err != nil {
		log.Fatal("failed to create scheduler:", err)
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		BodyLimit: 8 * 1024 * 1024, // base64 screenshots
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID, X-User-Roles",
		MaxAge:       86400,
	}))

	// 🔐 Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken))

	handlers.SetupHealthRoutes(app)
	handlers.SetupMissionRoutes(app, gateway, uploader)
	handlers.SetupRewardRoutes(app, gateway.Wallets)
	handlers.SetupStreakRoutes(app, gateway.Streaks, gateway.Badges)
	handlers.SetupAdminRoutes(app, gateway)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Mission service running on http://localhost:%s", cfg.Port)
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := scheduler.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
