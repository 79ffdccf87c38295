package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"game-rewards-engine/config"
	"game-rewards-engine/handlers"
	"game-rewards-engine/middleware"
	"game-rewards-engine/models"
	"game-rewards-engine/services"
	"game-rewards-engine/utils"
	"game-rewards-engine/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // move logs stay small
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// 🔐❗ GLOBAL: Only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	allowedOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger := services.NewLedgerService(db, cfg.DailyPointsCap, cfg.DayLocation)
	cooldowns := services.NewCooldownGate(db, cfg.Cooldowns)
	sessions := services.NewSessionService(db, ledger, cooldowns, services.NewSeedService(cfg.SeedSecret))
	sessions.SpinCost = cfg.SlotsSpinCost
	sessions.Grace = cfg.SessionGrace

	if cfg.R2.Enabled() {
		store, err := utils.NewR2Store(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		archive := services.NewMoveLogArchive(store, 256)
		archive.Start(4)
		defer archive.Close()
		sessions.Archive = archive
		log.Printf("✅ Move logs archived to R2 bucket %s", cfg.R2.Bucket)
	} else {
		log.Println("⚠️  R2 credentials not set, move logs are not archived")
	}

	var quota services.QuotaCreditor
	if cfg.QuotaServiceURL != "" {
		quota = services.NewQuotaServiceClient(cfg.QuotaServiceURL, cfg.QuotaServiceToken)
	} else {
		log.Println("⚠️  QUOTA_SERVICE_URL not set, points exchange disabled")
	}
	exchanges := services.NewExchangeService(db, ledger, quota, cfg.QuotaPerPoint, cfg.ExchangeMinPoints)

	scheduler := services.NewMaintenanceScheduler(sessions, cooldowns)
	if err := scheduler.Start(); err != nil {
		log.Fatal("failed to start maintenance scheduler:", err)
	}
	defer scheduler.Stop()

	if quota != nil {
		go workers.PollExchanges(ctx, exchanges, cfg.ReconcileInterval)
	}

	handlers.SetupGameRoutes(app, sessions)
	handlers.SetupPointsRoutes(app, ledger, exchanges)
	handlers.SetupAdminRoutes(app, ledger, exchanges)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Daily cap %d points, day boundary in %s", cfg.DailyPointsCap, cfg.DayLocation)
	log.Println("✅ GatewayAuthMiddleware enforced globally, all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
