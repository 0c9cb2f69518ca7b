package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quiz-progression-system/handlers"
	"quiz-progression-system/middleware"
	"quiz-progression-system/models"
	"quiz-progression-system/services"
	"quiz-progression-system/store"
	"quiz-progression-system/utils"
	"quiz-progression-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // payment proofs arrive as base64 data URLs
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	if err := models.DefaultTierTable.Validate(); err != nil {
		log.Fatal("invalid tier table:", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	rootAdminID := os.Getenv("ROOT_ADMIN_ID")
	if rootAdminID == "" {
		log.Fatal("ROOT_ADMIN_ID environment variable not set")
	}

	if os.Getenv("CLOUDFLARE_ACCOUNT_ID") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		log.Println("✅ R2 proof storage configured")
	} else {
		log.Println("⚠️  R2 not configured, payment proofs stored in ./uploads")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Player{},
		&models.PaymentRequest{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	playerStore := store.NewPlayerStore(db)
	paymentStore := store.NewPaymentStore(db)

	var cache services.LeaderboardCache
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb, err := store.NewRedisClient(redisAddr)
		if err != nil {
			log.Fatal("failed to connect to redis:", err)
		}
		cache = store.NewLeaderboardCache(rdb, 2*time.Minute)
		log.Println("✅ Redis leaderboard cache configured")
	} else {
		log.Println("⚠️  REDIS_ADDR not set, leaderboard served from database")
	}

	var notifier services.Notifier = services.NopNotifier{}
	gatewayURL := os.Getenv("GATEWAY_URL")
	serviceToken := os.Getenv("QUIZ_SERVICE_TOKEN")
	if gatewayURL != "" && serviceToken != "" {
		notifier = services.NewGatewayNotifier(gatewayURL, serviceToken)
		log.Println("✅ Gateway notifier configured")
	} else {
		log.Println("⚠️  GATEWAY_URL / QUIZ_SERVICE_TOKEN not set, notifications disabled")
	}

	clock := clockwork.NewRealClock()
	locks := services.NewPlayerLocks()
	table := models.DefaultTierTable

	rankEngine := services.NewRankEngine(table)
	playerService := services.NewPlayerService(playerStore, cache, table, locks)
	referralService := services.NewReferralService(playerService, playerStore, table, notifier, locks, clock)
	settlementService := services.NewSettlementService(playerService, playerStore, rankEngine, referralService, notifier, locks, clock)
	adminService := services.NewAdminService(playerStore, paymentStore, table, notifier, locks, rootAdminID)
	paymentService := services.NewPaymentService(playerService, playerStore, paymentStore, adminService, table, notifier, locks, clock, rootAdminID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cache != nil {
		leaderboardWorker := workers.NewLeaderboardSyncWorker(playerStore, cache, 30*time.Second)
		leaderboardWorker.Start(ctx)
	}

	if gatewayURL != "" && serviceToken != "" {
		profileWorker := workers.NewProfileSyncWorker(db, gatewayURL, "/api/v1/public/profiles", serviceToken)
		profileWorker.Start(ctx)
	}

	paymentService.StartReminderScheduler(1*time.Hour, 6*time.Hour)

	handlers.SetupPlayerRoutes(app, playerService, settlementService, referralService)
	handlers.SetupPaymentRoutes(app, paymentService, serviceToken)
	handlers.SetupAdminRoutes(app, adminService, playerService, referralService)

	app.Static("/uploads", "./uploads")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
