package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"campaign-quest-system/handlers"
	"campaign-quest-system/models"
	"campaign-quest-system/services"
	"campaign-quest-system/utils"
	"campaign-quest-system/workers"

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

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // covers + QR posters only
	})

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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Service-Token",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	services.InitJWT()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Rank{},
		&models.User{},
		&models.Competency{},
		&models.UserCompetency{},
		&models.Campaign{},
		&models.CampaignParticipant{},
		&models.Mission{},
		&models.MissionCompetencyReward{},
		&models.MissionURLDetail{},
		&models.MissionQuizDetail{},
		&models.QuizQuestion{},
		&models.QuizAnswerOption{},
		&models.MissionQRDetail{},
		&models.MissionCompletion{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.StoreItem{},
		&models.StorePurchase{},
		&models.Notification{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	userService := services.NewUserService(db)
	campaignService := services.NewCampaignService(db)
	settlementService := services.NewSettlementService(db)
	missionService := services.NewMissionService(db, settlementService)
	achievementService := services.NewAchievementService(db)
	storeService := services.NewStoreService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := workers.NewTelegramNotifier(db)
	go workers.PollNotifications(ctx, notifier, 5*time.Second)

	campaignService.StartLifecycleScheduler()

	handlers.SetupAuthRoutes(app, userService)
	handlers.SetupBotRoutes(app, userService, campaignService, missionService)
	handlers.SetupCampaignRoutes(app, campaignService, achievementService)
	handlers.SetupMissionRoutes(app, missionService, settlementService, achievementService)
	handlers.SetupStoreRoutes(app, storeService)

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":5300"
	}

	go func() {
		if err := app.Listen(listenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", listenAddr)
	log.Println("✅ Notification outbox worker running (every 5s)")
	log.Println("✅ Campaign lifecycle scheduler running (every 1m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
