package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/RetailPe/retailpe-backend/database"
	"github.com/RetailPe/retailpe-backend/internal/bots"
	"github.com/RetailPe/retailpe-backend/internal/config"
	"github.com/RetailPe/retailpe-backend/internal/handlers"
	"github.com/RetailPe/retailpe-backend/internal/models"
	"github.com/RetailPe/retailpe-backend/internal/routes"
	"github.com/RetailPe/retailpe-backend/internal/services"
	"github.com/RetailPe/retailpe-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize storage
	var store storage.Store
	var db *gorm.DB

	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		db, err = database.Connect(cfg.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		log.Println("🔄 Running database migrations...")
		err = db.AutoMigrate(
			&models.User{},
			&models.Item{},
			&models.Sale{},
			&models.WhatsAppSession{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(db)
		log.Println("✅ Using PostgreSQL database storage")
	}

	// Outbound messaging: Cloud API by default, Twilio as alternative.
	inventoryMessenger, invoiceMessenger := buildMessengers(cfg)

	// Services
	sessionService := services.NewSessionService(store, time.Duration(cfg.SessionExpireHrs)*time.Hour)
	saleService := services.NewSaleService(store)
	pendingTracker := services.NewPendingTracker(store, saleService)

	sessionService.StartReaper(time.Hour)

	// Bot personas
	inventoryBot := bots.NewInventoryBot(store, sessionService, inventoryMessenger)
	invoiceBot := bots.NewInvoiceBot(sessionService, saleService, pendingTracker, invoiceMessenger)

	webhookHandler := handlers.NewWebhookHandler(cfg.WhatsAppVerifyToken, inventoryBot, invoiceBot)
	healthHandler := handlers.NewHealthHandler(cfg.AppVersion, db)

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName + " v" + cfg.AppVersion,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, routes.Deps{
		Store:     store,
		Sales:     saleService,
		Webhooks:  webhookHandler,
		Health:    healthHandler,
		SecretKey: cfg.SecretKey,
		DevMode:   cfg.Environment == "development",
	})

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping session reaper...")
		sessionService.StopReaper()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 RetailPe Backend starting on port %s", cfg.Port)
	log.Printf("📊 Storage: %s", storageType(cfg))
	log.Printf("🌍 Environment: %s", cfg.Environment)
	log.Printf("📱 WhatsApp provider: %s", cfg.WhatsAppProvider)
	log.Println("========================================")

	log.Fatal(app.Listen(":" + cfg.Port))
}

// buildMessengers picks the outbound provider. Missing credentials degrade to
// a logging no-op sender so local development works without secrets.
func buildMessengers(cfg *config.Config) (services.Messenger, services.Messenger) {
	if cfg.WhatsAppProvider == "twilio" {
		twilioService, err := services.NewTwilioService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
		if err != nil {
			log.Println("⚠️  Twilio credentials not found - outbound messages will only be logged")
			noop := services.NewLogMessenger()
			return noop, noop
		}
		log.Println("✅ Twilio service initialized")
		return twilioService, twilioService
	}

	client, err := services.NewWhatsAppClient(cfg.WhatsAppAPIBaseURL, cfg.WhatsAppAPIVersion, cfg.WhatsAppAccessToken)
	if err != nil {
		log.Println("⚠️  WhatsApp access token not found - outbound messages will only be logged")
		noop := services.NewLogMessenger()
		return noop, noop
	}
	log.Println("✅ WhatsApp Cloud API client initialized")
	return client.Messenger(cfg.WhatsAppPhoneIDInventory), client.Messenger(cfg.WhatsAppPhoneIDInvoice)
}

func storageType(cfg *config.Config) string {
	if cfg.UseMemoryStore {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
