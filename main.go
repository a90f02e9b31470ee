package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shoten/internal/handlers"
	"shoten/internal/middleware"
	"shoten/internal/models"
	"shoten/internal/repositories"
	"shoten/internal/services"
	"shoten/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("SQLITE_PATH", "shoten.db")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("JWT_SECRET", "change-me")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	databaseURL := viper.GetString("DATABASE_URL")
	sqlitePath := viper.GetString("SQLITE_PATH")
	rabbitMQURL := viper.GetString("RABBITMQ_URL")
	jwtSecret := viper.GetString("JWT_SECRET")

	// --- Database ---
	db, err := openDatabase(databaseURL, sqlitePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ (optional; events are skipped when no URL is configured) ---
	var mqClient *rabbitmq.Client
	if rabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL not set, order events disabled")
	}
	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}

	// --- Initialize Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	txManager := repositories.NewGORMTxManager(db)

	seedProducts(productRepo)

	// --- Initialize Services ---
	authService := services.NewAuthService(userRepo, jwtSecret)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(txManager, cartRepo, productRepo)
	orderService := services.NewOrderService(txManager, orderRepo, productRepo, events)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// --- Initialize Fiber App ---
	app := fiber.New()
	app.Use(logger.New()) // Request logger

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Public routes: authentication and the catalog read side
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterPublicRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	cartHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)

	// Catalog management (admin only)
	adminRoutes := apiV1.Group("", middleware.AuthRequired(authService), middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(adminRoutes)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start RabbitMQ Consumer ---
	if mqClient != nil {
		log.Println("Starting RabbitMQ consumer for order events...")
		messageHandler := func(msg amqp.Delivery) error {
			log.Printf("Received order event %s: %s", msg.RoutingKey, string(msg.Body))
			// Downstream processing (notification dispatch, reporting) hooks in here.
			return nil
		}
		if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
		}
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openDatabase connects to PostgreSQL when DATABASE_URL is set and falls
// back to a local SQLite file otherwise. TranslateError makes both drivers
// report uniqueness violations as gorm.ErrDuplicatedKey, which the
// repositories classify into a typed duplicate-key outcome.
func openDatabase(databaseURL, sqlitePath string) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	if databaseURL != "" {
		return gorm.Open(postgres.Open(databaseURL), cfg)
	}
	log.Printf("DATABASE_URL not set, using SQLite at %s", sqlitePath)
	return gorm.Open(sqlite.Open(sqlitePath), cfg)
}

// migrate runs the schema migration plus the partial unique index enforcing
// at most one active cart per user. Both PostgreSQL and SQLite support
// partial indexes, so the invariant holds at the storage level on either
// backend.
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return err
	}
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user_active ON carts(user_id) WHERE status = 'active'`,
	).Error
}

// seedProducts populates the catalog with a few products for local runs.
func seedProducts(repo repositories.ProductRepository) {
	products := []models.Product{
		{
			ID:    "6f1f39f4-8b44-4f6b-9a94-54b2b2c0a101",
			Name:  "Laptop 14in",
			SKU:   "LT-1400",
			Brand: "Reburn",
			Price: decimal.NewFromInt(128000),
			Stock: 10,
		},
		{
			ID:    "6f1f39f4-8b44-4f6b-9a94-54b2b2c0a102",
			Name:  "Mechanical Keyboard",
			SKU:   "KB-0087",
			Brand: "Reburn",
			Price: decimal.NewFromInt(7500),
			Stock: 25,
		},
		{
			ID:    "6f1f39f4-8b44-4f6b-9a94-54b2b2c0a103",
			Name:  "Wireless Mouse",
			SKU:   "MS-0031",
			Brand: "Reburn",
			Price: decimal.NewFromInt(2500),
			Stock: 50,
		},
	}

	for i := range products {
		if _, err := repo.GetByID(products[i].ID); err == nil {
			continue // already seeded
		}
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		}
	}
}
