package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/popmadice/backend/internal/api"
	"github.com/popmadice/backend/internal/config"
	"github.com/popmadice/backend/internal/contract"
	"github.com/popmadice/backend/internal/database"
	"github.com/popmadice/backend/internal/game"
	"github.com/popmadice/backend/internal/migrations"
	"github.com/popmadice/backend/internal/redis"
	"github.com/popmadice/backend/internal/store"
	"github.com/popmadice/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Initialize the game engine with its collaborators
	st := store.NewPostgres(db)
	limits := game.BetLimits{Min: cfg.MinBet, Max: cfg.MaxBet}
	game.InitializeManager(st, limits,
		game.WithRedis(rdb),
		game.WithEvents(ws.NewRedisPublisher(rdb)),
		game.WithTolerance(cfg.MatchTolerancePercent),
		game.WithMaxRounds(cfg.MaxRounds),
		game.WithStaleAfter(time.Duration(cfg.QueueStaleSeconds)*time.Second),
	)

	// Initialize DiceGame chain client (if configured)
	chainClient := contract.NewClient(cfg)
	if chainClient != nil {
		contract.SetDefault(chainClient)
		log.Printf("[CLAIM] DiceGame chain client initialized (contract=%s)", cfg.DiceGameContract)
	} else {
		log.Printf("[CLAIM] DiceGame contract not configured - claims will use mock mode")
	}
	var claimer contract.Claimer
	if chainClient != nil {
		claimer = chainClient
	}
	claims := contract.NewClaims(st, claimer)

	// Wire Redis and start the game event subscriber in the WS layer
	ws.SetRedisClient(rdb)
	ws.StartGameEventSubscriber(context.Background())

	// Start stale queue cleanup worker
	go game.StartQueueCleanupWorker(context.Background(), game.Manager,
		time.Duration(cfg.QueueCleanupPollSeconds)*time.Second)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Initialize API handlers
	api.SetupRoutes(router, st, claims, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting PopMaDice server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
