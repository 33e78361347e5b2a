package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/popmadice/backend/internal/api/handlers"
	"github.com/popmadice/backend/internal/config"
	"github.com/popmadice/backend/internal/contract"
	"github.com/popmadice/backend/internal/middleware"
	"github.com/popmadice/backend/internal/store"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, st store.Store, claims *contract.Claims, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.WebSocketCORSCheck(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.POST("/auth/login", handlers.Login(st, cfg))

		// Live game events
		v1.GET("/ws", handlers.HandleGameWebSocket())

		// Public reads
		v1.GET("/queue/status", handlers.GetQueueStatus(cfg))
		v1.GET("/game/:id", handlers.GetGame(cfg))
		v1.GET("/leaderboard", handlers.GetLeaderboard(st))
		player := v1.Group("/player")
		{
			player.GET("/:id/stats", handlers.GetPlayerStats(st))
			player.GET("/:id/results", handlers.GetPlayerResults(st))
		}

		// Everything that moves money or mutates game state needs a session.
		auth := v1.Group("")
		auth.Use(middleware.PlayerAuth(cfg))
		{
			auth.POST("/queue/join", handlers.JoinQueue(cfg))
			auth.POST("/queue/leave", handlers.LeaveQueue(cfg))
			auth.POST("/game", handlers.CreateGame(cfg))
			auth.POST("/game/:id/roll", handlers.RollDice(cfg))
			auth.POST("/game/:id/cancel", handlers.CancelGame(cfg))
			auth.GET("/winnings/unclaimed", handlers.GetUnclaimedWinnings(claims))
			auth.POST("/winnings/claim", handlers.ClaimWinnings(claims))
		}
	}
}
