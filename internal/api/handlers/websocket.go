package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/popmadice/backend/internal/ws"
)

// HandleGameWebSocket upgrades the connection and subscribes the client to
// live game events. player_id is required; game_id joins that game's room.
func HandleGameWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.Query("player_id")
		if playerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id required"})
			return
		}
		ws.ServeWS(c.Writer, c.Request, playerID, c.Query("game_id"))
	}
}
