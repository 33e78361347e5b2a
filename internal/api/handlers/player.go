package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/popmadice/backend/internal/store"
)

// GetPlayerStats returns a player's profile and aggregate game counters.
func GetPlayerStats(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		player, err := st.GetPlayer(c.Request.Context(), c.Param("id"))
		if err != nil {
			gameError(c, err)
			return
		}

		played := player.GamesWon + player.GamesLost + player.GamesDrawn
		winRate := 0.0
		if played > 0 {
			winRate = float64(player.GamesWon) / float64(played)
		}
		c.JSON(http.StatusOK, gin.H{
			"player":       player,
			"games_played": played,
			"win_rate":     winRate,
		})
	}
}

// GetPlayerResults returns a player's recent settlement records.
func GetPlayerResults(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}
		results, err := st.GetGameResults(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			gameError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

// GetLeaderboard returns the top players by total winnings.
func GetLeaderboard(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 10
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}
		players, err := st.Leaderboard(c.Request.Context(), limit)
		if err != nil {
			gameError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": players})
	}
}
