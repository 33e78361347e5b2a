package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/popmadice/backend/internal/contract"
)

// GetUnclaimedWinnings lists the caller's payouts not yet claimed on chain.
func GetUnclaimedWinnings(claims *contract.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, _ := playerFromContext(c)
		unclaimed, err := claims.Unclaimed(c.Request.Context(), playerID)
		if err != nil {
			gameError(c, err)
			return
		}
		if unclaimed == nil {
			unclaimed = []contract.UnclaimedWinning{}
		}
		c.JSON(http.StatusOK, gin.H{"unclaimed": unclaimed})
	}
}

// ClaimWinnings submits the claim for one game's payout.
func ClaimWinnings(claims *contract.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			GameID string `json:"game_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "game_id required"})
			return
		}

		playerID, wallet := playerFromContext(c)
		receipt, err := claims.Claim(c.Request.Context(), req.GameID, playerID, wallet)
		if err != nil {
			gameError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"claim": receipt})
	}
}
