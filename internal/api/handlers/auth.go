package handlers

import (
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/popmadice/backend/internal/config"
	"github.com/popmadice/backend/internal/store"
)

var walletPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Login authenticates by wallet address and issues a session JWT. The wallet
// is the identity: the first login creates the player record.
func Login(st store.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WalletAddress string `json:"wallet_address" binding:"required"`
			Username      string `json:"username,omitempty"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "wallet_address required"})
			return
		}

		address := strings.ToLower(strings.TrimSpace(req.WalletAddress))
		if !walletPattern.MatchString(address) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
			return
		}
		username := strings.TrimSpace(req.Username)
		if len(username) > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
			return
		}

		// Player id is the lowercased wallet address.
		player, err := store.EnsurePlayer(c.Request.Context(), st, address, address, username)
		if err != nil {
			log.Printf("[ERROR] Login - failed to upsert player %s: %v", address, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process player"})
			return
		}

		exp := time.Now().Add(time.Duration(cfg.SessionTimeoutMin) * time.Minute)
		claims := jwt.MapClaims{
			"player_id":      player.ID,
			"wallet_address": player.WalletAddress,
			"exp":            exp.Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Printf("[ERROR] Login - failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": signed, "player": player})
	}
}
