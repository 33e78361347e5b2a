package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/popmadice/backend/internal/config"
	"github.com/popmadice/backend/internal/currency"
	"github.com/popmadice/backend/internal/game"
)

// playerFromContext reads the identity the auth middleware attached.
func playerFromContext(c *gin.Context) (id, wallet string) {
	id = c.GetString("player_id")
	wallet = c.GetString("wallet_address")
	return
}

// gameError translates engine sentinels into HTTP responses.
func gameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
	case errors.Is(err, game.ErrInvalidBet):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrAlreadyQueued):
		c.JSON(http.StatusConflict, gin.H{"error": "player already in queue"})
	case errors.Is(err, game.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrNoWinnings):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no winnings to claim"})
	default:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// JoinQueue puts the player into matchmaking. An immediate match returns the
// created session; otherwise the player waits in the queue.
func JoinQueue(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BetAmount string `json:"bet_amount" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bet_amount required"})
			return
		}
		bet, err := currency.Parse(req.BetAmount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bet_amount"})
			return
		}

		playerID, wallet := playerFromContext(c)
		session, err := game.Manager.JoinQueue(c.Request.Context(), playerID, wallet, bet, game.ModePvP)
		if err != nil {
			gameError(c, err)
			return
		}

		if session != nil {
			c.JSON(http.StatusOK, gin.H{"matched": true, "session": session})
			return
		}
		c.JSON(http.StatusOK, gin.H{"matched": false, "queue": game.Manager.GetQueueStatus()})
	}
}

// LeaveQueue removes the player from matchmaking. Leaving while not queued
// succeeds quietly.
func LeaveQueue(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, _ := playerFromContext(c)
		if err := game.Manager.LeaveQueue(c.Request.Context(), playerID); err != nil {
			gameError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"left": true})
	}
}

// GetQueueStatus reports queue size and average wait.
func GetQueueStatus(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, game.Manager.GetQueueStatus())
	}
}

// CreateGame starts a PvE session. PvP games are only created by
// matchmaking; asking for one here is an error.
func CreateGame(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Mode      string `json:"mode" binding:"required"`
			BetAmount string `json:"bet_amount" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode and bet_amount required"})
			return
		}
		if game.Mode(req.Mode) != game.ModePvE {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only pve games can be created directly; use the queue for pvp"})
			return
		}
		bet, err := currency.Parse(req.BetAmount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bet_amount"})
			return
		}

		playerID, wallet := playerFromContext(c)
		session, err := game.Manager.CreatePvESession(c.Request.Context(), playerID, wallet, bet)
		if err != nil {
			gameError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"session": session})
	}
}

// GetGame returns the current session state.
func GetGame(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := game.Manager.GetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			gameError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": session})
	}
}

func isParticipant(s *game.Session, playerID string) bool {
	if s.Player1.ID == playerID {
		return true
	}
	return s.Player2 != nil && s.Player2.ID == playerID
}

// RollDice executes one round of the session. Only a participant may roll.
func RollDice(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		playerID, _ := playerFromContext(c)

		session, err := game.Manager.GetSession(ctx, c.Param("id"))
		if err != nil {
			gameError(c, err)
			return
		}
		if !isParticipant(session, playerID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a participant in this game"})
			return
		}

		session, round, err := game.Manager.ExecuteRound(ctx, session.ID)
		if err != nil {
			gameError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"round": round, "session": session})
	}
}

// CancelGame cancels a session before it finishes. Only a participant may
// cancel.
func CancelGame(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		playerID, _ := playerFromContext(c)

		session, err := game.Manager.GetSession(ctx, c.Param("id"))
		if err != nil {
			gameError(c, err)
			return
		}
		if !isParticipant(session, playerID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a participant in this game"})
			return
		}

		if err := game.Manager.CancelSession(ctx, session.ID); err != nil {
			gameError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
	}
}
