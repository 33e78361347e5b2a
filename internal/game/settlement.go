package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/popmadice/backend/internal/currency"
)

// GameResult is the immutable settlement record for a finished session. It is
// created exactly once and handed to the store; the engine does not keep it.
type GameResult struct {
	ID               string          `json:"id"`
	GameID           string          `json:"game_id"`
	Player1ID        string          `json:"player1_id"`
	Player2ID        string          `json:"player2_id,omitempty"`
	Player1Outcome   Outcome         `json:"player1_outcome,omitempty"`
	Player2Outcome   Outcome         `json:"player2_outcome,omitempty"`
	Winner           string          `json:"winner,omitempty"`
	Player1Winnings  currency.Amount `json:"player1_winnings"`
	Player2Winnings  currency.Amount `json:"player2_winnings"`
	SettlementTxHash string          `json:"tx_hash,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

// Winnings holds the per-player payout split of a finished session's pot.
type Winnings struct {
	Player1 currency.Amount
	Player2 currency.Amount
}

// CalculateWinnings derives payouts from a finished session. Pure; never
// mutates the session.
//
// Winner set: winner takes the whole pot. No winner means a draw and the pot
// splits by integer halving; an odd remainder unit is truncated, awarded to
// no one (it stays with the contract). The one exception is a pve session
// that finished on a determined lose: the house won and the player gets
// nothing. A pve session capped out with an inconclusive outcome still draws.
func CalculateWinnings(s *Session) (Winnings, error) {
	if s.Status != StatusFinished {
		return Winnings{}, ErrInvalidState
	}

	if s.Winner == "" {
		if s.Mode == ModePvE && s.Player1.Outcome == OutcomeLose {
			return Winnings{}, nil
		}
		half := s.TotalPot.Half()
		return Winnings{Player1: half, Player2: half}, nil
	}

	if s.Winner == s.Player1.ID {
		return Winnings{Player1: s.TotalPot}, nil
	}
	return Winnings{Player2: s.TotalPot}, nil
}

// NewGameResult builds the settlement record for a finished session.
func NewGameResult(s *Session, w Winnings) *GameResult {
	r := &GameResult{
		ID:              uuid.NewString(),
		GameID:          s.ID,
		Player1ID:       s.Player1.ID,
		Player1Outcome:  s.Player1.Outcome,
		Winner:          s.Winner,
		Player1Winnings: w.Player1,
		Player2Winnings: w.Player2,
		Timestamp:       time.Now().UTC(),
	}
	if s.Player2 != nil {
		r.Player2ID = s.Player2.ID
		r.Player2Outcome = s.Player2.Outcome
	}
	return r
}
