package models

import (
	"database/sql"
	"time"

	"github.com/popmadice/backend/internal/currency"
)

// Player represents a user in the system, identified by wallet address.
// Aggregate counters are updated by the engine after each finished game.
type Player struct {
	ID            string          `db:"id" json:"id"`
	Username      string          `db:"username" json:"username"`
	WalletAddress string          `db:"wallet_address" json:"wallet_address"`
	TotalWinnings currency.Amount `db:"total_winnings" json:"total_winnings"`
	TotalBets     currency.Amount `db:"total_bets" json:"total_bets"`
	GamesWon      int             `db:"games_won" json:"games_won"`
	GamesLost     int             `db:"games_lost" json:"games_lost"`
	GamesDrawn    int             `db:"games_drawn" json:"games_drawn"`
	JoinedAt      time.Time       `db:"joined_at" json:"joined_at"`
	LastActive    time.Time       `db:"last_active" json:"last_active"`
}

// GameSessionRow is the persisted form of a game session. Roll histories are
// stored as the session's JSON snapshot; amounts live in NUMERIC columns.
type GameSessionRow struct {
	ID         string          `db:"id" json:"id"`
	Mode       string          `db:"mode" json:"mode"`
	Status     string          `db:"status" json:"status"`
	Player1ID  string          `db:"player1_id" json:"player1_id"`
	Player2ID  sql.NullString  `db:"player2_id" json:"player2_id,omitempty"`
	TotalPot   currency.Amount `db:"total_pot" json:"total_pot"`
	WinnerID   sql.NullString  `db:"winner_id" json:"winner_id,omitempty"`
	Snapshot   []byte          `db:"snapshot" json:"-"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	StartedAt  sql.NullTime    `db:"started_at" json:"started_at,omitempty"`
	FinishedAt sql.NullTime    `db:"finished_at" json:"finished_at,omitempty"`
	TxHash     sql.NullString  `db:"tx_hash" json:"tx_hash,omitempty"`
}

// GameResultRow is the immutable settlement record for a finished game.
type GameResultRow struct {
	ID              string          `db:"id" json:"id"`
	GameID          string          `db:"game_id" json:"game_id"`
	Player1ID       string          `db:"player1_id" json:"player1_id"`
	Player2ID       sql.NullString  `db:"player2_id" json:"player2_id,omitempty"`
	Player1Outcome  sql.NullString  `db:"player1_outcome" json:"player1_outcome,omitempty"`
	Player2Outcome  sql.NullString  `db:"player2_outcome" json:"player2_outcome,omitempty"`
	WinnerID        sql.NullString  `db:"winner_id" json:"winner_id,omitempty"`
	Player1Winnings currency.Amount `db:"player1_winnings" json:"player1_winnings"`
	Player2Winnings currency.Amount `db:"player2_winnings" json:"player2_winnings"`
	TxHash          sql.NullString  `db:"tx_hash" json:"tx_hash,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// TotalsDelta is the aggregate update applied to a player's counters after a
// finished game.
type TotalsDelta struct {
	Bet      currency.Amount
	Winnings currency.Amount
	Won      bool
	Lost     bool
	Drawn    bool
}

// QueueRow is a matchmaking queue entry as persisted.
type QueueRow struct {
	PlayerID      string          `db:"player_id" json:"player_id"`
	WalletAddress string          `db:"wallet_address" json:"wallet_address"`
	BetAmount     currency.Amount `db:"bet_amount" json:"bet_amount"`
	Mode          string          `db:"mode" json:"mode"`
	JoinedAt      time.Time       `db:"joined_at" json:"joined_at"`
}
