package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/popmadice/backend/internal/game"
	"github.com/popmadice/backend/internal/models"
)

// Postgres is the production Store backed by sqlx. Sessions are persisted as
// a row of indexable columns plus the full JSON snapshot, so roll histories
// survive restarts without a table per roll.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) CreatePlayer(ctx context.Context, pl *models.Player) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO players (id, username, wallet_address, total_winnings, total_bets, games_won, games_lost, games_drawn, joined_at, last_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, pl.ID, pl.Username, pl.WalletAddress, pl.TotalWinnings, pl.TotalBets, pl.GamesWon, pl.GamesLost, pl.GamesDrawn)
	if err != nil {
		return fmt.Errorf("create player %s: %w", pl.ID, err)
	}
	return nil
}

func (p *Postgres) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	var pl models.Player
	err := p.db.GetContext(ctx, &pl, `
		SELECT id, username, wallet_address, total_winnings, total_bets, games_won, games_lost, games_drawn, joined_at, last_active
		FROM players WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func (p *Postgres) GetPlayerByAddress(ctx context.Context, address string) (*models.Player, error) {
	var pl models.Player
	err := p.db.GetContext(ctx, &pl, `
		SELECT id, username, wallet_address, total_winnings, total_bets, games_won, games_lost, games_drawn, joined_at, last_active
		FROM players WHERE LOWER(wallet_address) = LOWER($1)
	`, address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

func (p *Postgres) ApplyGameTotals(ctx context.Context, playerID string, delta models.TotalsDelta) error {
	won, lost, drawn := 0, 0, 0
	if delta.Won {
		won = 1
	}
	if delta.Lost {
		lost = 1
	}
	if delta.Drawn {
		drawn = 1
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE players SET
			total_bets = total_bets + $2,
			total_winnings = total_winnings + $3,
			games_won = games_won + $4,
			games_lost = games_lost + $5,
			games_drawn = games_drawn + $6,
			last_active = NOW()
		WHERE id = $1
	`, playerID, delta.Bet, delta.Winnings, won, lost, drawn)
	if err != nil {
		return fmt.Errorf("apply totals for player %s: %w", playerID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return game.ErrNotFound
	}
	return nil
}

func (p *Postgres) Leaderboard(ctx context.Context, limit int) ([]models.Player, error) {
	var players []models.Player
	err := p.db.SelectContext(ctx, &players, `
		SELECT id, username, wallet_address, total_winnings, total_bets, games_won, games_lost, games_drawn, joined_at, last_active
		FROM players
		ORDER BY total_winnings DESC
		LIMIT $1
	`, limit)
	return players, err
}

func (p *Postgres) CreateGameSession(ctx context.Context, s *game.Session) error {
	row, err := sessionRow(s)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO game_sessions (id, mode, status, player1_id, player2_id, total_pot, winner_id, snapshot, created_at, started_at, finished_at, tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, row.ID, row.Mode, row.Status, row.Player1ID, row.Player2ID, row.TotalPot, row.WinnerID, row.Snapshot, row.CreatedAt, row.StartedAt, row.FinishedAt, row.TxHash)
	if err != nil {
		return fmt.Errorf("create game session %s: %w", s.ID, err)
	}
	return nil
}

func (p *Postgres) GetGameSession(ctx context.Context, id string) (*game.Session, error) {
	var snapshot []byte
	err := p.db.GetContext(ctx, &snapshot, `SELECT snapshot FROM game_sessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s game.Session
	if err := json.Unmarshal(snapshot, &s); err != nil {
		return nil, fmt.Errorf("decode session %s snapshot: %w", id, err)
	}
	return &s, nil
}

func (p *Postgres) UpdateGameSession(ctx context.Context, s *game.Session) error {
	row, err := sessionRow(s)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE game_sessions SET
			status = $2, player2_id = $3, total_pot = $4, winner_id = $5,
			snapshot = $6, started_at = $7, finished_at = $8, tx_hash = $9
		WHERE id = $1
	`, row.ID, row.Status, row.Player2ID, row.TotalPot, row.WinnerID, row.Snapshot, row.StartedAt, row.FinishedAt, row.TxHash)
	if err != nil {
		return fmt.Errorf("update game session %s: %w", s.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return game.ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateGameResult(ctx context.Context, r *game.GameResult) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO game_results (id, game_id, player1_id, player2_id, player1_outcome, player2_outcome, winner_id, player1_winnings, player2_winnings, tx_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.ID, r.GameID, r.Player1ID, nullString(r.Player2ID), nullString(string(r.Player1Outcome)), nullString(string(r.Player2Outcome)),
		nullString(r.Winner), r.Player1Winnings, r.Player2Winnings, nullString(r.SettlementTxHash), r.Timestamp)
	if err != nil {
		return fmt.Errorf("create game result for %s: %w", r.GameID, err)
	}
	return nil
}

func (p *Postgres) GetGameResults(ctx context.Context, playerID string, limit int) ([]models.GameResultRow, error) {
	var rows []models.GameResultRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT id, game_id, player1_id, player2_id, player1_outcome, player2_outcome, winner_id, player1_winnings, player2_winnings, tx_hash, created_at
		FROM game_results
		WHERE player1_id = $1 OR player2_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, playerID, limit)
	return rows, err
}

func (p *Postgres) SetResultTxHash(ctx context.Context, gameID, txHash string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE game_results SET tx_hash = $2 WHERE game_id = $1`, gameID, txHash)
	if err != nil {
		return fmt.Errorf("set tx hash for game %s: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return game.ErrNotFound
	}
	return nil
}

func (p *Postgres) AddToQueue(ctx context.Context, entry models.QueueRow) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO matchmaking_queue (player_id, wallet_address, bet_amount, mode, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.PlayerID, entry.WalletAddress, entry.BetAmount, entry.Mode, entry.JoinedAt)
	if err != nil {
		return fmt.Errorf("enqueue player %s: %w", entry.PlayerID, err)
	}
	return nil
}

func (p *Postgres) RemoveFromQueue(ctx context.Context, playerID string) error {
	// Idempotent: removing an absent entry is not an error.
	_, err := p.db.ExecContext(ctx, `DELETE FROM matchmaking_queue WHERE player_id = $1`, playerID)
	return err
}

func (p *Postgres) GetQueueEntries(ctx context.Context, limit int) ([]models.QueueRow, error) {
	var rows []models.QueueRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT player_id, wallet_address, bet_amount, mode, joined_at
		FROM matchmaking_queue
		ORDER BY joined_at
		LIMIT $1
	`, limit)
	return rows, err
}

func (p *Postgres) ClearQueue(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM matchmaking_queue`)
	return err
}

func sessionRow(s *game.Session) (*models.GameSessionRow, error) {
	snapshot, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s snapshot: %w", s.ID, err)
	}
	row := &models.GameSessionRow{
		ID:        s.ID,
		Mode:      string(s.Mode),
		Status:    string(s.Status),
		Player1ID: s.Player1.ID,
		TotalPot:  s.TotalPot,
		WinnerID:  nullString(s.Winner),
		Snapshot:  snapshot,
		CreatedAt: s.CreatedAt,
		TxHash:    nullString(s.TxHash),
	}
	if s.Player2 != nil {
		row.Player2ID = nullString(s.Player2.ID)
	}
	if s.StartedAt != nil {
		row.StartedAt = sql.NullTime{Time: *s.StartedAt, Valid: true}
	}
	if s.FinishedAt != nil {
		row.FinishedAt = sql.NullTime{Time: *s.FinishedAt, Valid: true}
	}
	return row, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// EnsurePlayer fetches a player by id, creating a fresh record when missing.
func EnsurePlayer(ctx context.Context, s Store, id, address, username string) (*models.Player, error) {
	pl, err := s.GetPlayer(ctx, id)
	if err == nil {
		return pl, nil
	}
	if !errors.Is(err, game.ErrNotFound) {
		return nil, err
	}
	if username == "" {
		username = id
	}
	pl = &models.Player{ID: id, Username: username, WalletAddress: address}
	if err := s.CreatePlayer(ctx, pl); err != nil {
		log.Printf("[DB] Failed to create player %s: %v", id, err)
		return nil, err
	}
	return pl, nil
}
