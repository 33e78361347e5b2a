// Package store is the persistence collaborator for the game engine. The
// engine treats every call as a fallible remote operation and never retries;
// callers own retry policy.
package store

import (
	"context"

	"github.com/popmadice/backend/internal/game"
	"github.com/popmadice/backend/internal/models"
)

type Store interface {
	// Player operations
	CreatePlayer(ctx context.Context, p *models.Player) error
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	GetPlayerByAddress(ctx context.Context, address string) (*models.Player, error)
	ApplyGameTotals(ctx context.Context, playerID string, delta models.TotalsDelta) error
	Leaderboard(ctx context.Context, limit int) ([]models.Player, error)

	// Game session operations
	CreateGameSession(ctx context.Context, s *game.Session) error
	GetGameSession(ctx context.Context, id string) (*game.Session, error)
	UpdateGameSession(ctx context.Context, s *game.Session) error

	// Game result operations
	CreateGameResult(ctx context.Context, r *game.GameResult) error
	GetGameResults(ctx context.Context, playerID string, limit int) ([]models.GameResultRow, error)
	SetResultTxHash(ctx context.Context, gameID, txHash string) error

	// Queue operations
	AddToQueue(ctx context.Context, entry models.QueueRow) error
	RemoveFromQueue(ctx context.Context, playerID string) error
	GetQueueEntries(ctx context.Context, limit int) ([]models.QueueRow, error)
	ClearQueue(ctx context.Context) error
}
