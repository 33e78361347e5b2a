package contract

import (
	"context"
	"fmt"
	"log"

	"github.com/popmadice/backend/internal/currency"
	"github.com/popmadice/backend/internal/game"
	"github.com/popmadice/backend/internal/models"
)

// resultStore is the slice of persistence the claims service needs.
type resultStore interface {
	GetGameResults(ctx context.Context, playerID string, limit int) ([]models.GameResultRow, error)
	SetResultTxHash(ctx context.Context, gameID, txHash string) error
}

// UnclaimedWinning is one game's payout still owed to a player.
type UnclaimedWinning struct {
	GameID   string          `json:"game_id"`
	Amount   currency.Amount `json:"amount"`
	WinnerID string          `json:"winner_id,omitempty"`
}

// ClaimReceipt is returned after a claim has been handed to the chain.
type ClaimReceipt struct {
	GameID string          `json:"game_id"`
	Amount currency.Amount `json:"amount"`
	TxHash string          `json:"tx_hash"`
}

// Claims resolves what each player is owed from settlement records and
// submits claims through the chain client. A nil claimer means mock mode:
// claims are recorded with a synthetic tx reference so local development
// works without a node.
type Claims struct {
	store   resultStore
	claimer Claimer
}

func NewClaims(store resultStore, claimer Claimer) *Claims {
	return &Claims{store: store, claimer: claimer}
}

// winningsFor extracts the player's payout from a settlement record. Zero
// means the player is owed nothing for that game.
func winningsFor(r models.GameResultRow, playerID string) currency.Amount {
	if r.Player1ID == playerID {
		return r.Player1Winnings
	}
	if r.Player2ID.Valid && r.Player2ID.String == playerID {
		return r.Player2Winnings
	}
	return currency.Amount{}
}

// Unclaimed lists every finished game where the player is owed winnings and
// no claim transaction has been recorded yet.
func (c *Claims) Unclaimed(ctx context.Context, playerID string) ([]UnclaimedWinning, error) {
	results, err := c.store.GetGameResults(ctx, playerID, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to load game results: %w", err)
	}

	var out []UnclaimedWinning
	for _, r := range results {
		if r.TxHash.Valid {
			continue
		}
		amount := winningsFor(r, playerID)
		if amount.IsZero() {
			continue
		}
		out = append(out, UnclaimedWinning{
			GameID:   r.GameID,
			Amount:   amount,
			WinnerID: r.WinnerID.String,
		})
	}
	return out, nil
}

// Claim submits the player's payout for one game. Returns ErrNoWinnings when
// the game owes the player nothing or the payout was already claimed.
func (c *Claims) Claim(ctx context.Context, gameID, playerID, playerAddress string) (*ClaimReceipt, error) {
	results, err := c.store.GetGameResults(ctx, playerID, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to load game results: %w", err)
	}

	var target *models.GameResultRow
	for i := range results {
		if results[i].GameID == gameID {
			target = &results[i]
			break
		}
	}
	if target == nil {
		return nil, game.ErrNotFound
	}
	if target.TxHash.Valid {
		return nil, game.ErrNoWinnings
	}
	amount := winningsFor(*target, playerID)
	if amount.IsZero() {
		return nil, game.ErrNoWinnings
	}

	txHash, err := c.submit(ctx, gameID, playerAddress, amount)
	if err != nil {
		return nil, err
	}
	if err := c.store.SetResultTxHash(ctx, gameID, txHash); err != nil {
		// The chain accepted the claim; losing the reference is recoverable
		// by re-indexing, so log instead of failing the claim.
		log.Printf("[CLAIM] Failed to record tx hash for game %s: %v", gameID, err)
	}
	return &ClaimReceipt{GameID: gameID, Amount: amount, TxHash: txHash}, nil
}

func (c *Claims) submit(ctx context.Context, gameID, playerAddress string, amount currency.Amount) (string, error) {
	if c.claimer == nil {
		txHash := "mock_tx_" + gameID
		log.Printf("[CLAIM] Chain client not configured; recording mock claim for game %s", gameID)
		return txHash, nil
	}
	return c.claimer.ClaimWinnings(ctx, gameID, playerAddress, amount)
}
