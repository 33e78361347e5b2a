package contract_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/popmadice/backend/internal/contract"
	"github.com/popmadice/backend/internal/currency"
	"github.com/popmadice/backend/internal/game"
	"github.com/popmadice/backend/internal/store"
)

type fakeClaimer struct {
	calls  int
	failed bool
}

func (f *fakeClaimer) ClaimWinnings(_ context.Context, gameID, _ string, _ currency.Amount) (string, error) {
	f.calls++
	if f.failed {
		return "", errors.New("node unreachable")
	}
	return "0xtx_" + gameID, nil
}

func seedResult(t *testing.T, mem *store.Memory, gameID, winner string, p1Win, p2Win currency.Amount) {
	t.Helper()
	err := mem.CreateGameResult(context.Background(), &game.GameResult{
		ID:              gameID + "_res",
		GameID:          gameID,
		Player1ID:       "p1",
		Player2ID:       "p2",
		Winner:          winner,
		Player1Winnings: p1Win,
		Player2Winnings: p2Win,
		Timestamp:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUnclaimedSkipsZeroAndClaimed(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	pot := currency.MustParse("2000000000000000")

	seedResult(t, mem, "g1", "p1", pot, currency.Amount{}) // p1 won, unclaimed
	seedResult(t, mem, "g2", "p2", currency.Amount{}, pot) // p1 lost
	seedResult(t, mem, "g3", "p1", pot, currency.Amount{}) // p1 won, already claimed
	if err := mem.SetResultTxHash(ctx, "g3", "0xdone"); err != nil {
		t.Fatal(err)
	}

	claims := contract.NewClaims(mem, nil)
	got, err := claims.Unclaimed(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].GameID != "g1" {
		t.Fatalf("unclaimed = %+v, want only g1", got)
	}
	if got[0].Amount.Cmp(pot) != 0 {
		t.Errorf("amount = %s, want %s", got[0].Amount, pot)
	}
}

func TestClaimRecordsTxHash(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	pot := currency.MustParse("2000000000000000")
	seedResult(t, mem, "g1", "p1", pot, currency.Amount{})

	fc := &fakeClaimer{}
	claims := contract.NewClaims(mem, fc)

	receipt, err := claims.Claim(ctx, "g1", "p1", "0xaaa")
	if err != nil {
		t.Fatal(err)
	}
	if receipt.TxHash != "0xtx_g1" || receipt.Amount.Cmp(pot) != 0 {
		t.Errorf("receipt = %+v", receipt)
	}
	if fc.calls != 1 {
		t.Errorf("claimer calls = %d, want 1", fc.calls)
	}

	// Second claim for the same game is rejected.
	if _, err := claims.Claim(ctx, "g1", "p1", "0xaaa"); !errors.Is(err, game.ErrNoWinnings) {
		t.Errorf("repeat claim err = %v, want ErrNoWinnings", err)
	}
}

func TestClaimNothingOwed(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	pot := currency.MustParse("2000000000000000")
	seedResult(t, mem, "g1", "p2", currency.Amount{}, pot)

	claims := contract.NewClaims(mem, &fakeClaimer{})
	if _, err := claims.Claim(ctx, "g1", "p1", "0xaaa"); !errors.Is(err, game.ErrNoWinnings) {
		t.Errorf("err = %v, want ErrNoWinnings", err)
	}
	if _, err := claims.Claim(ctx, "missing", "p1", "0xaaa"); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestClaimMockModeWithoutChainClient(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	pot := currency.MustParse("2000000000000000")
	seedResult(t, mem, "g1", "p1", pot, currency.Amount{})

	claims := contract.NewClaims(mem, nil)
	receipt, err := claims.Claim(ctx, "g1", "p1", "0xaaa")
	if err != nil {
		t.Fatal(err)
	}
	if receipt.TxHash != "mock_tx_g1" {
		t.Errorf("tx hash = %s, want mock reference", receipt.TxHash)
	}
}

func TestClaimChainFailureLeavesUnclaimed(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	pot := currency.MustParse("2000000000000000")
	seedResult(t, mem, "g1", "p1", pot, currency.Amount{})

	claims := contract.NewClaims(mem, &fakeClaimer{failed: true})
	if _, err := claims.Claim(ctx, "g1", "p1", "0xaaa"); err == nil {
		t.Fatal("claim should surface chain failure")
	}

	got, err := claims.Unclaimed(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("unclaimed after failed claim = %+v, want g1 still pending", got)
	}
}
