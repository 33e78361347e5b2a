package game

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/popmadice/backend/internal/currency"
)

var testLimits = BetLimits{
	Min: currency.MustParse("1000000000000000"),    // 0.001 ETH
	Max: currency.MustParse("1000000000000000000"), // 1 ETH
}

func marshalRoundTrip(s *Session) ([]byte, *Session, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, nil, err
	}
	var back Session
	if err := json.Unmarshal(data, &back); err != nil {
		return data, nil, err
	}
	return data, &back, nil
}

func TestNewSessionPvEStartsActive(t *testing.T) {
	bet := currency.MustParse("1000000000000000")
	s, err := NewSession("p1", "0xabc", bet, ModePvE, testLimits)
	if err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusActive {
		t.Errorf("pve session status = %s, want active", s.Status)
	}
	if s.TotalPot.Cmp(bet) != 0 {
		t.Errorf("pot = %s, want %s", s.TotalPot, bet)
	}
	if s.StartedAt == nil {
		t.Error("pve session should stamp StartedAt")
	}
}

func TestNewSessionPvPStartsWaiting(t *testing.T) {
	s, err := NewSession("p1", "0xabc", testLimits.Min, ModePvP, testLimits)
	if err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusWaiting {
		t.Errorf("pvp session status = %s, want waiting", s.Status)
	}
	if s.Player2 != nil {
		t.Error("waiting session must not have a second player")
	}
}

func TestNewSessionRejectsBetOutOfRange(t *testing.T) {
	low := testLimits.Min.Sub(currency.New(1))
	if _, err := NewSession("p1", "0xabc", low, ModePvE, testLimits); !errors.Is(err, ErrInvalidBet) {
		t.Errorf("bet below min: err = %v, want ErrInvalidBet", err)
	}
	high := testLimits.Max.Add(currency.New(1))
	if _, err := NewSession("p1", "0xabc", high, ModePvE, testLimits); !errors.Is(err, ErrInvalidBet) {
		t.Errorf("bet above max: err = %v, want ErrInvalidBet", err)
	}
}

func TestAddSecondPlayerActivatesAndSumsPot(t *testing.T) {
	bet := currency.MustParse("10000000000000000") // 0.01 ETH each
	s, _ := NewSession("p1", "0xaaa", bet, ModePvP, testLimits)
	if err := s.AddSecondPlayer("p2", "0xbbb", bet, testLimits); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusActive {
		t.Errorf("status = %s, want active", s.Status)
	}
	want := currency.MustParse("20000000000000000")
	if s.TotalPot.Cmp(want) != 0 {
		t.Errorf("pot = %s, want %s", s.TotalPot, want)
	}
	if s.StartedAt == nil {
		t.Error("StartedAt not stamped")
	}
}

func TestAddSecondPlayerOnActiveSessionFails(t *testing.T) {
	s, _ := NewSession("p1", "0xaaa", testLimits.Min, ModePvE, testLimits)
	if err := s.AddSecondPlayer("p2", "0xbbb", testLimits.Min, testLimits); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestExecuteRoundPvEWin(t *testing.T) {
	s, _ := NewSession("p1", "0xaaa", testLimits.Min, ModePvE, testLimits)
	res, err := s.ExecuteRound(FixedRoller(Roll{5, 2}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Finished || s.Status != StatusFinished {
		t.Fatal("session should be finished")
	}
	if s.Winner != "p1" {
		t.Errorf("winner = %q, want p1", s.Winner)
	}

	w, err := CalculateWinnings(s)
	if err != nil {
		t.Fatal(err)
	}
	if w.Player1.Cmp(s.TotalPot) != 0 {
		t.Errorf("player1 winnings = %s, want full pot %s", w.Player1, s.TotalPot)
	}
	if !w.Player2.IsZero() {
		t.Errorf("house side winnings = %s, want 0", w.Player2)
	}
}

func TestExecuteRoundPvEHouseWins(t *testing.T) {
	s, _ := NewSession("p1", "0xaaa", testLimits.Min, ModePvE, testLimits)
	res, err := s.ExecuteRound(FixedRoller(Roll{1, 1}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Finished || s.Winner != "" {
		t.Fatalf("finished=%v winner=%q, want finished with no winner id", res.Finished, s.Winner)
	}
	w, err := CalculateWinnings(s)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Player1.IsZero() || !w.Player2.IsZero() {
		t.Errorf("house win should pay nothing, got %s/%s", w.Player1, w.Player2)
	}
}

func TestExecuteRoundPvPWinBeatsLose(t *testing.T) {
	bet := testLimits.Min
	s, _ := NewSession("p1", "0xaaa", bet, ModePvP, testLimits)
	s.AddSecondPlayer("p2", "0xbbb", bet, testLimits)

	res, err := s.ExecuteRound(FixedRoller(Roll{5, 2}, Roll{1, 1}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Finished {
		t.Fatal("round should finish the session")
	}
	if s.Winner != "p1" {
		t.Errorf("winner = %q, want p1", s.Winner)
	}
}

func TestExecuteRoundPvPBothWinIsDraw(t *testing.T) {
	bet := currency.MustParse("1000000000000000")
	s, _ := NewSession("p1", "0xaaa", bet, ModePvP, testLimits)
	s.AddSecondPlayer("p2", "0xbbb", bet, testLimits)

	res, err := s.ExecuteRound(FixedRoller(Roll{5, 2}, Roll{3, 4}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Finished || s.Winner != "" {
		t.Fatalf("finished=%v winner=%q, want draw", res.Finished, s.Winner)
	}

	w, err := CalculateWinnings(s)
	if err != nil {
		t.Fatal(err)
	}
	if w.Player1.Cmp(s.TotalPot.Half()) != 0 || w.Player2.Cmp(s.TotalPot.Half()) != 0 {
		t.Errorf("draw split = %s/%s, want %s each", w.Player1, w.Player2, s.TotalPot.Half())
	}
}

func TestDrawSplitTruncatesOddRemainder(t *testing.T) {
	s := &Session{
		ID:       "game_x",
		Mode:     ModePvP,
		Status:   StatusFinished,
		Player1:  PlayerSlot{ID: "p1"},
		Player2:  &PlayerSlot{ID: "p2"},
		TotalPot: currency.New(7),
	}
	w, err := CalculateWinnings(s)
	if err != nil {
		t.Fatal(err)
	}
	if w.Player1.String() != "3" || w.Player2.String() != "3" {
		t.Errorf("split = %s/%s, want 3/3 with remainder truncated", w.Player1, w.Player2)
	}
}

func TestExecuteRoundContinuesWhenInconclusive(t *testing.T) {
	s, _ := NewSession("p1", "0xaaa", testLimits.Min, ModePvE, testLimits)
	res, err := s.ExecuteRound(FixedRoller(Roll{3, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if res.Finished || s.Status != StatusActive {
		t.Error("inconclusive roll should keep the session active")
	}
	if s.CurrentRound != 1 {
		t.Errorf("current round = %d, want 1", s.CurrentRound)
	}
	if len(s.Player1.Rolls) != 1 {
		t.Errorf("roll history length = %d, want 1", len(s.Player1.Rolls))
	}
}

func TestMaxRoundsForcesFinish(t *testing.T) {
	s, _ := NewSession("p1", "0xaaa", testLimits.Min, ModePvE, testLimits)

	rolls := make([]Roll, DefaultMaxRounds)
	for i := range rolls {
		rolls[i] = Roll{3, 3} // always inconclusive
	}
	roller := FixedRoller(rolls...)

	for i := 0; i < DefaultMaxRounds-1; i++ {
		res, err := s.ExecuteRound(roller)
		if err != nil {
			t.Fatal(err)
		}
		if res.Finished {
			t.Fatalf("finished prematurely at round %d", i+1)
		}
	}

	res, err := s.ExecuteRound(roller)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Finished || s.Status != StatusFinished {
		t.Error("session must finish at the round cap")
	}
	if s.CurrentRound != DefaultMaxRounds {
		t.Errorf("current round = %d, want %d", s.CurrentRound, DefaultMaxRounds)
	}
}

func TestPvECappedInconclusiveIsDraw(t *testing.T) {
	s, _ := NewSession("p1", "0xaaa", testLimits.Min, ModePvE, testLimits)

	rolls := make([]Roll, DefaultMaxRounds)
	for i := range rolls {
		rolls[i] = Roll{3, 3} // always inconclusive
	}
	roller := FixedRoller(rolls...)

	for i := 0; i < DefaultMaxRounds; i++ {
		if _, err := s.ExecuteRound(roller); err != nil {
			t.Fatal(err)
		}
	}
	if s.Status != StatusFinished || s.Winner != "" || s.Player1.Outcome != OutcomeNone {
		t.Fatalf("status=%s winner=%q outcome=%q, want finished, no winner, inconclusive", s.Status, s.Winner, s.Player1.Outcome)
	}

	// An inconclusive cap-out is a draw, not a house win: the player gets half
	// the pot back. Only a determined lose forfeits the stake.
	w, err := CalculateWinnings(s)
	if err != nil {
		t.Fatal(err)
	}
	if w.Player1.Cmp(s.TotalPot.Half()) != 0 {
		t.Errorf("capped draw payout = %s, want %s", w.Player1, s.TotalPot.Half())
	}
}

func TestExecuteRoundOnFinishedSessionFails(t *testing.T) {
	s, _ := NewSession("p1", "0xaaa", testLimits.Min, ModePvE, testLimits)
	if _, err := s.ExecuteRound(FixedRoller(Roll{5, 2})); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ExecuteRound(FixedRoller(Roll{5, 2})); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestRollerFailureLeavesSessionActive(t *testing.T) {
	s, _ := NewSession("p1", "0xaaa", testLimits.Min, ModePvE, testLimits)
	if _, err := s.ExecuteRound(FixedRoller()); err == nil {
		t.Fatal("exhausted roller should fail the round")
	}
	if s.Status != StatusActive {
		t.Errorf("status = %s, want active after failed round", s.Status)
	}
	if s.CurrentRound != 0 || len(s.Player1.Rolls) != 0 {
		t.Error("failed round must not advance session state")
	}
}

func TestCancelIsTerminal(t *testing.T) {
	s, _ := NewSession("p1", "0xaaa", testLimits.Min, ModePvP, testLimits)
	if err := s.Cancel(); err != nil {
		t.Fatal(err)
	}
	if s.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", s.Status)
	}
	if err := s.Cancel(); !errors.Is(err, ErrInvalidState) {
		t.Error("cancelling twice should fail")
	}
	if err := s.AddSecondPlayer("p2", "0xbbb", testLimits.Min, testLimits); !errors.Is(err, ErrInvalidState) {
		t.Error("cancelled session must reject new players")
	}
}

func TestConcurrentRoundsSerializePerSession(t *testing.T) {
	s, _ := NewSession("p1", "0xaaa", testLimits.Min, ModePvE, testLimits)

	// Plenty of inconclusive rolls; concurrent callers must never interleave
	// mid-round, so the history length equals successful round executions.
	var mu sync.Mutex
	calls := 0
	roller := func() (Roll, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return Roll{3, 3}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ExecuteRound(roller)
		}()
	}
	wg.Wait()

	if s.CurrentRound != len(s.Player1.Rolls) {
		t.Errorf("round count %d != history length %d", s.CurrentRound, len(s.Player1.Rolls))
	}
	if calls != s.CurrentRound {
		t.Errorf("roller calls %d != executed rounds %d", calls, s.CurrentRound)
	}
}

func TestSessionJSONRoundTripPreservesAmounts(t *testing.T) {
	bet := currency.MustParse("500000000000000000000000000") // 5*10^26
	s := &Session{
		ID:       "game_big",
		Mode:     ModePvP,
		Status:   StatusActive,
		Player1:  PlayerSlot{ID: "p1", Address: "0xaaa", BetAmount: bet, Rolls: []Roll{{3, 3}}},
		Player2:  &PlayerSlot{ID: "p2", Address: "0xbbb", BetAmount: bet, Rolls: []Roll{{2, 2}}},
		TotalPot: bet.Add(bet),
	}
	data, back, err := marshalRoundTrip(s)
	if err != nil {
		t.Fatal(err)
	}
	if back.TotalPot.Cmp(s.TotalPot) != 0 {
		t.Errorf("pot drifted through JSON: %s -> %s (payload %s)", s.TotalPot, back.TotalPot, data)
	}
	if back.Player1.BetAmount.Cmp(bet) != 0 || back.Player2.BetAmount.Cmp(bet) != 0 {
		t.Error("bet amounts drifted through JSON")
	}
}
