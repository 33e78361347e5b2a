package game

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/popmadice/backend/internal/currency"
)

// Mode selects who the first player is up against.
type Mode string

const (
	ModePvE Mode = "pve" // against the house, no queueing
	ModePvP Mode = "pvp" // against a matched opponent
)

// Status is the lifecycle state of a session.
// waiting -> active -> finished | cancelled
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// DefaultMaxRounds caps inconclusive re-rolls so a session cannot run forever.
const DefaultMaxRounds = 10

// BetLimits bound acceptable bet amounts, smallest unit (wei).
type BetLimits struct {
	Min currency.Amount
	Max currency.Amount
}

func (l BetLimits) validate(bet currency.Amount) error {
	if bet.Cmp(l.Min) < 0 || bet.Cmp(l.Max) > 0 {
		return ErrInvalidBet
	}
	return nil
}

// PlayerSlot is one side of a session: identity, stake and roll history.
type PlayerSlot struct {
	ID        string          `json:"id"`
	Address   string          `json:"address"`
	BetAmount currency.Amount `json:"bet_amount"`
	Rolls     []Roll          `json:"rolls"`
	Outcome   Outcome         `json:"outcome,omitempty"`
}

// Session is one game between player1 and either the house (pve) or a matched
// player2 (pvp). All transitions go through NewSession, AddSecondPlayer and
// ExecuteRound; nothing mutates a finished or cancelled session.
type Session struct {
	ID           string          `json:"id"`
	Mode         Mode            `json:"mode"`
	Status       Status          `json:"status"`
	Player1      PlayerSlot      `json:"player1"`
	Player2      *PlayerSlot     `json:"player2,omitempty"`
	CurrentRound int             `json:"current_round"`
	MaxRounds    int             `json:"max_rounds"`
	TotalPot     currency.Amount `json:"total_pot"`
	Winner       string          `json:"winner,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	TxHash       string          `json:"tx_hash,omitempty"`

	// Serializes ExecuteRound per session. Two concurrent roll requests for
	// the same session id must not interleave their read-roll-write cycles.
	mu sync.Mutex
}

// NewSession creates a session for player1's bet. PvP sessions start waiting
// for an opponent; PvE sessions go straight to active since the house is
// always present.
func NewSession(player1ID, address string, bet currency.Amount, mode Mode, limits BetLimits) (*Session, error) {
	if err := limits.validate(bet); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &Session{
		ID:     generateSessionID(),
		Mode:   mode,
		Status: StatusWaiting,
		Player1: PlayerSlot{
			ID:        player1ID,
			Address:   address,
			BetAmount: bet,
			Rolls:     []Roll{},
		},
		MaxRounds: DefaultMaxRounds,
		TotalPot:  bet,
		CreatedAt: now,
	}

	if mode == ModePvE {
		s.Status = StatusActive
		s.StartedAt = &now
	}
	return s, nil
}

// AddSecondPlayer locks in the opponent's bet and activates the session.
// Only legal while the session is still waiting.
func (s *Session) AddSecondPlayer(player2ID, address string, bet currency.Amount, limits BetLimits) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return ErrInvalidState
	}
	if err := limits.validate(bet); err != nil {
		return err
	}

	now := time.Now().UTC()
	s.Player2 = &PlayerSlot{
		ID:        player2ID,
		Address:   address,
		BetAmount: bet,
		Rolls:     []Roll{},
	}
	s.TotalPot = s.Player1.BetAmount.Add(bet)
	s.Status = StatusActive
	s.StartedAt = &now
	return nil
}

// RoundResult is what one ExecuteRound produced, for event emission.
type RoundResult struct {
	Round       int     `json:"round"`
	Player1Roll Roll    `json:"player1_roll"`
	Player2Roll *Roll   `json:"player2_roll,omitempty"`
	Player1     Outcome `json:"player1_outcome,omitempty"`
	Player2     Outcome `json:"player2_outcome,omitempty"`
	Finished    bool    `json:"finished"`
	Winner      string  `json:"winner,omitempty"`
}

// ExecuteRound rolls for both sides, evaluates the outcome tables and either
// finishes the session or leaves it active for another round. A roller
// failure aborts this round only; the session stays active.
func (s *Session) ExecuteRound(roll Roller) (*RoundResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusActive {
		return nil, ErrInvalidState
	}

	p1Roll, err := roll()
	if err != nil {
		return nil, err
	}
	var p2Roll *Roll
	if s.Mode == ModePvP && s.Player2 != nil {
		r, err := roll()
		if err != nil {
			return nil, err
		}
		p2Roll = &r
	}

	s.Player1.Rolls = append(s.Player1.Rolls, p1Roll)
	s.Player1.Outcome = DetermineOutcome(p1Roll)
	if p2Roll != nil {
		s.Player2.Rolls = append(s.Player2.Rolls, *p2Roll)
		s.Player2.Outcome = DetermineOutcome(*p2Roll)
	}

	finished := false
	winner := ""

	switch s.Mode {
	case ModePvP:
		if s.Player2 != nil && s.Player1.Outcome != OutcomeNone && s.Player2.Outcome != OutcomeNone {
			finished = true
			if s.Player1.Outcome == OutcomeWin && s.Player2.Outcome == OutcomeLose {
				winner = s.Player1.ID
			} else if s.Player1.Outcome == OutcomeLose && s.Player2.Outcome == OutcomeWin {
				winner = s.Player2.ID
			}
			// both win or both lose: draw, winner stays empty
		}
	default: // pve
		if s.Player1.Outcome != OutcomeNone {
			finished = true
			if s.Player1.Outcome == OutcomeWin {
				winner = s.Player1.ID
			}
			// otherwise the house takes it; no winner id exists for the house
		}
	}

	// Hard cap: never run past MaxRounds even if still inconclusive.
	if s.CurrentRound+1 >= s.MaxRounds {
		finished = true
	}

	s.CurrentRound++
	if finished {
		now := time.Now().UTC()
		s.Status = StatusFinished
		s.FinishedAt = &now
		s.Winner = winner
	}

	res := &RoundResult{
		Round:       s.CurrentRound,
		Player1Roll: p1Roll,
		Player2Roll: p2Roll,
		Player1:     s.Player1.Outcome,
		Finished:    finished,
		Winner:      winner,
	}
	if s.Player2 != nil {
		res.Player2 = s.Player2.Outcome
	}
	return res, nil
}

// Cancel terminates a session that never reached a result (e.g. opponent no
// longer available). Terminal states stay terminal.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status == StatusFinished || s.Status == StatusCancelled {
		return ErrInvalidState
	}
	now := time.Now().UTC()
	s.Status = StatusCancelled
	s.FinishedAt = &now
	return nil
}

// Snapshot returns a detached copy safe to serialize without holding the lock.
func (s *Session) Snapshot() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := &Session{
		ID:           s.ID,
		Mode:         s.Mode,
		Status:       s.Status,
		Player1:      s.Player1,
		CurrentRound: s.CurrentRound,
		MaxRounds:    s.MaxRounds,
		TotalPot:     s.TotalPot,
		Winner:       s.Winner,
		CreatedAt:    s.CreatedAt,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		TxHash:       s.TxHash,
	}
	cp.Player1.Rolls = append([]Roll(nil), s.Player1.Rolls...)
	if s.Player2 != nil {
		p2 := *s.Player2
		p2.Rolls = append([]Roll(nil), s.Player2.Rolls...)
		cp.Player2 = &p2
	}
	return cp
}

func generateSessionID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "game_" + hex.EncodeToString(b)
}
