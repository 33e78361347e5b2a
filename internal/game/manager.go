package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/popmadice/backend/internal/currency"
	"github.com/popmadice/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// Store is the slice of the persistence collaborator the engine consumes.
// Every call is treated as a fallible remote operation; the engine surfaces
// failures to its caller and never retries.
type Store interface {
	AddToQueue(ctx context.Context, entry models.QueueRow) error
	RemoveFromQueue(ctx context.Context, playerID string) error
	CreateGameSession(ctx context.Context, s *Session) error
	GetGameSession(ctx context.Context, id string) (*Session, error)
	UpdateGameSession(ctx context.Context, s *Session) error
	CreateGameResult(ctx context.Context, r *GameResult) error
	ApplyGameTotals(ctx context.Context, playerID string, delta models.TotalsDelta) error
}

// Event types emitted to the notification collaborator. Delivery and fan-out
// are entirely its problem; the engine fires and forgets.
const (
	EventGameCreated = "game-created"
	EventGameRoll    = "game-roll"
	EventGameResult  = "game-result"
	EventMatchFound  = "match-found"
	EventQueueUpdate = "queue-update"
)

// EventPublisher receives semantic game events for fan-out.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload interface{})
}

// NopPublisher drops all events; used when no fan-out is wired.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) {}

// StaleQueueTimeout is how long an unpaired entry may sit in the queue before
// the cleanup sweep evicts it.
const StaleQueueTimeout = 5 * time.Minute

// QueueEntry is a player waiting for a PvP opponent.
type QueueEntry struct {
	PlayerID  string          `json:"player_id"`
	Address   string          `json:"address"`
	BetAmount currency.Amount `json:"bet_amount"`
	Mode      Mode            `json:"mode"`
	JoinedAt  time.Time       `json:"joined_at"`
}

// QueueStatus is a point-in-time view of the matchmaking queue.
type QueueStatus struct {
	TotalPlayers    int     `json:"total_players"`
	AverageWaitSecs float64 `json:"average_wait_seconds"`
}

// GameManager owns the matchmaking queue and all live sessions. The queue is
// the one long-lived shared mutable resource here: the scan -> remove-both ->
// create-session sequence runs as one critical section under mu so two
// concurrent joiners can never claim the same opponent.
type GameManager struct {
	mu        sync.Mutex
	queue     []QueueEntry        // join order; first compatible entry wins
	sessions  map[string]*Session // keyed by session ID
	store     Store
	events    EventPublisher
	rdb       *redis.Client // optional hot snapshot cache
	roller    Roller
	limits    BetLimits
	tolerance int64 // percent band for bet compatibility
	maxRounds int
	stale     time.Duration
}

// Global game manager instance, wired at startup.
var Manager *GameManager

// Option tweaks manager construction.
type Option func(*GameManager)

func WithRoller(r Roller) Option            { return func(gm *GameManager) { gm.roller = r } }
func WithRedis(rdb *redis.Client) Option    { return func(gm *GameManager) { gm.rdb = rdb } }
func WithEvents(p EventPublisher) Option    { return func(gm *GameManager) { gm.events = p } }
func WithTolerance(pct int64) Option        { return func(gm *GameManager) { gm.tolerance = pct } }
func WithStaleAfter(d time.Duration) Option { return func(gm *GameManager) { gm.stale = d } }

func WithMaxRounds(n int) Option {
	return func(gm *GameManager) {
		if n > 0 {
			gm.maxRounds = n
		}
	}
}

// NewGameManager creates a manager with the given collaborators.
func NewGameManager(store Store, limits BetLimits, opts ...Option) *GameManager {
	gm := &GameManager{
		queue:     []QueueEntry{},
		sessions:  make(map[string]*Session),
		store:     store,
		events:    NopPublisher{},
		roller:    CryptoRoller,
		limits:    limits,
		tolerance: 10,
		maxRounds: DefaultMaxRounds,
		stale:     StaleQueueTimeout,
	}
	for _, opt := range opts {
		opt(gm)
	}
	return gm
}

// InitializeManager wires the global manager.
func InitializeManager(store Store, limits BetLimits, opts ...Option) {
	Manager = NewGameManager(store, limits, opts...)
}

// CreatePvESession starts an immediate game against the house. PvE never
// touches the queue.
func (gm *GameManager) CreatePvESession(ctx context.Context, playerID, address string, bet currency.Amount) (*Session, error) {
	s, err := NewSession(playerID, address, bet, ModePvE, gm.limits)
	if err != nil {
		return nil, err
	}
	s.MaxRounds = gm.maxRounds

	gm.mu.Lock()
	gm.sessions[s.ID] = s
	gm.mu.Unlock()

	if err := gm.store.CreateGameSession(ctx, s); err != nil {
		gm.mu.Lock()
		delete(gm.sessions, s.ID)
		gm.mu.Unlock()
		return nil, err
	}
	gm.saveSessionToRedis(ctx, s)

	log.Printf("[GAME] PvE session created: %s player=%s bet=%s", s.ID, playerID, bet)
	snap := s.Snapshot()
	gm.events.Publish(ctx, EventGameCreated, map[string]interface{}{"session": snap})
	return snap, nil
}

// JoinQueue enqueues a PvP player and immediately tries to pair them. A nil
// session with nil error means "queued, no match yet".
func (gm *GameManager) JoinQueue(ctx context.Context, playerID, address string, bet currency.Amount, mode Mode) (*Session, error) {
	if mode != ModePvP {
		return nil, fmt.Errorf("mode %q does not use the queue: %w", mode, ErrInvalidState)
	}
	if err := gm.limits.validate(bet); err != nil {
		return nil, err
	}

	entry := QueueEntry{
		PlayerID:  playerID,
		Address:   address,
		BetAmount: bet,
		Mode:      mode,
		JoinedAt:  time.Now().UTC(),
	}

	gm.mu.Lock()
	for _, e := range gm.queue {
		if e.PlayerID == playerID {
			gm.mu.Unlock()
			return nil, ErrAlreadyQueued
		}
	}

	opponent := gm.findMatchLocked(playerID, bet)
	if opponent == nil {
		gm.queue = append(gm.queue, entry)
		queueSize := len(gm.queue)
		gm.mu.Unlock()

		if err := gm.store.AddToQueue(ctx, models.QueueRow{
			PlayerID:      playerID,
			WalletAddress: address,
			BetAmount:     bet,
			Mode:          string(mode),
			JoinedAt:      entry.JoinedAt,
		}); err != nil {
			gm.removeFromQueueMemory(playerID)
			return nil, err
		}

		log.Printf("[QUEUE] Player %s queued (bet=%s, size=%d)", playerID, bet, queueSize)
		gm.events.Publish(ctx, EventQueueUpdate, map[string]interface{}{"queue_size": queueSize})
		return nil, nil
	}

	// Match found: the opponent's entry is already removed from the queue
	// slice; build the session before releasing the lock so no concurrent
	// joiner can see a half-made pair.
	s, err := NewSession(playerID, address, bet, ModePvP, gm.limits)
	if err != nil {
		gm.queue = append(gm.queue, *opponent) // put the opponent back
		gm.mu.Unlock()
		return nil, err
	}
	s.MaxRounds = gm.maxRounds
	if err := s.AddSecondPlayer(opponent.PlayerID, opponent.Address, opponent.BetAmount, gm.limits); err != nil {
		gm.queue = append(gm.queue, *opponent)
		gm.mu.Unlock()
		return nil, err
	}
	gm.sessions[s.ID] = s
	queueSize := len(gm.queue)
	gm.mu.Unlock()

	if err := gm.store.CreateGameSession(ctx, s); err != nil {
		gm.mu.Lock()
		delete(gm.sessions, s.ID)
		gm.queue = append(gm.queue, *opponent) // opponent goes back in the pool
		gm.mu.Unlock()
		return nil, err
	}
	if err := gm.store.RemoveFromQueue(ctx, opponent.PlayerID); err != nil {
		log.Printf("[QUEUE] Failed to remove matched player %s from persisted queue: %v", opponent.PlayerID, err)
	}
	gm.saveSessionToRedis(ctx, s)

	log.Printf("[MATCHMAKER] Match created: session=%s players=[%s,%s] pot=%s",
		s.ID, s.Player1.ID, opponent.PlayerID, s.TotalPot)

	snap := s.Snapshot()
	gm.events.Publish(ctx, EventMatchFound, map[string]interface{}{
		"session_id": s.ID,
		"player1_id": s.Player1.ID,
		"player2_id": opponent.PlayerID,
		"session":    snap,
	})
	gm.events.Publish(ctx, EventGameCreated, map[string]interface{}{"session": snap})
	gm.events.Publish(ctx, EventQueueUpdate, map[string]interface{}{"queue_size": queueSize})
	return snap, nil
}

// findMatchLocked scans for the first queued entry (excluding the caller)
// whose bet is within the tolerance band, removing it from the queue on a
// hit. First found in join order; deliberately not a best-price match.
// Caller must hold gm.mu.
func (gm *GameManager) findMatchLocked(playerID string, bet currency.Amount) *QueueEntry {
	tol := bet.Percent(gm.tolerance)
	low := bet.Sub(tol)
	high := bet.Add(tol)

	for i, e := range gm.queue {
		if e.PlayerID == playerID {
			continue
		}
		if e.BetAmount.Cmp(low) >= 0 && e.BetAmount.Cmp(high) <= 0 {
			opponent := e
			gm.queue = append(gm.queue[:i], gm.queue[i+1:]...)
			return &opponent
		}
	}
	return nil
}

// LeaveQueue removes a player's entry. Idempotent: leaving while not queued
// is not an error.
func (gm *GameManager) LeaveQueue(ctx context.Context, playerID string) error {
	removed := gm.removeFromQueueMemory(playerID)
	if err := gm.store.RemoveFromQueue(ctx, playerID); err != nil {
		return err
	}
	if removed {
		gm.mu.Lock()
		queueSize := len(gm.queue)
		gm.mu.Unlock()
		log.Printf("[QUEUE] Player %s left queue (size=%d)", playerID, queueSize)
		gm.events.Publish(ctx, EventQueueUpdate, map[string]interface{}{"queue_size": queueSize})
	}
	return nil
}

func (gm *GameManager) removeFromQueueMemory(playerID string) bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	for i, e := range gm.queue {
		if e.PlayerID == playerID {
			gm.queue = append(gm.queue[:i], gm.queue[i+1:]...)
			return true
		}
	}
	return false
}

// GetQueueStatus reports queue size and average wait in seconds.
func (gm *GameManager) GetQueueStatus() QueueStatus {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if len(gm.queue) == 0 {
		return QueueStatus{}
	}
	now := time.Now().UTC()
	var total float64
	for _, e := range gm.queue {
		total += now.Sub(e.JoinedAt).Seconds()
	}
	return QueueStatus{
		TotalPlayers:    len(gm.queue),
		AverageWaitSecs: total / float64(len(gm.queue)),
	}
}

// CleanupStaleQueue evicts entries older than the staleness threshold and
// returns how many were removed. Invoked by the background sweeper; safe to
// run concurrently with joins and leaves.
func (gm *GameManager) CleanupStaleQueue(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-gm.stale)

	gm.mu.Lock()
	var stale []QueueEntry
	kept := gm.queue[:0]
	for _, e := range gm.queue {
		if e.JoinedAt.Before(cutoff) {
			stale = append(stale, e)
		} else {
			kept = append(kept, e)
		}
	}
	gm.queue = kept
	queueSize := len(gm.queue)
	gm.mu.Unlock()

	for _, e := range stale {
		if err := gm.store.RemoveFromQueue(ctx, e.PlayerID); err != nil {
			log.Printf("[QUEUE] Failed to remove stale entry %s from persisted queue: %v", e.PlayerID, err)
		}
	}

	if len(stale) > 0 {
		log.Printf("[QUEUE] Evicted %d stale entries (size=%d)", len(stale), queueSize)
		gm.events.Publish(ctx, EventQueueUpdate, map[string]interface{}{"queue_size": queueSize})
	}
	return len(stale)
}

// GetSession returns a detached snapshot of a session. Callers get a copy
// they can read and serialize freely; the live session only ever mutates
// under its own lock inside the manager.
func (gm *GameManager) GetSession(ctx context.Context, id string) (*Session, error) {
	s, err := gm.liveSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// liveSession returns the authoritative in-memory session, rehydrating from
// the store for sessions created before a restart.
func (gm *GameManager) liveSession(ctx context.Context, id string) (*Session, error) {
	gm.mu.Lock()
	if s, ok := gm.sessions[id]; ok {
		gm.mu.Unlock()
		return s, nil
	}
	gm.mu.Unlock()

	s, err := gm.store.GetGameSession(ctx, id)
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	// Another caller may have rehydrated it while we hit the store.
	if cached, ok := gm.sessions[id]; ok {
		return cached, nil
	}
	gm.sessions[id] = s
	return s, nil
}

// ExecuteRound runs one round of the given session. Round execution is
// serialized per session by the session's own lock; round persistence and
// settlement follow a successful transition. The returned session is a
// detached snapshot.
func (gm *GameManager) ExecuteRound(ctx context.Context, sessionID string) (*Session, *RoundResult, error) {
	s, err := gm.liveSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.ExecuteRound(gm.roller)
	if err != nil {
		return nil, nil, err
	}

	if err := gm.store.UpdateGameSession(ctx, s); err != nil {
		// The in-memory transition already happened; report the persistence
		// failure but keep the session authoritative in memory.
		log.Printf("[DB] Failed to persist round for session %s: %v", sessionID, err)
	}
	gm.saveSessionToRedis(ctx, s)

	gm.events.Publish(ctx, EventGameRoll, map[string]interface{}{
		"session_id": s.ID,
		"round":      res,
	})

	if res.Finished {
		if err := gm.settle(ctx, s); err != nil {
			log.Printf("[GAME] Settlement failed for session %s: %v", s.ID, err)
		}
	}
	return s.Snapshot(), res, nil
}

// settle computes payouts for a finished session, records the immutable
// result and applies aggregate totals to both players.
func (gm *GameManager) settle(ctx context.Context, s *Session) error {
	w, err := CalculateWinnings(s)
	if err != nil {
		return err
	}
	result := NewGameResult(s, w)

	if err := gm.store.CreateGameResult(ctx, result); err != nil {
		return err
	}

	p1 := models.TotalsDelta{
		Bet:      s.Player1.BetAmount,
		Winnings: w.Player1,
		Won:      s.Winner == s.Player1.ID,
		Drawn:    s.Winner == "" && (s.Mode == ModePvP || s.Player1.Outcome != OutcomeLose),
	}
	p1.Lost = !p1.Won && !p1.Drawn
	if err := gm.store.ApplyGameTotals(ctx, s.Player1.ID, p1); err != nil {
		log.Printf("[DB] Failed to update totals for player %s: %v", s.Player1.ID, err)
	}

	if s.Player2 != nil {
		p2 := models.TotalsDelta{
			Bet:      s.Player2.BetAmount,
			Winnings: w.Player2,
			Won:      s.Winner == s.Player2.ID,
			Drawn:    s.Winner == "",
		}
		p2.Lost = !p2.Won && !p2.Drawn
		if err := gm.store.ApplyGameTotals(ctx, s.Player2.ID, p2); err != nil {
			log.Printf("[DB] Failed to update totals for player %s: %v", s.Player2.ID, err)
		}
	}

	log.Printf("[GAME] Session %s settled: winner=%q payouts=%s/%s",
		s.ID, s.Winner, w.Player1, w.Player2)

	gm.events.Publish(ctx, EventGameResult, map[string]interface{}{
		"session_id": s.ID,
		"result":     result,
		"session":    s.Snapshot(),
	})
	return nil
}

// CancelSession cancels a session that has not reached a result.
func (gm *GameManager) CancelSession(ctx context.Context, sessionID string) error {
	s, err := gm.liveSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.Cancel(); err != nil {
		return err
	}
	if err := gm.store.UpdateGameSession(ctx, s); err != nil {
		return err
	}
	gm.saveSessionToRedis(ctx, s)
	log.Printf("[GAME] Session %s cancelled", sessionID)
	return nil
}

// saveSessionToRedis caches the session snapshot for cheap reads and restart
// recovery. Best effort; Redis being down never fails a game operation.
func (gm *GameManager) saveSessionToRedis(ctx context.Context, s *Session) {
	if gm.rdb == nil {
		return
	}
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		log.Printf("[REDIS] Failed to marshal session %s: %v", s.ID, err)
		return
	}
	if err := gm.rdb.Set(ctx, "session:"+s.ID, data, 24*time.Hour).Err(); err != nil {
		log.Printf("[REDIS] Failed to cache session %s: %v", s.ID, err)
	}
}
