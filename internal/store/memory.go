package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/popmadice/backend/internal/game"
	"github.com/popmadice/backend/internal/models"
)

// Memory is an in-memory Store for development and tests.
type Memory struct {
	mu       sync.Mutex
	players  map[string]*models.Player
	sessions map[string]*game.Session
	results  []models.GameResultRow
	queue    []models.QueueRow
}

func NewMemory() *Memory {
	return &Memory{
		players:  make(map[string]*models.Player),
		sessions: make(map[string]*game.Session),
	}
}

func (m *Memory) CreatePlayer(_ context.Context, p *models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.players[p.ID] = &cp
	return nil
}

func (m *Memory) GetPlayer(_ context.Context, id string) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, game.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) GetPlayerByAddress(_ context.Context, address string) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players {
		if p.WalletAddress == address {
			cp := *p
			return &cp, nil
		}
	}
	return nil, game.ErrNotFound
}

func (m *Memory) ApplyGameTotals(_ context.Context, playerID string, delta models.TotalsDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return game.ErrNotFound
	}
	p.TotalBets = p.TotalBets.Add(delta.Bet)
	p.TotalWinnings = p.TotalWinnings.Add(delta.Winnings)
	if delta.Won {
		p.GamesWon++
	}
	if delta.Lost {
		p.GamesLost++
	}
	if delta.Drawn {
		p.GamesDrawn++
	}
	p.LastActive = time.Now().UTC()
	return nil
}

func (m *Memory) Leaderboard(_ context.Context, limit int) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TotalWinnings.Cmp(out[j].TotalWinnings) > 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CreateGameSession(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Snapshot()
	return nil
}

func (m *Memory) GetGameSession(_ context.Context, id string) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, game.ErrNotFound
	}
	return s.Snapshot(), nil
}

func (m *Memory) UpdateGameSession(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return game.ErrNotFound
	}
	m.sessions[s.ID] = s.Snapshot()
	return nil
}

func (m *Memory) CreateGameResult(_ context.Context, r *game.GameResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := models.GameResultRow{
		ID:              r.ID,
		GameID:          r.GameID,
		Player1ID:       r.Player1ID,
		Player2ID:       nullString(r.Player2ID),
		Player1Outcome:  nullString(string(r.Player1Outcome)),
		Player2Outcome:  nullString(string(r.Player2Outcome)),
		WinnerID:        nullString(r.Winner),
		Player1Winnings: r.Player1Winnings,
		Player2Winnings: r.Player2Winnings,
		TxHash:          nullString(r.SettlementTxHash),
		CreatedAt:       r.Timestamp,
	}
	m.results = append(m.results, row)
	return nil
}

func (m *Memory) GetGameResults(_ context.Context, playerID string, limit int) ([]models.GameResultRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GameResultRow
	for i := len(m.results) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.results[i]
		if r.Player1ID == playerID || (r.Player2ID.Valid && r.Player2ID.String == playerID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) SetResultTxHash(_ context.Context, gameID, txHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.results {
		if m.results[i].GameID == gameID {
			m.results[i].TxHash = nullString(txHash)
			return nil
		}
	}
	return game.ErrNotFound
}

func (m *Memory) AddToQueue(_ context.Context, entry models.QueueRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, entry)
	return nil
}

func (m *Memory) RemoveFromQueue(_ context.Context, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.queue[:0]
	for _, e := range m.queue {
		if e.PlayerID != playerID {
			kept = append(kept, e)
		}
	}
	m.queue = kept
	return nil
}

func (m *Memory) GetQueueEntries(_ context.Context, limit int) ([]models.QueueRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.queue)
	if n > limit {
		n = limit
	}
	out := make([]models.QueueRow, n)
	copy(out, m.queue[:n])
	return out, nil
}

func (m *Memory) ClearQueue(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	return nil
}
