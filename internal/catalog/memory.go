// internal/catalog/memory.go
package catalog

import (
	"context"
	"sync"

	"github.com/jason-s-yu/plaza/internal/models"
)

// Memory keeps games in process memory. Safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	games map[string]*models.Game
}

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		games: make(map[string]*models.Game),
	}
}

var (
	_ Catalog    = (*Memory)(nil)
	_ BatchSaver = (*Memory)(nil)
)

func (m *Memory) Save(_ context.Context, g *models.Game) error {
	cp := *g
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = &cp
	return nil
}

// SaveBatch stores every game under one lock acquisition.
func (m *Memory) SaveBatch(_ context.Context, games []*models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range games {
		cp := *g
		m.games[g.ID] = &cp
	}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *Memory) List(_ context.Context) ([]*models.Game, error) {
	m.mu.Lock()
	out := make([]*models.Game, 0, len(m.games))
	for _, g := range m.games {
		cp := *g
		out = append(out, &cp)
	}
	m.mu.Unlock()

	sortGames(out)
	return out, nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games), nil
}
