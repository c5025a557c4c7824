// Package profile persists per-device player profiles (game.Profiles).
package profile

import (
	"context"
	"sync"

	"github.com/robalobadob/triads/internal/game"
)

// Memory keeps profiles in process memory. Values are copied in and out so
// callers never share a *game.User with the store.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*game.User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]*game.User)}
}

func (m *Memory) Get(ctx context.Context, deviceID string) (*game.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[deviceID]
	if !ok {
		return nil, nil
	}
	return clone(u), nil
}

func (m *Memory) Set(ctx context.Context, deviceID string, u *game.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[deviceID] = clone(u)
	return nil
}

func (m *Memory) Clear(ctx context.Context, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, deviceID)
	return nil
}

func clone(u *game.User) *game.User {
	c := *u
	c.Scores = make(map[int]int, len(u.Scores))
	for k, v := range u.Scores {
		c.Scores[k] = v
	}
	c.FirstFiveGameScores = append([]int(nil), u.FirstFiveGameScores...)
	return &c
}
