package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store for single-instance deployments without
// Redis.
type Memory struct {
	mu      sync.Mutex
	cutoffs map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{cutoffs: make(map[string]time.Time)}
}

func (m *Memory) RevokeBefore(_ context.Context, userID string, at time.Time, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs[userID] = at.Truncate(time.Second)
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff, ok := m.cutoffs[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.Unix() <= cutoff.Unix(), nil
}
