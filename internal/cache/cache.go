// Package cache memoizes resolved positions per distinct location input.
//
// A cache only changes how often the remote tier is called, never what a
// resolution returns; a miss always falls through to a full resolution.
package cache

import (
	"context"
	"errors"
	"sync"

	"venue-geocoder/internal/models"
	"venue-geocoder/internal/normalize"
)

// Store is a key to result map. A miss is (nil, false, nil).
type Store interface {
	GetPosition(ctx context.Context, key string) (*models.GeocodeResult, bool, error)
	PutPosition(ctx context.Context, key string, result models.GeocodeResult) error
}

// Key builds the cache key for a raw location and its optional context.
func Key(raw, locationContext string) string {
	return normalize.Normalize(raw) + "|" + locationContext
}

// Memory is an in-process Store. It grows monotonically; eviction is left to the deployment.
type Memory struct {
	mu    sync.RWMutex
	items map[string]models.GeocodeResult
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]models.GeocodeResult)}
}

// GetPosition returns a copy of the cached result for key.
func (m *Memory) GetPosition(_ context.Context, key string) (*models.GeocodeResult, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

// PutPosition stores result under key, replacing any previous value.
func (m *Memory) PutPosition(_ context.Context, key string, result models.GeocodeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = result
	return nil
}

// Len returns the number of cached keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Layered reads through a fast front store to a durable back store and
// populates the front on back-store hits.
type Layered struct {
	front Store
	back  Store
}

// NewLayered stacks front over back.
func NewLayered(front, back Store) *Layered {
	return &Layered{front: front, back: back}
}

// GetPosition consults the front store, then the back store.
func (l *Layered) GetPosition(ctx context.Context, key string) (*models.GeocodeResult, bool, error) {
	if r, ok, err := l.front.GetPosition(ctx, key); err == nil && ok {
		return r, true, nil
	}

	r, ok, err := l.back.GetPosition(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	// Best effort: a failed front write only costs a later back-store read.
	_ = l.front.PutPosition(ctx, key, *r)
	return r, true, nil
}

// PutPosition writes to both stores.
func (l *Layered) PutPosition(ctx context.Context, key string, result models.GeocodeResult) error {
	return errors.Join(
		l.front.PutPosition(ctx, key, result),
		l.back.PutPosition(ctx, key, result),
	)
}
