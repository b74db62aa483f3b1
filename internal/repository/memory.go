package repository

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = time.Minute

// MemoryQuotaRepository is the in-process quota counter used without Redis.
// Expired windows are dropped at most once per sweepInterval.
type MemoryQuotaRepository struct {
	mu        sync.Mutex
	windows   map[int64]*quotaWindow
	nextSweep time.Time
	now       func() time.Time
}

type quotaWindow struct {
	count     int
	expiresAt time.Time
}

func NewMemoryQuotaRepository() *MemoryQuotaRepository {
	return &MemoryQuotaRepository{
		windows: make(map[int64]*quotaWindow),
		now:     time.Now,
	}
}

func (r *MemoryQuotaRepository) CheckRateLimit(_ context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	entry, ok := r.windows[userID]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &quotaWindow{expiresAt: now.Add(window)}
		r.windows[userID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

func (r *MemoryQuotaRepository) ReleaseRateLimit(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.windows[userID]; ok && r.now().Before(entry.expiresAt) && entry.count > 0 {
		entry.count--
	}
	return nil
}

func (r *MemoryQuotaRepository) sweep(now time.Time) {
	if now.Before(r.nextSweep) {
		return
	}
	for id, entry := range r.windows {
		if !now.Before(entry.expiresAt) {
			delete(r.windows, id)
		}
	}
	r.nextSweep = now.Add(sweepInterval)
}
