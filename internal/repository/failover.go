package repository

import (
	"context"
	"sync"
	"time"

	"shim/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverQuotaRepository uses primary until it errors, then serves from
// fallback and tries primary again once per recoveryInterval.
type FailoverQuotaRepository struct {
	primary  domain.QuotaRepository
	fallback domain.QuotaRepository
	logger   *zerolog.Logger

	mu        sync.Mutex
	down      bool
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverQuotaRepository(primary, fallback domain.QuotaRepository, logger *zerolog.Logger) *FailoverQuotaRepository {
	return &FailoverQuotaRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverQuotaRepository) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.down || r.now().Sub(r.lastCheck) > recoveryInterval
}

func (r *FailoverQuotaRepository) markPrimary(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ok && r.down {
		r.logger.Info().Msg("Primary quota repository recovered")
	}
	r.down = !ok
	r.lastCheck = r.now()
}

func (r *FailoverQuotaRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			r.markPrimary(true)
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("Primary quota repository failed, falling back to memory")
		r.markPrimary(false)
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}

// ReleaseRateLimit returns the unit to whichever backend is currently serving.
func (r *FailoverQuotaRepository) ReleaseRateLimit(ctx context.Context, userID int64) error {
	if r.usePrimary() {
		err := r.primary.ReleaseRateLimit(ctx, userID)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary quota repository failed on release, falling back to memory")
		r.markPrimary(false)
	}
	return r.fallback.ReleaseRateLimit(ctx, userID)
}
