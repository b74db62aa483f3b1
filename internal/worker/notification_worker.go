package worker

import (
	"context"
	"encoding/json"
	"time"

	"shim/internal/config"
	"shim/internal/domain"
	"shim/internal/events"
	"shim/internal/logging"
	"shim/internal/metrics"
	"shim/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Notifier delivers one notification to its destination.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// NotificationWorker drains the notifications outbox. Rows are written by the
// store in the same transaction as the booking change; booking events only
// wake the worker early. Delivery is at-least-once.
type NotificationWorker struct {
	repo          domain.NotificationRepository
	notifier      Notifier
	redis         *redis.Client
	retryPolicy   RetryPolicy
	wake          chan struct{}
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewNotificationWorker builds a worker with sane defaults. redisClient is
// optional and only receives the dead-letter list.
func NewNotificationWorker(repo domain.NotificationRepository, notifier Notifier, redisClient *redis.Client, cfg config.NotificationConfig, logger *zerolog.Logger) *NotificationWorker {
	w := &NotificationWorker{
		repo:          repo,
		notifier:      notifier,
		redis:         redisClient,
		retryPolicy:   NewRetryPolicy(cfg),
		wake:          make(chan struct{}, 1),
		deadLetterKey: "shim:notifications:deadletter",
		pollInterval:  cfg.PollInterval,
		batchSize:     cfg.BatchSize,
		logger:        logging.Component(logger, "notification_worker"),
	}
	if w.pollInterval <= 0 {
		w.pollInterval = 2 * time.Second
	}
	if w.batchSize <= 0 {
		w.batchSize = 20
	}
	return w
}

// HandleEvent is an events.EventHandler that triggers an immediate poll.
func (w *NotificationWorker) HandleEvent(_ *events.Event) error {
	w.Wake()
	return nil
}

// Wake asks the delivery loop to poll now instead of waiting for the interval.
func (w *NotificationWorker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start runs the delivery loop until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Notification worker started")
	defer w.logger.Info().Msg("Notification worker stopped")

	for ctx.Err() == nil {
		if w.drain(ctx) == 0 {
			w.wait(ctx)
		}
	}
}

// drain delivers one batch of due notifications and returns its size.
func (w *NotificationWorker) drain(ctx context.Context) int {
	pending, err := w.repo.GetPendingNotifications(ctx, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("Fetch pending notifications failed")
		}
		return 0
	}
	for i := range pending {
		w.process(ctx, &pending[i])
	}
	return len(pending)
}

func (w *NotificationWorker) wait(ctx context.Context) {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-w.wake:
	case <-timer.C:
	}
}

func (w *NotificationWorker) process(ctx context.Context, n *models.Notification) {
	if err := w.notifier.Notify(ctx, *n); err != nil {
		w.retryOrFail(ctx, n, err)
		return
	}

	if err := w.repo.UpdateNotificationStatus(ctx, n.ID, models.NotificationCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("Mark notification completed failed")
	}
	metrics.IncNotification(models.NotificationCompleted)
}

func (w *NotificationWorker) retryOrFail(ctx context.Context, n *models.Notification, cause error) {
	attempt := n.RetryCount + 1
	log := w.logger.With().Int64("notification_id", n.ID).Int("attempt", attempt).Logger()

	if w.retryPolicy.Exhausted(attempt) {
		log.Error().Err(cause).Msg("Notification failed permanently")
		if err := w.repo.UpdateNotificationStatus(ctx, n.ID, models.NotificationFailed, cause.Error(), nil); err != nil {
			log.Error().Err(err).Msg("Mark notification failed failed")
		}
		if w.redis != nil {
			if err := w.pushRedis(ctx, w.deadLetterKey, *n); err != nil {
				log.Error().Err(err).Msg("Dead-letter push failed")
			}
		}
		metrics.IncNotification(models.NotificationFailed)
		return
	}

	next := w.retryPolicy.NextAttemptAt(time.Now(), attempt)
	log.Warn().Err(cause).Time("next_retry_at", next).Msg("Notification delivery failed, scheduling retry")
	if err := w.repo.UpdateNotificationStatus(ctx, n.ID, models.NotificationRetry, cause.Error(), &next); err != nil {
		log.Error().Err(err).Msg("Mark notification retry failed")
	}
	metrics.IncNotification(models.NotificationRetry)
}

func (w *NotificationWorker) pushRedis(ctx context.Context, key string, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}
