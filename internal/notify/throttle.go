package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"lifelink/internal/platform/metrics"
)

// ErrCooldown marks a send suppressed because the destination was messaged
// inside the cooldown window. Callers treat it like any delivery failure.
var ErrCooldown = errors.New("destination inside cooldown window")

const cooldownKeyPrefix = "lifelink:sms:cooldown:"

// cooldownStore is the slice of the redis client the throttle needs.
type cooldownStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// Throttle wraps a Gateway with a per-destination cooldown. The SETNX marker
// expires on its own; only the first send inside a window goes through. A
// redis outage fails open: delivery matters more than dedup.
type Throttle struct {
	next     Gateway
	store    cooldownStore
	cooldown time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewThrottle(next Gateway, store cooldownStore, cooldown time.Duration, logger *slog.Logger, m *metrics.Metrics) *Throttle {
	return &Throttle{
		next:     next,
		store:    store,
		cooldown: cooldown,
		logger:   logger,
		metrics:  m,
	}
}

func (t *Throttle) Send(ctx context.Context, to, message string) error {
	if t.cooldown <= 0 {
		return t.next.Send(ctx, to, message)
	}

	acquired, err := t.store.SetNX(ctx, cooldownKeyPrefix+to, 1, t.cooldown).Result()
	if err != nil {
		t.logger.WarnContext(ctx, "sms cooldown check failed, sending anyway", "error", err)
		return t.next.Send(ctx, to, message)
	}
	if !acquired {
		t.metrics.IncNotification("throttled")
		t.logger.InfoContext(ctx, "sms suppressed by cooldown", "to", to)
		return fmt.Errorf("sms to %s: %w", to, ErrCooldown)
	}
	return t.next.Send(ctx, to, message)
}
