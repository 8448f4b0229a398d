package ratelimit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"storyd/internal/config"
	"storyd/internal/core"
)

type Action string

const (
	ActionCreateStory Action = "stories"
	ActionReact       Action = "reactions"
	ActionView        Action = "views"
)

var (
	throttledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storyd_throttled_total",
		Help: "Write attempts rejected by the rate limiter.",
	}, []string{"action"})

	counterErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyd_rate_counter_errors_total",
		Help: "Failed rate-counter store operations.",
	})
)

// Limiter admits or rejects write attempts with a fixed window per
// (actor, action). The counter store does the increment-and-fetch atomically,
// so concurrent requests from one actor can never all slip past the limit.
type Limiter struct {
	Logger  *slog.Logger
	Config  *config.Config
	Counter core.Counter
	Clock   core.Clock
}

func (l *Limiter) Init(_ context.Context) error {
	l.Logger = l.Logger.With("component", "ratelimit.Limiter")
	return nil
}

// Admit returns nil when the attempt fits the window, core.ErrThrottled when
// the limit is reached, and core.ErrUnavailable when the counter store is
// down and the limiter is configured fail-closed. Fail-open (the default)
// admits with a logged warning instead.
func (l *Limiter) Admit(ctx context.Context, actorID string, action Action) error {
	limit := l.limitFor(action)
	if limit <= 0 {
		return nil
	}

	window := l.Config.RateWindow
	if window <= 0 {
		// No window means no limiting.
		return nil
	}

	windowID := l.Clock.Now().Unix() / max(int64(window.Seconds()), 1)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", action, actorID, windowID)

	count, err := l.Counter.Incr(ctx, key, window)
	if err != nil {
		counterErrorsTotal.Inc()

		if l.Config.RateFailOpen {
			l.Logger.Warn("rate counter store unreachable, admitting", "action", action, "error", err)
			return nil
		}
		return fmt.Errorf("%w: %w", core.ErrUnavailable, err)
	}

	if count > int64(limit) {
		throttledTotal.WithLabelValues(string(action)).Inc()
		return core.ErrThrottled
	}

	return nil
}

func (l *Limiter) limitFor(action Action) int {
	switch action {
	case ActionCreateStory:
		return l.Config.RateLimitStories
	case ActionReact:
		return l.Config.RateLimitReactions
	case ActionView:
		return l.Config.RateLimitViews
	}
	return 0
}
