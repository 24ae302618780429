package cart

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	applog "techstore/internal/log"
)

// breakerTier short-circuits a remote tier after repeated failures.
type breakerTier struct {
	next Tier
	cb   *gobreaker.CircuitBreaker[[]byte]
}

// BreakerSettings tunes WithBreaker. Zero values pick the defaults.
type BreakerSettings struct {
	MaxFailures uint32
	OpenFor     time.Duration
}

func WithBreaker(next Tier, s BreakerSettings) Tier {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if s.OpenFor == 0 {
		s.OpenFor = 30 * time.Second
	}
	lg := applog.Component("cart.breaker")
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    next.Name(),
		Timeout: s.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn("cart.breaker.state", zap.String("tier", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &breakerTier{next: next, cb: cb}
}

func (b *breakerTier) Name() string { return b.next.Name() }

func (b *breakerTier) Load(ctx context.Context, key string) ([]byte, error) {
	return b.cb.Execute(func() ([]byte, error) { return b.next.Load(ctx, key) })
}

func (b *breakerTier) Save(ctx context.Context, key string, version int64, payload []byte) error {
	_, err := b.cb.Execute(func() ([]byte, error) { return nil, b.next.Save(ctx, key, version, payload) })
	return err
}

func (b *breakerTier) Delete(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() ([]byte, error) { return nil, b.next.Delete(ctx, key) })
	return err
}
