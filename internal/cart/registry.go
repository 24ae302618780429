package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	applog "techstore/internal/log"
)

// InvalidationChannel carries Invalidation messages between instances.
const InvalidationChannel = "cart.invalidate"

// Notifier publishes a payload on a channel. realtime brokers satisfy it.
type Notifier interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Invalidation announces that a session's record was rewritten by Origin.
type Invalidation struct {
	SessionID string `json:"session_id"`
	Version   int64  `json:"version"`
	Origin    string `json:"origin"`
}

type Tiers struct {
	Session Tier
	Durable Tier
	Backup  Tier
}

type RegistryOptions struct {
	Debounce  time.Duration
	Freshness time.Duration
	// IdleTTL is how long a store may go untouched before Sweep drops it.
	IdleTTL  time.Duration
	Now      func() time.Time
	Notifier Notifier
}

// Registry owns the live Store of every active session. The fast tier is built per
// Registry and shared by its stores; two registries never see each other's entries.
type Registry struct {
	chain  *Chain
	opts   RegistryOptions
	origin string
	log    *zap.Logger

	group  singleflight.Group
	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(tiers Tiers, opts RegistryOptions) *Registry {
	if opts.Freshness <= 0 {
		opts.Freshness = 5 * time.Minute
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	fast := NewMemoryCache(opts.Freshness, opts.Now)
	return &Registry{
		chain:  NewChain(fast, tiers.Session, tiers.Durable, tiers.Backup),
		opts:   opts,
		origin: uuid.NewString(),
		log:    applog.Component("cart.registry"),
		stores: make(map[string]*Store),
	}
}

func (r *Registry) Origin() string { return r.origin }

// Get returns the store for sessionID, seeding it from the tiers on first use.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, errors.New("cart: session id is required")
	}
	if s := r.lookup(sessionID); s != nil {
		return s, nil
	}
	v, err, _ := r.group.Do(sessionID, func() (any, error) {
		if s := r.lookup(sessionID); s != nil {
			return s, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := NewStore(sessionID, r.chain, Options{
			Debounce: r.opts.Debounce,
			Now:      r.opts.Now,
			OnFlush:  r.announce,
		})
		s.Load(ctx)
		r.mu.Lock()
		r.stores[sessionID] = s
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (r *Registry) lookup(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores[sessionID]
}

// Len is the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep flushes and drops stores idle longer than IdleTTL and prunes stale fast entries.
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.opts.Now()
	var idle []*Store
	r.mu.Lock()
	for _, s := range r.stores {
		if s.idleSince(now) > r.opts.IdleTTL {
			idle = append(idle, s)
		}
	}
	r.mu.Unlock()

	// closed before the flush so a caller still holding the store writes through
	for _, s := range idle {
		s.Close()
		s.Flush(ctx)
		r.mu.Lock()
		if r.stores[s.key] == s {
			delete(r.stores, s.key)
		}
		r.mu.Unlock()
	}
	pruned := r.chain.Fast.Prune()
	if len(idle) > 0 || pruned > 0 {
		r.log.Info("cart.sweep", zap.Int("stores", len(idle)), zap.Int("fast_pruned", pruned))
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(ctx)
		}
	}
}

// Close flushes and closes every store.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for key, s := range r.stores {
		stores = append(stores, s)
		delete(r.stores, key)
	}
	r.mu.Unlock()

	for _, s := range stores {
		s.Close()
		s.Flush(ctx)
	}
	r.log.Info("cart.registry.closed", zap.Int("stores", len(stores)))
}

// HandleInvalidation refreshes the local store named by a message from another instance.
func (r *Registry) HandleInvalidation(payload []byte) {
	var msg Invalidation
	if err := json.Unmarshal(payload, &msg); err != nil {
		r.log.Warn("cart.invalidation.decode", zap.Error(err))
		return
	}
	if msg.Origin == r.origin {
		return
	}
	s := r.lookup(msg.SessionID)
	if s == nil {
		// nothing cached here; the next Get reads the tiers anyway
		r.chain.Fast.Delete(msg.SessionID)
		return
	}
	if s.Version() >= msg.Version {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	s.Refresh(ctx)
}

func (r *Registry) announce(ctx context.Context, key string, version int64) {
	if r.opts.Notifier == nil {
		return
	}
	payload, err := json.Marshal(Invalidation{SessionID: key, Version: version, Origin: r.origin})
	if err != nil {
		return
	}
	if err := r.opts.Notifier.Publish(ctx, InvalidationChannel, payload); err != nil {
		r.log.Warn("cart.invalidation.publish", zap.String("key", key), zap.Error(err))
	}
}
