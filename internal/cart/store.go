package cart

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"techstore/internal/debounce"
	"techstore/internal/domain"
	applog "techstore/internal/log"
)

const flushTimeout = 5 * time.Second

// Options tune a Store. Zero values pick the defaults.
type Options struct {
	Debounce time.Duration
	Now      func() time.Time
	// OnFlush runs after a record reached the tiers.
	OnFlush func(ctx context.Context, key string, version int64)
}

// Update is a partial change to one line. Nil fields are left alone.
type Update struct {
	Quantity *int
	Notes    *string
}

// Store is the in-memory source of truth for one cart session. Mutations apply
// synchronously; persistence to the tier chain is debounced.
type Store struct {
	key   string
	chain *Chain
	opts  Options
	deb   *debounce.Debouncer
	log   *zap.Logger

	mu         sync.Mutex
	lines      []domain.CartLine
	version    int64
	saved      int64
	lastAccess time.Time
	subs       map[int]chan []domain.CartLine
	nextSub    int
	closed     bool

	// persistMu orders tier writes and erases.
	persistMu sync.Mutex
}

func NewStore(key string, chain *Chain, opts Options) *Store {
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{
		key:   key,
		chain: chain,
		opts:  opts,
		log:   applog.Component("cart.store"),
		subs:  make(map[int]chan []domain.CartLine),
	}
	s.lastAccess = opts.Now()
	s.deb = debounce.New(opts.Debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		s.persist(ctx)
	})
	return s
}

// Load seeds the store from the tier chain, fast tier included.
func (s *Store) Load(ctx context.Context) {
	rec, src := s.chain.Load(ctx, s.key, true)
	s.mu.Lock()
	s.lines = cloneLines(rec.Items)
	s.version = rec.Version
	s.saved = rec.Version
	s.mu.Unlock()
	s.log.Debug("cart.seed", zap.String("key", s.key), zap.String("source", src), zap.Int("lines", len(rec.Items)))
}

func (s *Store) Key() string { return s.key }

func (s *Store) AddItem(product domain.ProductRef, quantity int, notes string) error {
	if product.ID == "" {
		return ErrMissingProductID
	}
	if product.Stock <= 0 {
		return ErrOutOfStock
	}
	if quantity < 1 {
		quantity = 1
	}
	s.mutate(func() bool {
		for i := range s.lines {
			if s.lines[i].Product.ID == product.ID {
				s.lines[i].Quantity += quantity
				if notes != "" {
					s.lines[i].Notes = notes
				}
				return true
			}
		}
		s.lines = append(s.lines, domain.CartLine{Product: product, Quantity: quantity, Notes: notes})
		return true
	})
	return nil
}

// UpdateItem applies u to the line for productID. Quantity is taken as given;
// routing a non-positive quantity to RemoveItem is up to the caller.
func (s *Store) UpdateItem(productID string, u Update) {
	s.mutate(func() bool {
		for i := range s.lines {
			if s.lines[i].Product.ID != productID {
				continue
			}
			if u.Quantity != nil {
				s.lines[i].Quantity = *u.Quantity
			}
			if u.Notes != nil {
				s.lines[i].Notes = *u.Notes
			}
			return true
		}
		return false
	})
}

func (s *Store) RemoveItem(productID string) {
	s.mutate(func() bool {
		for i := range s.lines {
			if s.lines[i].Product.ID == productID {
				s.lines = append(s.lines[:i], s.lines[i+1:]...)
				return true
			}
		}
		return false
	})
}

// Clear empties the cart, drops any pending write and erases every tier. OnFlush
// runs with the new version so peers drop their copy.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.deb.Cancel()
	s.lines = nil
	s.version++
	s.saved = s.version
	version := s.version
	s.lastAccess = s.opts.Now()
	s.notifyLocked()
	s.mu.Unlock()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.chain.Erase(ctx, s.key)
	if s.opts.OnFlush != nil {
		s.opts.OnFlush(ctx, s.key, version)
	}
}

// Refresh re-reads the tier chain, skipping the fast tier, and adopts what it finds.
// Local changes that have not been written yet win over an older record.
func (s *Store) Refresh(ctx context.Context) {
	rec, src := s.chain.Load(ctx, s.key, false)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.opts.Now()
	if s.version > s.saved && rec.Version < s.version {
		s.log.Debug("cart.refresh.keep", zap.String("key", s.key), zap.Int64("local", s.version), zap.Int64("stored", rec.Version))
		return
	}
	s.deb.Cancel()
	s.lines = cloneLines(rec.Items)
	if rec.Version > s.version {
		s.version = rec.Version
	}
	s.saved = s.version
	if s.chain.Fast != nil {
		s.chain.Fast.Put(s.key, Record{Version: s.version, SavedAt: rec.SavedAt, Items: s.lines})
	}
	s.notifyLocked()
	s.log.Debug("cart.refresh", zap.String("key", s.key), zap.String("source", src), zap.Int64("version", s.version))
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *Store) Item(productID string) (domain.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.Product.ID == productID {
			return cloneLines([]domain.CartLine{l})[0], true
		}
	}
	return domain.CartLine{}, false
}

func (s *Store) Snapshot() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = s.opts.Now()
	return cloneLines(s.lines)
}

func (s *Store) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// CacheStatus is diagnostic only.
type CacheStatus struct {
	Key          string       `json:"key"`
	Version      int64        `json:"version"`
	Pending      bool         `json:"pending_write"`
	MemoryCached bool         `json:"memory_cached"`
	MemoryAge    string       `json:"memory_age,omitempty"`
	Tiers        []TierStatus `json:"tiers"`
}

func (s *Store) CacheStatus(ctx context.Context) CacheStatus {
	st := CacheStatus{Key: s.key, Version: s.Version(), Pending: s.deb.Pending()}
	if s.chain.Fast != nil {
		if age, ok := s.chain.Fast.Age(s.key); ok {
			st.MemoryCached = true
			st.MemoryAge = age.Round(time.Millisecond).String()
		}
	}
	st.Tiers = s.chain.probeAll(ctx, s.key)
	return st
}

// Subscribe returns a channel that always holds the latest snapshot. The current
// state is delivered immediately. The channel is closed by cancel or Close.
func (s *Store) Subscribe() (<-chan []domain.CartLine, func()) {
	ch := make(chan []domain.CartLine, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.closed {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subs[id] = ch
	ch <- cloneLines(s.lines)
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Flush writes unsaved state now and returns once every earlier write has landed.
// It reports whether this call wrote anything.
func (s *Store) Flush(ctx context.Context) bool {
	if s.deb.Flush() {
		return true
	}
	// a write started by the timer holds persistMu until it is done
	return s.persist(ctx)
}

// Close stops the debouncer and releases subscribers. Unsaved state stays in memory
// until Flush; mutations made after Close are written through synchronously.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	for id, c := range s.subs {
		delete(s.subs, id)
		close(c)
	}
	s.mu.Unlock()
	s.deb.Stop()
}

func (s *Store) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastAccess)
}

// mutate runs fn under the lock. A true return marks the state changed.
func (s *Store) mutate(fn func() bool) {
	s.mu.Lock()
	s.lastAccess = s.opts.Now()
	if !fn() {
		s.mu.Unlock()
		return
	}
	s.version++
	if s.chain.Fast != nil {
		s.chain.Fast.Put(s.key, Record{Version: s.version, SavedAt: s.opts.Now().UTC(), Items: s.lines})
	}
	closed := s.closed
	if !closed {
		s.deb.Trigger()
	}
	s.notifyLocked()
	s.mu.Unlock()

	if closed {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		s.persist(ctx)
	}
}

func (s *Store) notifyLocked() {
	snap := cloneLines(s.lines)
	for _, c := range s.subs {
		select {
		case <-c:
		default:
		}
		c <- cloneLines(snap)
	}
}

func (s *Store) persist(ctx context.Context) bool {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if s.version == s.saved {
		s.mu.Unlock()
		return false
	}
	rec := Record{Version: s.version, SavedAt: s.opts.Now().UTC(), Items: cloneLines(s.lines)}
	s.mu.Unlock()

	s.chain.Save(ctx, s.key, rec)

	s.mu.Lock()
	if rec.Version > s.saved {
		s.saved = rec.Version
	}
	s.mu.Unlock()
	s.log.Debug("cart.flush", zap.String("key", s.key), zap.Int64("version", rec.Version), zap.Int("lines", len(rec.Items)))
	if s.opts.OnFlush != nil {
		s.opts.OnFlush(ctx, s.key, rec.Version)
	}
	return true
}
