package cart

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	applog "techstore/internal/log"
)

// Chain fans records out to the persistence tiers and reconstructs them in priority
// order: fast, session, durable, backup. Nil tiers are skipped.
type Chain struct {
	Fast    *MemoryCache
	Session Tier
	Durable Tier
	Backup  Tier

	log *zap.Logger
}

func NewChain(fast *MemoryCache, session, durable, backup Tier) *Chain {
	return &Chain{Fast: fast, Session: session, Durable: durable, Backup: backup, log: applog.Component("cart.chain")}
}

// Source names where a loaded record came from.
const (
	SourceNone    = "none"
	SourceFast    = "fast"
	SourceSession = "session"
	SourceDurable = "durable"
	SourceBackup  = "backup"
)

// Load returns the first non-empty, parseable record. Failures of any kind count as misses.
func (c *Chain) Load(ctx context.Context, key string, useFast bool) (Record, string) {
	if useFast && c.Fast != nil {
		if rec, ok := c.Fast.Get(key); ok && !rec.Empty() {
			return rec, SourceFast
		}
	}
	if rec, ok := c.probe(ctx, c.Session, key); ok {
		return rec, SourceSession
	}
	if raw, rec, ok := c.probeRaw(ctx, c.Durable, key); ok {
		if c.Session != nil {
			if err := c.Session.Save(ctx, key, rec.Version, raw); err != nil {
				c.log.Warn("cart.tier.mirror.fail", zap.String("tier", c.Session.Name()), zap.String("key", key), zap.Error(err))
			}
		}
		return rec, SourceDurable
	}
	if rec, ok := c.probe(ctx, c.Backup, key); ok {
		return rec, SourceBackup
	}
	return Record{}, SourceNone
}

func (c *Chain) probe(ctx context.Context, t Tier, key string) (Record, bool) {
	_, rec, ok := c.probeRaw(ctx, t, key)
	return rec, ok
}

func (c *Chain) probeRaw(ctx context.Context, t Tier, key string) ([]byte, Record, bool) {
	if t == nil {
		return nil, Record{}, false
	}
	raw, err := t.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.Warn("cart.tier.load.fail", zap.String("tier", t.Name()), zap.String("key", key), zap.Error(err))
		}
		return nil, Record{}, false
	}
	rec, err := Decode(raw)
	if err != nil {
		c.log.Warn("cart.tier.decode.fail", zap.String("tier", t.Name()), zap.String("key", key), zap.Error(err))
		return nil, Record{}, false
	}
	if rec.Empty() {
		return nil, Record{}, false
	}
	return raw, rec, true
}

// Save writes rec to durable, session and backup, each independently. When the durable
// write fails the backup is attempted once more as a last resort.
func (c *Chain) Save(ctx context.Context, key string, rec Record) {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}
	payload, err := Encode(rec)
	if err != nil {
		c.log.Error("cart.record.encode.fail", zap.String("key", key), zap.Error(err))
		return
	}
	durableErr := c.save(ctx, c.Durable, key, rec.Version, payload)
	_ = c.save(ctx, c.Session, key, rec.Version, payload)
	backupErr := c.save(ctx, c.Backup, key, rec.Version, payload)
	if durableErr != nil && backupErr != nil {
		_ = c.save(ctx, c.Backup, key, rec.Version, payload)
	}
}

func (c *Chain) save(ctx context.Context, t Tier, key string, version int64, payload []byte) error {
	if t == nil {
		return nil
	}
	if err := t.Save(ctx, key, version, payload); err != nil {
		c.log.Warn("cart.tier.save.fail", zap.String("tier", t.Name()), zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Erase removes key from every tier.
func (c *Chain) Erase(ctx context.Context, key string) {
	if c.Fast != nil {
		c.Fast.Delete(key)
	}
	for _, t := range []Tier{c.Session, c.Durable, c.Backup} {
		if t == nil {
			continue
		}
		if err := t.Delete(ctx, key); err != nil {
			c.log.Warn("cart.tier.delete.fail", zap.String("tier", t.Name()), zap.String("key", key), zap.Error(err))
		}
	}
}

// TierStatus is one row of CacheStatus.
type TierStatus struct {
	Name    string `json:"name"`
	HasData bool   `json:"has_data"`
	Error   string `json:"error,omitempty"`
}

func (c *Chain) probeAll(ctx context.Context, key string) []TierStatus {
	var out []TierStatus
	for _, t := range []Tier{c.Session, c.Durable, c.Backup} {
		if t == nil {
			continue
		}
		st := TierStatus{Name: t.Name()}
		raw, err := t.Load(ctx, key)
		switch {
		case errors.Is(err, ErrMiss):
		case err != nil:
			st.Error = err.Error()
		default:
			rec, derr := Decode(raw)
			if derr != nil {
				st.Error = derr.Error()
			} else {
				st.HasData = !rec.Empty()
			}
		}
		out = append(out, st)
	}
	return out
}
