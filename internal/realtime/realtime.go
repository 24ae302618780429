// Package realtime fans change notifications out to every instance.
package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	applog "techstore/internal/log"
)

const SettingsChannel = "settings.updated"

type Handler func(payload []byte)

type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe delivers every message on channel to h until cancel is called.
	Subscribe(ctx context.Context, channel string, h Handler) (cancel func(), err error)
}

// RedisBus is a Broker over Redis pub/sub.
type RedisBus struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client, log: applog.Component("realtime")}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string, h Handler) (func(), error) {
	ps := b.client.Subscribe(ctx, channel)
	// wait for the subscription to be confirmed so no publish after return is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			h([]byte(msg.Payload))
		}
	}()
	b.log.Info("realtime.subscribed", zap.String("channel", channel))

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = ps.Close()
			<-done
		})
	}, nil
}

// Local is an in-process Broker. Handlers run synchronously inside Publish.
type Local struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

func NewLocal() *Local {
	return &Local{subs: make(map[string]map[int]Handler)}
}

func (l *Local) Publish(_ context.Context, channel string, payload []byte) error {
	l.mu.RLock()
	hs := make([]Handler, 0, len(l.subs[channel]))
	for _, h := range l.subs[channel] {
		hs = append(hs, h)
	}
	l.mu.RUnlock()
	for _, h := range hs {
		h(append([]byte(nil), payload...))
	}
	return nil
}

func (l *Local) Subscribe(_ context.Context, channel string, h Handler) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	if l.subs[channel] == nil {
		l.subs[channel] = make(map[int]Handler)
	}
	l.subs[channel][id] = h
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs[channel], id)
	}, nil
}
