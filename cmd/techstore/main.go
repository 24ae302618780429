package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"techstore/internal/cache"
	"techstore/internal/cart"
	"techstore/internal/config"
	"techstore/internal/events"
	"techstore/internal/http/handlers"
	applog "techstore/internal/log"
	"techstore/internal/media"
	"techstore/internal/mongostore"
	"techstore/internal/realtime"
	"techstore/internal/repos"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	lg, _ := applog.Init(cfg.LogLevel, cfg.LogFile)
	defer func() { _ = lg.Sync() }()
	applog.Info(nil, "server.config", cfg.Fields())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		lg.Fatal("db.open", zap.Error(err))
	}
	defer db.Close()

	tiers := cart.Tiers{
		Durable: repos.NewSnapshotRepo(db),
		Backup:  repos.NewSnapshotBackupRepo(db),
	}
	ext := handlers.Externals{}

	// Redis carries the session tier and both pub/sub channels. Without it the
	// session tier and the bus are in-process.
	var bus realtime.Broker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			lg.Warn("redis.ping", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		tiers.Session = cart.WithBreaker(cache.NewRedisTier(rdb, cfg.CartSessionTTL), cart.BreakerSettings{})
		bus = realtime.NewRedisBus(rdb)
	} else {
		tiers.Session = cache.NewMemoryTier(cfg.CartSessionTTL, nil)
		bus = realtime.NewLocal()
	}
	ext.Bus = bus

	if cfg.MongoURI != "" {
		connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		mdb, err := mongostore.ConnectMongoDB(connCtx, cfg.MongoURI, cfg.MongoDB)
		cancel()
		if err != nil {
			lg.Warn("mongo.connect", zap.Error(err))
		} else {
			tiers.Backup = cart.WithBreaker(mongostore.NewBackupTier(mdb), cart.BreakerSettings{})
			defer func() { _ = mdb.Client().Disconnect(context.Background()) }()
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub := events.NewPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer pub.Close()
		ext.Events = pub
	}
	if cfg.CloudinaryURL != "" {
		cld, err := media.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			lg.Warn("cloudinary.init", zap.Error(err))
		} else {
			ext.Images = cld
		}
	}

	carts := cart.NewRegistry(tiers, cart.RegistryOptions{
		Debounce:  cfg.CartDebounce,
		Freshness: cfg.CartFreshness,
		IdleTTL:   cfg.CartSessionTTL,
		Notifier:  bus,
	})
	ext.Carts = carts
	unsub, err := bus.Subscribe(ctx, cart.InvalidationChannel, carts.HandleInvalidation)
	if err != nil {
		lg.Warn("cart.invalidation.subscribe", zap.Error(err))
	} else {
		defer unsub()
	}
	go carts.Run(ctx, time.Minute)

	deps := handlers.NewDeps(db, cfg, ext)
	unsubSettings, err := deps.Settings.Start(ctx)
	if err != nil {
		lg.Warn("settings.subscribe", zap.Error(err))
	} else {
		defer unsubSettings()
	}
	if created, err := deps.Staff.SeedSuperAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		lg.Error("seed.admin", zap.Error(err))
	} else if created {
		applog.Audit(nil, "seed.admin", map[string]any{"email": cfg.AdminEmail})
	}

	app := handlers.NewApp(deps, handlers.AppOptions{
		TemplatesDir: cfg.TemplatesDir,
		CSRF:         true,
		AccessLog:    true,
		CORSOrigins:  cfg.CORSOrigins,
		Limits:       handlers.DefaultLimits(),
	})

	errc := make(chan error, 1)
	go func() { errc <- app.Listen(":" + cfg.Port) }()
	lg.Info("server.start", zap.String("port", cfg.Port))

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil && !errors.Is(err, context.Canceled) {
			lg.Error("server.listen", zap.Error(err))
		}
	}

	lg.Info("server.shutdown")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		lg.Warn("server.shutdown", zap.Error(err))
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	carts.Close(flushCtx)
}
