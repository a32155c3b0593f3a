package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/backend"
	"github.com/krisalay/clientsync/backend/rest"
	"github.com/krisalay/clientsync/chart"
	"github.com/krisalay/clientsync/config"
	"github.com/krisalay/clientsync/events"
	"github.com/krisalay/clientsync/logger"
	"github.com/krisalay/clientsync/metrics"
	"github.com/krisalay/clientsync/model"
	"github.com/krisalay/clientsync/session"
	"github.com/krisalay/clientsync/snapshot"
	"github.com/krisalay/clientsync/types"
	"github.com/krisalay/clientsync/watchlist"
	"github.com/krisalay/clientsync/writepolicy"
)

/*
App is a session wired from configuration.

Optional infrastructure is enabled by its config section:
- redis.address: ticker snapshots survive restarts
- nats.url: every event is forwarded to NATS
- metrics.address: /metrics is served by Serve
*/
type App struct {
	Config  *config.Config
	Session *session.Session
	Backend *rest.Client
	Metrics *metrics.Manager

	logger    *zap.Logger
	redis     *redis.Client
	forwarder *events.NATSForwarder
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)
	a := &App{
		Config:  cfg,
		Metrics: metrics.NewManager(cfg.Metrics.Namespace),
		logger:  log,
	}

	var store types.SnapshotStore
	if cfg.Redis.Address != "" {
		client, err := snapshot.NewClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			return nil, err
		}
		a.redis = client
		store = snapshot.NewRedisStore(client, log,
			snapshot.WithPrefix(cfg.Redis.Prefix),
			snapshot.WithDecoder(cache.NamespaceTicker, snapshot.JSONDecoder[model.TickerDetail]()),
			snapshot.WithTTL(cache.NamespaceTicker, cfg.Cache.TickerTTL),
		)
	}

	bus := events.NewBus(log)
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name("clientsync"),
			nats.Timeout(cfg.NATS.ConnectTimeout),
		)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect nats at %s: %w", cfg.NATS.URL, err)
		}
		a.forwarder = events.NewNATSForwarder(nc, cfg.NATS.SubjectPrefix, log)
		bus.SetForwarder(a.forwarder)
		log.Info("forwarding events to nats", zap.String("url", cfg.NATS.URL))
	}

	var sess *session.Session
	a.Backend = rest.NewClient(rest.Config{
		BaseURL:   cfg.Backend.URL,
		MarketURL: cfg.Backend.MarketURL,
		Timeout:   cfg.Backend.Timeout,
	}, backend.IdentityFunc(func() backend.Identity { return sess.Identity() }), log)

	keyed := cache.New(cache.Options{
		Shards: cfg.Cache.Shards,
		TTLs: map[string]time.Duration{
			cache.NamespaceFeed:    cfg.Cache.FeedTTL,
			cache.NamespaceTicker:  cfg.Cache.TickerTTL,
			cache.NamespaceContext: cfg.Cache.ContextTTL,
		},
		Snapshot:    store,
		WriteMode:   writepolicy.Mode(cfg.Cache.WriteMode),
		WriteBuffer: cfg.Cache.WriteBuffer,
		Persistent:  []string{cache.NamespaceTicker},
		Metrics:     a.Metrics,
		Logger:      log,
	})

	sess = session.New(ctx, session.Options{
		Backend:   a.Backend,
		Store:     keyed,
		Bus:       bus,
		Mutations: a.Metrics,
		Charts:    a.Metrics,
		Watchlist: watchlist.Config{BatchSize: cfg.Watchlist.BatchSize},
		Chart:     chart.Config{Delay: cfg.Chart.Delay, MaxRetries: cfg.Chart.MaxRetries},
		Logger:    log,
	})
	a.Session = sess

	if id := cfg.Identity; id.Token != "" {
		sess.SignIn(ctx, backend.Identity{Token: id.Token, UserID: id.UserID, Handle: id.Handle})
	}
	return a, nil
}

// Serve blocks serving /metrics until ctx is done. No-op without metrics.address.
func (a *App) Serve(ctx context.Context) error {
	return metrics.Serve(ctx, a.Config.Metrics.Address, a.Metrics.Registry, a.logger)
}

// Close flushes the session and closes the connections it opened.
func (a *App) Close() {
	if a.Session != nil {
		a.Session.Close()
	}
	if a.forwarder != nil {
		a.forwarder.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", zap.Error(err))
		}
	}
}
