package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/krisalay/clientsync/events"
	"github.com/krisalay/clientsync/model"
)

func (c *cli) watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the session in sync and log every change until interrupted",
		Long: `watch resyncs bookmarks, content filters, the watchlist and the home
feed every --interval. Each state change is logged and, with nats.url set,
forwarded to NATS. /metrics is served when metrics.address is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, ctx := errgroup.WithContext(cmd.Context())
			c.subscribe()

			g.Go(func() error { return c.app.Serve(ctx) })
			g.Go(func() error {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					c.sync(ctx)
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
					}
				}
			})
			return g.Wait()
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "resync period")
	return cmd
}

func (c *cli) sync(ctx context.Context) {
	s := c.app.Session
	if !s.SignedIn() {
		c.log.Warn("not signed in; nothing to sync")
		return
	}
	if err := s.Sync(ctx); err != nil {
		c.log.Warn("sync failed", zap.Error(err))
	}
	if err := s.Timeline.Load(ctx, model.PostQuery{}, false); err != nil {
		c.log.Warn("feed load failed", zap.Error(err))
	}
}

func (c *cli) subscribe() {
	bus := c.app.Session.Bus
	log := c.log.Named("events")

	events.Subscribe(bus, events.FeedUpdatedTopic, func(_ context.Context, e events.FeedUpdated) {
		log.Info(events.FeedUpdatedTopic.Name, zap.Int("posts", len(e.Posts)))
	})
	events.Subscribe(bus, events.WatchlistUpdatedTopic, func(_ context.Context, e events.WatchlistUpdated) {
		tickers := make([]string, 0, len(e.Items))
		for _, it := range e.Items {
			tickers = append(tickers, it.Ticker)
		}
		log.Info(events.WatchlistUpdatedTopic.Name, zap.Strings("tickers", tickers))
	})
	events.Subscribe(bus, events.BookmarksUpdatedTopic, func(_ context.Context, e events.BookmarksUpdated) {
		log.Info(events.BookmarksUpdatedTopic.Name, zap.String("user_id", e.UserID), zap.Strings("ids", e.IDs))
	})
	events.Subscribe(bus, events.ContentFiltersUpdatedTopic, func(_ context.Context, e events.ContentFiltersUpdated) {
		log.Info(events.ContentFiltersUpdatedTopic.Name,
			zap.String("user_id", e.UserID),
			zap.Strings("muted", e.Muted),
			zap.Strings("blocked", e.Blocked),
		)
	})
}
