package watchlist

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/clientsync/backend"
	"github.com/krisalay/clientsync/events"
	"github.com/krisalay/clientsync/model"
	"github.com/krisalay/clientsync/tickercache"
)

// DefaultBatchSize is the most symbols the market proxy resolves per request.
const DefaultBatchSize = 20

const refreshKey = "refresh"

// State is a point-in-time copy of the synchronizer.
type State struct {
	Items   []model.WatchlistItem
	Loading bool
	Error   string
}

type Config struct {
	BatchSize int
}

/*
Synchronizer owns the enriched projection of the user's watchlist.
The backend owns which tickers are watched; prices come from the market proxy
and the ticker cache.

Overlapping Refresh calls share one flight. A mutation starts a fresh flight,
and every flight carries a generation: only the newest one may apply its result,
so an older flight finishing late never overwrites newer state.
*/
type Synchronizer struct {
	lists    backend.Watchlist
	market   backend.MarketData
	tickers  *tickercache.Cache
	identity backend.IdentitySource
	bus      *events.Bus
	logger   *zap.Logger

	batchSize int

	sf singleflight.Group

	mu      sync.Mutex
	items   []model.WatchlistItem
	loading bool
	err     string
	gen     uint64
}

func New(
	lists backend.Watchlist,
	market backend.MarketData,
	tickers *tickercache.Cache,
	identity backend.IdentitySource,
	bus *events.Bus,
	logger *zap.Logger,
	cfg Config,
) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.BatchSize
	if size <= 0 || size > DefaultBatchSize {
		size = DefaultBatchSize
	}
	return &Synchronizer{
		lists:     lists,
		market:    market,
		tickers:   tickers,
		identity:  identity,
		bus:       bus,
		logger:    logger.With(zap.String("component", "watchlist")),
		batchSize: size,
	}
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Items: slices.Clone(s.items), Loading: s.loading, Error: s.err}
}

func (s *Synchronizer) Items() []model.WatchlistItem {
	return s.State().Items
}

func (s *Synchronizer) Contains(symbol string) bool {
	sym := model.NormalizeSymbol(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.ContainsFunc(s.items, func(it model.WatchlistItem) bool { return it.Ticker == sym })
}

// Refresh reloads the watchlist, joining a refresh already in flight.
// The caller stops waiting when ctx is done; the shared flight keeps going.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	flightCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(refreshKey, func() (any, error) {
		return nil, s.refresh(flightCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// forceRefresh starts a new flight even if one is running.
func (s *Synchronizer) forceRefresh(ctx context.Context) error {
	s.sf.Forget(refreshKey)
	return s.Refresh(ctx)
}

func (s *Synchronizer) refresh(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.loading = true
	s.err = ""
	prev := make(map[string]model.WatchlistItem, len(s.items))
	for _, it := range s.items {
		prev[it.Ticker] = it
	}
	s.mu.Unlock()

	if !s.identity.Identity().SignedIn() {
		s.apply(ctx, gen, []model.WatchlistItem{}, "")
		return nil
	}

	entries, err := s.lists.ListWatchlist(ctx)
	if err != nil {
		if backend.IsSilent(err) {
			s.apply(ctx, gen, []model.WatchlistItem{}, "")
			return nil
		}
		s.logger.Warn("list watchlist failed", zap.Error(err))
		s.fail(gen, backend.UserMessage(err, "Failed to load watchlist"))
		return fmt.Errorf("list watchlist: %w", err)
	}

	if len(entries) == 0 {
		s.apply(ctx, gen, []model.WatchlistItem{}, "")
		return nil
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, model.NormalizeSymbol(e.Ticker))
	}
	data := s.enrich(ctx, symbols)

	items := make([]model.WatchlistItem, 0, len(entries))
	for i, e := range entries {
		sym := symbols[i]
		p, hadPrev := prev[sym]
		items = append(items, buildItem(sym, e, data[sym], p, hadPrev))
	}

	s.apply(ctx, gen, items, "")
	return nil
}

/*
buildItem merges one backend entry with its market data.

- data present: fresh item; the image falls back to the previous one
- data missing: the previous row is kept as it was rendered
- nothing known: entry name (or the symbol), zero price and change
*/
func buildItem(sym string, e model.WatchlistEntry, d *model.TickerDetail, prev model.WatchlistItem, hadPrev bool) model.WatchlistItem {
	if d != nil {
		name := firstNonEmpty(d.Name, e.Name, sym)
		image := d.Image
		if image == "" && hadPrev {
			image = prev.Image
		}
		return model.WatchlistItem{
			Ticker:        sym,
			Name:          name,
			Price:         d.CurrentPrice,
			ChangePercent: d.PriceChangePercent24h,
			Image:         image,
		}
	}

	if hadPrev {
		prev.Ticker = sym
		return prev
	}
	return model.WatchlistItem{Ticker: sym, Name: firstNonEmpty(e.Name, sym)}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

/*
enrich resolves market data per symbol. Symbols still valid in the ticker cache
skip the network; the rest are looked up in batches run concurrently.
A failed batch leaves its symbols without data. Nothing here is an error.
*/
func (s *Synchronizer) enrich(ctx context.Context, symbols []string) map[string]*model.TickerDetail {
	out := make(map[string]*model.TickerDetail, len(symbols))

	var missing []string
	for _, sym := range symbols {
		if _, seen := out[sym]; seen || slices.Contains(missing, sym) {
			continue
		}
		if d, ok := s.tickers.Get(sym); ok {
			out[sym] = &d
			continue
		}
		missing = append(missing, sym)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for chunk := range slices.Chunk(missing, s.batchSize) {
		g.Go(func() error {
			res, err := s.market.BatchTickerLookup(ctx, chunk)
			if err != nil {
				s.logger.Warn("batch ticker lookup failed",
					zap.Strings("symbols", chunk),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, r := range res {
				if r.Data == nil {
					continue
				}
				sym := model.NormalizeSymbol(r.Ticker)
				d := *r.Data
				out[sym] = &d
				s.tickers.Set(ctx, sym, d)
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *Synchronizer) apply(ctx context.Context, gen uint64, items []model.WatchlistItem, errMsg string) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded refresh", zap.Uint64("generation", gen))
		return
	}
	s.items = items
	s.loading = false
	s.err = errMsg
	s.mu.Unlock()

	s.publish(ctx, items)
}

// fail records an error and keeps the items the user already sees.
func (s *Synchronizer) fail(gen uint64, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.loading = false
	s.err = errMsg
}

func (s *Synchronizer) publish(ctx context.Context, items []model.WatchlistItem) {
	events.Publish(ctx, s.bus, events.WatchlistUpdatedTopic, events.WatchlistUpdated{Items: slices.Clone(items)})
}

// AddTicker adds symbol on the backend, then reloads. Not optimistic: the new row
// needs market data before it can be shown.
func (s *Synchronizer) AddTicker(ctx context.Context, symbol string) error {
	sym := model.NormalizeSymbol(symbol)
	if sym == "" || !s.identity.Identity().SignedIn() || s.Contains(sym) {
		return nil
	}

	if err := s.lists.AddToWatchlist(ctx, sym); err != nil {
		if backend.IsSilent(err) {
			return nil
		}
		s.setError(backend.UserMessage(err, "Failed to add to watchlist"))
		return fmt.Errorf("add %s to watchlist: %w", sym, err)
	}

	s.logger.Info("ticker added", zap.String("ticker", sym))
	return s.forceRefresh(ctx)
}

// RemoveTicker removes symbol on the backend and, only once that succeeded, locally.
func (s *Synchronizer) RemoveTicker(ctx context.Context, symbol string) error {
	sym := model.NormalizeSymbol(symbol)
	if sym == "" || !s.identity.Identity().SignedIn() {
		return nil
	}

	if err := s.lists.RemoveFromWatchlist(ctx, sym); err != nil {
		if backend.IsSilent(err) {
			return nil
		}
		s.setError(backend.UserMessage(err, "Failed to remove from watchlist"))
		return fmt.Errorf("remove %s from watchlist: %w", sym, err)
	}

	s.mu.Lock()
	// a refresh that listed before the removal must not bring the row back
	s.gen++
	s.loading = false
	s.items = slices.DeleteFunc(slices.Clone(s.items), func(it model.WatchlistItem) bool { return it.Ticker == sym })
	items := s.items
	s.mu.Unlock()
	s.sf.Forget(refreshKey)

	s.logger.Info("ticker removed", zap.String("ticker", sym))
	s.publish(ctx, items)
	return nil
}

func (s *Synchronizer) setError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

// Reset drops all state and orphans any refresh in flight. Used on logout.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	s.gen++
	s.items = nil
	s.loading = false
	s.err = ""
	s.mu.Unlock()
	s.sf.Forget(refreshKey)
}
