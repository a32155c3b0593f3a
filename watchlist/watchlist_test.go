package watchlist_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/clientsync"
	"github.com/krisalay/clientsync/backend"
	"github.com/krisalay/clientsync/backend/backendtest"
	"github.com/krisalay/clientsync/events"
	"github.com/krisalay/clientsync/model"
	"github.com/krisalay/clientsync/tickercache"
	"github.com/krisalay/clientsync/watchlist"
)

var signedIn = backend.StaticIdentity{Token: "T", UserID: "u1", Handle: "ada"}

type fixture struct {
	be      *backendtest.Backend
	tickers *tickercache.Cache
	bus     *events.Bus
	sync    *watchlist.Synchronizer
}

func newFixture(id backend.IdentitySource) *fixture {
	be := backendtest.New()
	tickers := tickercache.New(cache.New(cache.Options{}))
	bus := events.NewBus(nil)
	return &fixture{
		be:      be,
		tickers: tickers,
		bus:     bus,
		sync:    watchlist.New(be, be, tickers, id, bus, nil, watchlist.Config{}),
	}
}

func TestAddTickerScenario(t *testing.T) {
	f := newFixture(signedIn)
	f.be.Tickers["BTC"] = model.TickerDetail{Ticker: "BTC", Name: "Bitcoin", CurrentPrice: 65000, PriceChangePercent24h: 1.2}

	var published []events.WatchlistUpdated
	events.Subscribe(f.bus, events.WatchlistUpdatedTopic, func(_ context.Context, e events.WatchlistUpdated) {
		published = append(published, e)
	})

	require.NoError(t, f.sync.AddTicker(context.Background(), "btc"))

	assert.Equal(t, []model.WatchlistItem{{Ticker: "BTC", Name: "Bitcoin", Price: 65000, ChangePercent: 1.2}}, f.sync.Items())
	assert.Equal(t, 1, f.be.Calls("AddToWatchlist"))
	assert.Equal(t, 1, f.be.Calls("ListWatchlist"))
	require.Len(t, published, 1)
	assert.Len(t, published[0].Items, 1)

	// enrichment warmed the ticker cache
	assert.True(t, f.tickers.IsValid("BTC"))
}

func TestAddTickerNoops(t *testing.T) {
	ctx := context.Background()

	f := newFixture(signedIn)
	require.NoError(t, f.sync.AddTicker(ctx, "   "))
	assert.Equal(t, 0, f.be.Calls("AddToWatchlist"))

	f.be.Tickers["BTC"] = model.TickerDetail{Ticker: "BTC"}
	require.NoError(t, f.sync.AddTicker(ctx, "BTC"))
	require.NoError(t, f.sync.AddTicker(ctx, "btc"))
	assert.Equal(t, 1, f.be.Calls("AddToWatchlist"))

	guest := newFixture(backend.StaticIdentity{})
	require.NoError(t, guest.sync.AddTicker(ctx, "BTC"))
	assert.Equal(t, 0, guest.be.Calls("AddToWatchlist"))
}

func TestAddTickerFailureSurfacesError(t *testing.T) {
	f := newFixture(signedIn)
	f.be.Fail("AddToWatchlist", &backend.APIError{Status: 422, Message: "Unknown symbol"})

	err := f.sync.AddTicker(context.Background(), "zzz")

	assert.True(t, backend.IsValidation(err))
	assert.Equal(t, "Unknown symbol", f.sync.State().Error)
	assert.Equal(t, 0, f.be.Calls("ListWatchlist"))
}

func TestRefreshFallsBackToPreviousValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "BTC"}}
	f.be.Tickers["BTC"] = model.TickerDetail{Ticker: "BTC", Name: "Bitcoin", CurrentPrice: 100, Image: "btc.png"}

	require.NoError(t, f.sync.Refresh(ctx))
	require.Equal(t, 100.0, f.sync.Items()[0].Price)

	// provider miss and a cold ticker cache
	delete(f.be.Tickers, "BTC")
	f.tickers.Clear(ctx)

	require.NoError(t, f.sync.Refresh(ctx))
	assert.Equal(t, []model.WatchlistItem{{Ticker: "BTC", Name: "Bitcoin", Price: 100, Image: "btc.png"}}, f.sync.Items())
}

func TestRefreshWithoutAnyData(t *testing.T) {
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "aapl", Name: "Apple"}, {Ticker: "xyz"}}

	require.NoError(t, f.sync.Refresh(context.Background()))
	assert.Equal(t, []model.WatchlistItem{
		{Ticker: "AAPL", Name: "Apple"},
		{Ticker: "XYZ", Name: "XYZ"},
	}, f.sync.Items())
}

func TestImageFallsBackToPrevious(t *testing.T) {
	ctx := context.Background()
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "ETH"}}
	f.be.Tickers["ETH"] = model.TickerDetail{Name: "Ethereum", CurrentPrice: 3000, Image: "eth.png"}
	require.NoError(t, f.sync.Refresh(ctx))

	f.be.Tickers["ETH"] = model.TickerDetail{Name: "Ethereum", CurrentPrice: 3100}
	f.tickers.Clear(ctx)
	require.NoError(t, f.sync.Refresh(ctx))

	it := f.sync.Items()[0]
	assert.Equal(t, 3100.0, it.Price)
	assert.Equal(t, "eth.png", it.Image)
}

func TestBatchFailureIsNotAnError(t *testing.T) {
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "BTC", Name: "Bitcoin"}}
	f.be.Fail("BatchTickerLookup", errors.New("provider down"))

	require.NoError(t, f.sync.Refresh(context.Background()))
	st := f.sync.State()
	assert.Empty(t, st.Error)
	assert.Equal(t, []model.WatchlistItem{{Ticker: "BTC", Name: "Bitcoin"}}, st.Items)
}

func TestListFailureKeepsItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "BTC"}}
	f.be.Tickers["BTC"] = model.TickerDetail{Name: "Bitcoin", CurrentPrice: 1}
	require.NoError(t, f.sync.Refresh(ctx))

	f.be.Fail("ListWatchlist", errors.New("connection reset"))
	err := f.sync.Refresh(ctx)

	require.Error(t, err)
	st := f.sync.State()
	assert.Equal(t, "Failed to load watchlist", st.Error)
	assert.Len(t, st.Items, 1)
	assert.False(t, st.Loading)
}

func TestUnauthenticatedIsEmptyWithoutError(t *testing.T) {
	f := newFixture(backend.StaticIdentity{})

	require.NoError(t, f.sync.Refresh(context.Background()))
	st := f.sync.State()
	assert.Empty(t, st.Items)
	assert.Empty(t, st.Error)
	assert.Equal(t, 0, f.be.Calls("ListWatchlist"))
}

func TestEmptyWatchlistSkipsLookup(t *testing.T) {
	f := newFixture(signedIn)

	require.NoError(t, f.sync.Refresh(context.Background()))
	assert.NotNil(t, f.sync.Items())
	assert.Empty(t, f.sync.Items())
	assert.Equal(t, 0, f.be.Calls("BatchTickerLookup"))
}

func TestLookupIsChunkedAndSkipsWarmTickers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(signedIn)
	for i := 0; i < 46; i++ {
		f.be.Watchlist = append(f.be.Watchlist, model.WatchlistEntry{Ticker: fmt.Sprintf("T%02d", i)})
	}
	f.tickers.Set(ctx, "T00", model.TickerDetail{Name: "warm", CurrentPrice: 9})

	require.NoError(t, f.sync.Refresh(ctx))

	sizes := map[int]int{}
	total := 0
	for _, b := range f.be.Batches {
		sizes[len(b)]++
		total += len(b)
	}
	assert.Equal(t, 45, total)
	assert.Equal(t, map[int]int{20: 2, 5: 1}, sizes)

	items := f.sync.Items()
	require.Len(t, items, 46)
	assert.Equal(t, "warm", items[0].Name)
	assert.Equal(t, 9.0, items[0].Price)
}

func TestRemoveTicker(t *testing.T) {
	ctx := context.Background()
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "BTC"}, {Ticker: "ETH"}}
	require.NoError(t, f.sync.Refresh(ctx))

	require.NoError(t, f.sync.RemoveTicker(ctx, "btc"))
	assert.False(t, f.sync.Contains("BTC"))
	assert.True(t, f.sync.Contains("ETH"))
}

func TestRemoveTickerFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "BTC"}}
	require.NoError(t, f.sync.Refresh(ctx))

	f.be.Fail("RemoveFromWatchlist", errors.New("timeout"))
	require.Error(t, f.sync.RemoveTicker(ctx, "BTC"))

	st := f.sync.State()
	assert.True(t, f.sync.Contains("BTC"))
	assert.Equal(t, "Failed to remove from watchlist", st.Error)
}

func TestConcurrentRefreshesShareOneFlight(t *testing.T) {
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "BTC"}}

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.be.OnCall("ListWatchlist", func() {
		once.Do(func() { close(entered) })
		<-release
	})

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- f.sync.Refresh(context.Background())
	}()
	<-entered

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.sync.Refresh(context.Background())
		}()
	}

	// let the joiners reach the flight
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, f.be.Calls("ListWatchlist"))
	assert.Len(t, f.sync.Items(), 1)
}

func TestSupersededRefreshIsDiscarded(t *testing.T) {
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "BTC"}}

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	f.be.OnCall("ListWatchlist", func() {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
	})

	done := make(chan error, 1)
	go func() { done <- f.sync.Refresh(context.Background()) }()
	<-entered

	// the add forces a second flight that lists BTC and ETH
	require.NoError(t, f.sync.AddTicker(context.Background(), "eth"))
	require.Len(t, f.sync.Items(), 2)

	// the first flight still answers with BTC alone
	close(release)
	require.NoError(t, <-done)

	assert.Len(t, f.sync.Items(), 2)
}

func TestCallerCancellationDoesNotCancelFlight(t *testing.T) {
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "BTC"}}

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.be.OnCall("ListWatchlist", func() {
		once.Do(func() { close(entered) })
		<-release
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.sync.Refresh(ctx) }()
	<-entered

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.NoError(t, f.sync.Refresh(context.Background()))
	assert.Len(t, f.sync.Items(), 1)
}

func TestResetOrphansInFlightRefresh(t *testing.T) {
	f := newFixture(signedIn)
	f.be.Watchlist = []model.WatchlistEntry{{Ticker: "BTC"}}

	entered := make(chan struct{})
	release := make(chan struct{})
	f.be.OnCall("ListWatchlist", func() {
		close(entered)
		<-release
	})

	done := make(chan error, 1)
	go func() { done <- f.sync.Refresh(context.Background()) }()
	<-entered

	f.sync.Reset()
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, f.sync.Items())
}
