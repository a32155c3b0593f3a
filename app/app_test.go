package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/clientsync/app"
	"github.com/krisalay/clientsync/config"
	"github.com/krisalay/clientsync/model"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/watchlist", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []model.WatchlistEntry{{Ticker: "BTC"}}})
	})
	mux.HandleFunc("GET /api/ticker/batch", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []model.BatchResult{{
			Ticker: "BTC",
			Data:   &model.TickerDetail{Ticker: "BTC", Name: "Bitcoin", CurrentPrice: 65000},
		}}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func loadConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	cfg.Backend.URL = backendURL
	cfg.Backend.MarketURL = backendURL
	return cfg
}

func TestWiresSessionOverREST(t *testing.T) {
	ctx := context.Background()
	cfg := loadConfig(t, newBackend(t).URL)
	cfg.Identity = config.IdentityConfig{Token: "tok", UserID: "u1", Handle: "ada"}

	a, err := app.New(ctx, cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	require.True(t, a.Session.SignedIn())
	require.NoError(t, a.Session.Watchlist.Refresh(ctx))

	assert.Equal(t, []model.WatchlistItem{{Ticker: "BTC", Name: "Bitcoin", Price: 65000}}, a.Session.Watchlist.Items())
	assert.True(t, a.Session.Tickers.IsValid("BTC"))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.CacheEvents.WithLabelValues("ticker", "miss")))
}

func TestSignedOutWithoutToken(t *testing.T) {
	cfg := loadConfig(t, newBackend(t).URL)

	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.Session.SignedIn())
	require.NoError(t, a.Session.Watchlist.Refresh(context.Background()))
	assert.Empty(t, a.Session.Watchlist.Items())
}

func TestServeDisabledWithoutAddress(t *testing.T) {
	cfg := loadConfig(t, "")
	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.NoError(t, a.Serve(context.Background()))
}
