package ticker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/krisalay/clientsync/backend"
	"github.com/krisalay/clientsync/model"
	"github.com/krisalay/clientsync/request"
	"github.com/krisalay/clientsync/tickercache"
)

// ErrSuperseded is returned to a Load whose symbol was replaced by a newer Load.
var ErrSuperseded = errors.New("ticker load superseded")

type State struct {
	Symbol    string
	Detail    *model.TickerDetail
	Loading   bool
	Error     string
	FromCache bool
}

// Loader backs the single-ticker view: one symbol at a time, cache first.
type Loader struct {
	market  backend.MarketData
	tickers *tickercache.Cache
	logger  *zap.Logger

	req request.Tracker

	mu    sync.Mutex
	state State
}

func NewLoader(market backend.MarketData, tickers *tickercache.Cache, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{market: market, tickers: tickers, logger: logger.With(zap.String("component", "ticker"))}
}

func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state
	if st.Detail != nil {
		d := *st.Detail
		st.Detail = &d
	}
	return st
}

/*
Load shows symbol. The ticker cache (and its snapshot store) is tried first
unless force is set. A response for a symbol the view has since moved away
from is dropped and ErrSuperseded is returned.
*/
func (l *Loader) Load(ctx context.Context, symbol string, force bool) (model.TickerDetail, error) {
	sym := model.NormalizeSymbol(symbol)
	if sym == "" {
		return model.TickerDetail{}, nil
	}

	reqCtx, tok := l.req.Begin(ctx)
	defer l.req.Done(tok)

	l.mu.Lock()
	l.state = State{Symbol: sym, Loading: true}
	l.mu.Unlock()

	if !force {
		d, ok, err := l.tickers.Fetch(reqCtx, sym)
		if err != nil {
			l.logger.Debug("ticker snapshot read failed", zap.String("ticker", sym), zap.Error(err))
		}
		if ok {
			l.settle(tok, &d, "", true)
			return d, nil
		}
	}

	d, err := l.market.FetchTickerDetail(reqCtx, sym)
	if !l.req.Current(tok) {
		return model.TickerDetail{}, ErrSuperseded
	}
	if err != nil {
		msg := "Failed to fetch ticker data"
		if backend.IsNotFound(err) {
			msg = "Ticker not found"
		}
		l.settle(tok, nil, msg, false)
		return model.TickerDetail{}, fmt.Errorf("fetch ticker %s: %w", sym, err)
	}

	if d.Ticker == "" {
		d.Ticker = sym
	}
	l.tickers.Set(ctx, sym, d)
	l.settle(tok, &d, "", false)
	return d, nil
}

func (l *Loader) settle(tok request.Token, d *model.TickerDetail, errMsg string, fromCache bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.req.Current(tok) {
		return
	}
	l.state.Detail = d
	l.state.Loading = false
	l.state.Error = errMsg
	l.state.FromCache = fromCache
}

// Reset forgets the current symbol and cancels its load.
func (l *Loader) Reset() {
	l.req.Cancel()
	l.mu.Lock()
	l.state = State{}
	l.mu.Unlock()
}
