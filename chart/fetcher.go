package chart

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/krisalay/clientsync/backend"
	"github.com/krisalay/clientsync/model"
)

// ErrorKind is the terminal error a Result may carry.
type ErrorKind string

const ErrUnavailable ErrorKind = "unavailable"

const (
	DefaultDelay      = time.Second
	DefaultMaxRetries = 2
)

// Attempt outcomes reported to the Recorder.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

var errEmpty = errors.New("empty chart")

// Result is always a usable value: Data is never nil, and Err is set only
// once every attempt failed.
type Result struct {
	Data []model.ChartPoint
	Err  ErrorKind
}

type Recorder interface {
	ChartAttempt(outcome string)
}

type Config struct {
	// Delay between attempts. Zero means DefaultDelay.
	Delay time.Duration
	// MaxRetries after the first attempt. Zero means DefaultMaxRetries.
	MaxRetries int
}

/*
Fetcher loads chart points with a small, fixed retry budget.

An attempt fails when the call errors or returns no points. Failed attempts are
retried after a constant delay; once the budget is spent the caller gets an
empty Result marked unavailable. A malformed symbol is not retried.
*/
type Fetcher struct {
	market   backend.MarketData
	delay    time.Duration
	retries  uint64
	recorder Recorder
	logger   *zap.Logger
}

func NewFetcher(market backend.MarketData, cfg Config, recorder Recorder, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	delay := cfg.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	return &Fetcher{
		market:   market,
		delay:    delay,
		retries:  uint64(retries),
		recorder: recorder,
		logger:   logger.With(zap.String("component", "chart")),
	}
}

func (f *Fetcher) record(outcome string) {
	if f.recorder != nil {
		f.recorder.ChartAttempt(outcome)
	}
}

func (f *Fetcher) Fetch(ctx context.Context, ticker string, rng model.Range) Result {
	sym := model.NormalizeSymbol(ticker)
	rng = model.NormalizeRange(rng)

	var data []model.ChartPoint
	attempt := func() error {
		points, err := f.market.FetchTickerChart(ctx, sym, rng)
		switch {
		case err != nil && backend.IsSilent(err):
			data = []model.ChartPoint{}
			return nil
		case err != nil && backend.IsValidation(err):
			f.record(OutcomeInvalid)
			return backoff.Permanent(err)
		case err != nil:
			f.record(OutcomeError)
			return err
		case len(points) == 0:
			f.record(OutcomeEmpty)
			return errEmpty
		}
		f.record(OutcomeOK)
		data = points
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.delay), f.retries),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		f.logger.Debug("chart attempt failed, retrying",
			zap.String("ticker", sym),
			zap.String("range", string(rng)),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(attempt, policy, notify); err != nil {
		f.logger.Info("chart unavailable",
			zap.String("ticker", sym),
			zap.String("range", string(rng)),
			zap.Error(err),
		)
		return Result{Data: []model.ChartPoint{}, Err: ErrUnavailable}
	}
	return Result{Data: data}
}
