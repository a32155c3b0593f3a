package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/krisalay/clientsync/model"
)

type benchResult struct {
	Symbols    int     `json:"symbols"`
	Goroutines int     `json:"goroutines"`
	Operations int     `json:"operations"`
	Hits       int64   `json:"hits"`
	Duration   string  `json:"duration"`
	OpsPerSec  float64 `json:"opsPerSec"`
}

// benchCmd measures concurrent ticker cache reads against the configured store.
func (c *cli) benchCmd() *cobra.Command {
	var symbols, goroutines, opsPerG int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load test the ticker cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if symbols <= 0 || goroutines <= 0 {
				return fmt.Errorf("--symbols and --goroutines must be positive")
			}
			ctx := cmd.Context()
			tickers := c.app.Session.Tickers

			for i := range symbols {
				sym := fmt.Sprintf("SYM%d", i)
				tickers.Set(ctx, sym, model.TickerDetail{Ticker: sym, Name: sym, CurrentPrice: float64(i)})
			}

			var (
				hits atomic.Int64
				wg   sync.WaitGroup
			)
			start := time.Now()
			for g := range goroutines {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := range opsPerG {
						if _, ok := tickers.Get(fmt.Sprintf("SYM%d", (g+j)%symbols)); ok {
							hits.Add(1)
						}
					}
				}()
			}
			wg.Wait()
			elapsed := time.Since(start)

			total := goroutines * opsPerG
			return emit(cmd, benchResult{
				Symbols:    symbols,
				Goroutines: goroutines,
				Operations: total,
				Hits:       hits.Load(),
				Duration:   elapsed.String(),
				OpsPerSec:  float64(total) / elapsed.Seconds(),
			})
		},
	}
	cmd.Flags().IntVar(&symbols, "symbols", 10000, "tickers preloaded into the cache")
	cmd.Flags().IntVar(&goroutines, "goroutines", 200, "concurrent readers")
	cmd.Flags().IntVar(&opsPerG, "ops", 5000, "reads per reader")
	return cmd
}
