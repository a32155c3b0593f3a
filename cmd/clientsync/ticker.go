package main

import (
	"github.com/spf13/cobra"

	"github.com/krisalay/clientsync/chart"
	"github.com/krisalay/clientsync/model"
)

func (c *cli) tickerCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "ticker SYMBOL",
		Short: "Show market data for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := c.app.Session.Ticker
			if _, err := l.Load(cmd.Context(), args[0], refresh); err != nil {
				return err
			}
			return emit(cmd, l.State())
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the ticker cache")
	return cmd
}

type chartOutput struct {
	Ticker string             `json:"ticker"`
	Range  model.Range        `json:"range"`
	Points []model.ChartPoint `json:"points"`
	Error  chart.ErrorKind    `json:"error,omitempty"`
}

func (c *cli) chartCmd() *cobra.Command {
	var rng string
	cmd := &cobra.Command{
		Use:   "chart SYMBOL",
		Short: "Show price history for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := model.NormalizeRange(model.Range(rng))
			sym := model.NormalizeSymbol(args[0])
			res := c.app.Session.Charts.Fetch(cmd.Context(), sym, r)
			return emit(cmd, chartOutput{Ticker: sym, Range: r, Points: res.Data, Error: res.Err})
		},
	}
	cmd.Flags().StringVar(&rng, "range", string(model.Range30D), "1d, 5d, 30d, 90d, 180d, 1y or all")
	return cmd
}
