package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) watchlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "List, add or remove watched tickers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := c.app.Session.Watchlist
			if err := w.Refresh(cmd.Context()); err != nil {
				return err
			}
			return emit(cmd, w.State())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add SYMBOL",
		Short: "Watch a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := c.app.Session.Watchlist
			ctx := cmd.Context()
			if err := w.Refresh(ctx); err != nil {
				return err
			}
			if err := w.AddTicker(ctx, args[0]); err != nil {
				return err
			}
			return emit(cmd, w.State())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove SYMBOL",
		Short: "Stop watching a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := c.app.Session.Watchlist
			ctx := cmd.Context()
			if err := w.Refresh(ctx); err != nil {
				return err
			}
			if err := w.RemoveTicker(ctx, args[0]); err != nil {
				return err
			}
			return emit(cmd, w.State())
		},
	})
	return cmd
}
