package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/krisalay/clientsync/model"
)

func (c *cli) feedCmd() *cobra.Command {
	var (
		q       model.PostQuery
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the home feed, or the posts of a user or ticker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := c.app.Session

			// hidden authors are filtered out of every listing
			if s.SignedIn() {
				if err := s.Filters.Load(ctx); err != nil {
					c.log.Warn("content filters unavailable", zap.Error(err))
				}
			}
			if err := s.Timeline.Load(ctx, q, refresh); err != nil {
				return err
			}

			st := s.Timeline.State()
			st.Posts = s.Filters.FilterPosts(st.Posts)
			return emit(cmd, st)
		},
	}
	cmd.Flags().StringVar(&q.UserID, "author", "", "only posts by this user id")
	cmd.Flags().StringVar(&q.Ticker, "ticker", "", "only posts about this ticker")
	cmd.Flags().IntVar(&q.Page, "page", 0, "page of a filtered listing")
	cmd.Flags().IntVar(&q.PerPage, "per-page", 0, "page size of a filtered listing")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the feed cache")
	return cmd
}
