package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) bookmarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "List, add or remove bookmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := c.app.Session.Bookmarks
			if err := b.Fetch(cmd.Context()); err != nil {
				return err
			}
			return emit(cmd, b.State())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add POST_ID",
		Short: "Bookmark a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := c.app.Session.Bookmarks
			if err := b.Add(cmd.Context(), args[0]); err != nil {
				return err
			}
			return emit(cmd, b.State())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove POST_ID",
		Short: "Remove a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := c.app.Session.Bookmarks
			ctx := cmd.Context()
			if err := b.Fetch(ctx); err != nil {
				return err
			}
			if err := b.Remove(ctx, args[0]); err != nil {
				return err
			}
			return emit(cmd, b.State())
		},
	})
	return cmd
}
