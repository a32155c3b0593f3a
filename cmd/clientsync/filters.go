package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/krisalay/clientsync/contentfilter"
)

func (c *cli) filtersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "List or change muted and blocked accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := c.app.Session.Filters
			if err := f.Load(cmd.Context()); err != nil {
				return err
			}
			return emit(cmd, f.State())
		},
	}

	var username, displayName string
	target := func(id string) contentfilter.Target {
		return contentfilter.Target{ID: id, Username: username, DisplayName: displayName}
	}

	mute := c.filterCmd("mute USER_ID", "Mute an account", func(ctx context.Context, id string) error {
		return c.app.Session.Filters.Mute(ctx, target(id))
	})
	block := c.filterCmd("block USER_ID", "Block an account", func(ctx context.Context, id string) error {
		return c.app.Session.Filters.Block(ctx, target(id))
	})
	for _, sub := range []*cobra.Command{mute, block} {
		sub.Flags().StringVar(&username, "username", "", "handle of the account")
		sub.Flags().StringVar(&displayName, "display-name", "", "display name of the account")
	}

	cmd.AddCommand(
		mute,
		block,
		c.filterCmd("unmute USER_ID", "Unmute an account", func(ctx context.Context, id string) error {
			return c.app.Session.Filters.Unmute(ctx, id)
		}),
		c.filterCmd("unblock USER_ID", "Unblock an account", func(ctx context.Context, id string) error {
			return c.app.Session.Filters.Unblock(ctx, id)
		}),
	)
	return cmd
}

// filterCmd loads the current filters first so a no-op change is skipped.
func (c *cli) filterCmd(use, short string, change func(ctx context.Context, userID string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := c.app.Session.Filters
			ctx := cmd.Context()
			if err := f.Load(ctx); err != nil {
				return err
			}
			if err := change(ctx, args[0]); err != nil {
				return err
			}
			return emit(cmd, f.State())
		},
	}
}
