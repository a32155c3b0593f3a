// Command clientsync drives a client sync session from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/krisalay/clientsync/app"
	"github.com/krisalay/clientsync/config"
	"github.com/krisalay/clientsync/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	err := c.rootCmd().ExecuteContext(ctx)
	c.teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries what PersistentPreRunE builds for the subcommands.
type cli struct {
	configPath string
	token      string
	userID     string
	handle     string
	metrics    string
	logLevel   string

	log *zap.Logger
	app *app.App
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clientsync",
		Short: "Client-side sync and caching for the social trading backend",
		Long: `clientsync keeps a signed-in client's feed, watchlist, bookmarks and
content filters in step with the backend, serving repeat reads from
TTL caches and applying user actions optimistically.

Identity comes from --token/--user-id/--handle or the identity section
of the config (CLIENTSYNC_IDENTITY_TOKEN and friends).`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&c.configPath, "config", "c", "config.yaml", "config file path (YAML)")
	f.StringVar(&c.token, "token", "", "bearer token, overrides identity.token")
	f.StringVar(&c.userID, "user-id", "", "user id, overrides identity.user_id")
	f.StringVar(&c.handle, "handle", "", "username, overrides identity.handle")
	f.StringVar(&c.metrics, "metrics-addr", "", "serve /metrics on this address, overrides metrics.address")
	f.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		c.feedCmd(),
		c.watchlistCmd(),
		c.bookmarksCmd(),
		c.filtersCmd(),
		c.tickerCmd(),
		c.chartCmd(),
		c.watchCmd(),
		c.benchCmd(),
	)
	return cmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("token") {
		cfg.Identity.Token = c.token
	}
	if flags.Changed("user-id") {
		cfg.Identity.UserID = c.userID
	}
	if flags.Changed("handle") {
		cfg.Identity.Handle = c.handle
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Address = c.metrics
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}

	c.log, err = logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	c.app, err = app.New(cmd.Context(), cfg, c.log)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

func (c *cli) teardown() {
	if c.app != nil {
		c.app.Close()
	}
	if c.log != nil {
		_ = c.log.Sync()
	}
}

// emit writes v to stdout as indented JSON.
func emit(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
