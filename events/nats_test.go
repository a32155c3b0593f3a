package events_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/clientsync/events"
)

func TestNATSForwarderPublishesJSON(t *testing.T) {
	url := os.Getenv("CLIENTSYNC_TEST_NATS_URL")
	if url == "" {
		t.Skip("CLIENTSYNC_TEST_NATS_URL not set")
	}

	nc, err := nats.Connect(url)
	require.NoError(t, err)

	sub, err := nc.SubscribeSync("clientsync.test.watchlist.updated")
	require.NoError(t, err)

	fwd := events.NewNATSForwarder(nc, "clientsync.test.", nil)
	defer fwd.Close()

	bus := events.NewBus(nil)
	bus.SetForwarder(fwd)
	events.Publish(context.Background(), bus, events.WatchlistUpdatedTopic, events.WatchlistUpdated{})

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var got events.WatchlistUpdated
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Empty(t, got.Items)
}
