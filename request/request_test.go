package request_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/clientsync/request"
)

func TestBeginSupersedesPrevious(t *testing.T) {
	var tr request.Tracker

	ctx1, tok1 := tr.Begin(context.Background())
	ctx2, tok2 := tr.Begin(context.Background())

	assert.False(t, tr.Current(tok1))
	assert.True(t, tr.Current(tok2))
	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
	assert.NoError(t, ctx2.Err())
}

func TestDoneOnlyReleasesCurrent(t *testing.T) {
	var tr request.Tracker

	_, tok1 := tr.Begin(context.Background())
	ctx2, tok2 := tr.Begin(context.Background())

	tr.Done(tok1)
	assert.NoError(t, ctx2.Err())

	tr.Done(tok2)
	assert.ErrorIs(t, ctx2.Err(), context.Canceled)
	assert.True(t, tr.Current(tok2))
}

func TestCancel(t *testing.T) {
	var tr request.Tracker

	ctx, tok := tr.Begin(context.Background())
	tr.Cancel()

	assert.False(t, tr.Current(tok))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
