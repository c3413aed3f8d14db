package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessage(t *testing.T) {
	var got DatasetLoadedEvent
	h := func(_ context.Context, ev DatasetLoadedEvent) error { got = ev; return nil }

	err := handleMessage(context.Background(), []byte(`{"table":"zip_county","rows":3,"replaced":true}`), h)
	require.NoError(t, err)
	assert.Equal(t, "zip_county", got.Table)
	assert.EqualValues(t, 3, got.Rows)
	assert.True(t, got.Replaced)

	assert.Error(t, handleMessage(context.Background(), []byte(`not json`), h))
	assert.Error(t, handleMessage(context.Background(), []byte(`{"rows":1}`), h))

	boom := errors.New("redis down")
	err = handleMessage(context.Background(), []byte(`{"table":"t"}`), func(context.Context, DatasetLoadedEvent) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, time.Hour))
	assert.True(t, sleep(context.Background(), time.Millisecond))
}

func TestStartDatasetConsumer_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := StartDatasetConsumer(ctx, "amqp://127.0.0.1:1/", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
