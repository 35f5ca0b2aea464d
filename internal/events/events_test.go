package events_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/govjobs-service/internal/events"
)

func TestPublisher_NilIsNoop(t *testing.T) {
	var p *events.Publisher
	assert.NoError(t, p.PublishJobsIngested(context.Background(), events.JobsIngested{}))
	assert.NoError(t, events.NewPublisher(nil).PublishJobsIngested(context.Background(), events.JobsIngested{}))
}

func TestPublisher_PublishesOnChannel(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" || testing.Short() {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, events.ChannelJobsIngested)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	p := events.NewPublisher(rdb)
	require.NoError(t, p.PublishJobsIngested(ctx, events.JobsIngested{SourceName: "ssc", Inserted: 3}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got events.JobsIngested
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, events.ChannelJobsIngested, got.Type)
	assert.Equal(t, "ssc", got.SourceName)
	assert.Equal(t, 3, got.Inserted)
}
