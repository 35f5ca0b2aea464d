// Package events publishes ingestion notifications on Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ChannelJobsIngested carries one message per processed source.
const ChannelJobsIngested = "EVENT_JOBS_INGESTED"

// JobsIngested is the payload published after a source run.
type JobsIngested struct {
	Type       string `json:"type"`
	SourceID   string `json:"sourceId"`
	SourceName string `json:"sourceName"`
	Inserted   int    `json:"inserted"`
	Updated    int    `json:"updated"`
	Unchanged  int    `json:"unchanged"`
	Rejected   int    `json:"rejected"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// Publisher sends events to Redis. A nil *Publisher, or one without a
// client, drops every event.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher returns a Publisher on rdb; rdb may be nil.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// PublishJobsIngested publishes ev on ChannelJobsIngested.
func (p *Publisher) PublishJobsIngested(ctx context.Context, ev JobsIngested) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	ev.Type = ChannelJobsIngested
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ChannelJobsIngested, err)
	}
	if err := p.rdb.Publish(ctx, ChannelJobsIngested, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ChannelJobsIngested, err)
	}
	return nil
}
