// Package queue defines message payloads exchanged over the message broker.
package queue

import amqp "github.com/rabbitmq/amqp091-go"

// FeedRefreshedQueue is the durable queue carrying FeedRefreshedEvent.
const FeedRefreshedQueue = "feed.refreshed"

// FeedRefreshedType is the AMQP type property of FeedRefreshedEvent messages.
const FeedRefreshedType = "feed.refreshed.v1"

// FeedRefreshedEvent is published after every network fetch of the event
// feed, successful or not.  It carries enough for downstream consumers to
// log fetch health or alert on repeated failures without calling the
// dashboard.
type FeedRefreshedEvent struct {
	FeedURL    string `json:"feed_url"`
	Trigger    string `json:"trigger"` // load | retry | cron
	OK         bool   `json:"ok"`
	EventCount int    `json:"event_count"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	FetchedAt  string `json:"fetched_at"` // RFC 3339
	Instance   string `json:"instance,omitempty"`
}

// Declare makes sure the durable feed queue exists.  Publisher and
// consumer both call it, so either may start first.
func Declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(FeedRefreshedQueue, true, false, false, false, nil)
	return err
}
