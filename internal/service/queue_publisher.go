// Package queue_publisher publishes feed activity to RabbitMQ.  Errors are
// logged and returned so callers may ignore them; a broker outage never
// affects what the dashboard renders.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/event-dashboard/internal/feed"
	q "github.com/iliyamo/event-dashboard/internal/queue"
)

// PublishFeedRefreshed publishes event to the "feed.refreshed" queue on the
// broker at url.  Messages are persistent.
func PublishFeedRefreshed(ctx context.Context, url string, event q.FeedRefreshedEvent) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := q.Declare(ch); err != nil {
		log.Printf("rabbitmq: declare %s: %v", q.FeedRefreshedQueue, err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal %s: %v", q.FeedRefreshedQueue, err)
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         q.FeedRefreshedType,
		AppId:        "event-dashboard",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.FeedRefreshedQueue, false, false, msg); err != nil {
		log.Printf("rabbitmq: publish %s: %v", q.FeedRefreshedQueue, err)
		return err
	}
	return nil
}

// EventFromOutcome converts a feed fetch outcome into its wire form.
func EventFromOutcome(o feed.Outcome, instance string) q.FeedRefreshedEvent {
	ev := q.FeedRefreshedEvent{
		FeedURL:    o.URL,
		Trigger:    string(o.Trigger),
		OK:         o.Err == nil,
		EventCount: o.Count,
		DurationMS: o.Duration.Milliseconds(),
		FetchedAt:  o.FetchedAt.UTC().Format(time.RFC3339),
		Instance:   instance,
	}
	if o.Err != nil {
		ev.Error = o.Err.Error()
	}
	return ev
}

// Notifier implements feed.Notifier by publishing every fetch outcome.
// Publishing happens off the fetch path with its own timeout.
type Notifier struct {
	url      string
	instance string
	timeout  time.Duration
	publish  func(context.Context, string, q.FeedRefreshedEvent) error
	wg       sync.WaitGroup
}

// NewNotifier returns a Notifier for the broker at url.  instance tags
// messages with the sending server, typically its hostname.
func NewNotifier(url, instance string) *Notifier {
	return &Notifier{url: url, instance: instance, timeout: 5 * time.Second, publish: PublishFeedRefreshed}
}

// FeedFetched implements feed.Notifier.
func (n *Notifier) FeedFetched(_ context.Context, o feed.Outcome) {
	ev := EventFromOutcome(o, n.instance)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		_ = n.publish(ctx, n.url, ev)
	}()
}

// Wait blocks until in-flight publishes finish.  It is called on shutdown.
func (n *Notifier) Wait() { n.wg.Wait() }
