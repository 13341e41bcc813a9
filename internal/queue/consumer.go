// Package queue contains the background consumer that listens to the
// feed.refreshed queue and appends one line per fetch to logs/feed.log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartFeedConsumer connects to RabbitMQ at url, declares the
// feed.refreshed queue (durable) and consumes it, writing each message to
// logDir/feed.log.  It reconnects with exponential backoff and only returns
// once ctx is cancelled.  Malformed messages are rejected without requeue so
// the loop keeps going.
func StartFeedConsumer(ctx context.Context, url, logDir string) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("feed-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logDir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("feed-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("feed-consumer: set QoS failed: %v", err)
	}

	if err := Declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, FeedRefreshedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := HandleMessage(logDir, d.Body); err != nil {
			log.Printf("feed-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// HandleMessage decodes one FeedRefreshedEvent and appends it to
// logDir/feed.log.
func HandleMessage(logDir string, body []byte) error {
	var ev FeedRefreshedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.FetchedAt == "" || ev.Trigger == "" {
		return errors.New("missing fetched_at or trigger")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join(logDir, "feed.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human-friendly log line.
func FormatLine(ev FeedRefreshedEvent) string {
	result := fmt.Sprintf("ok | events=%d", ev.EventCount)
	if !ev.OK {
		result = fmt.Sprintf("FAILED | error=%q", ev.Error)
	}
	line := fmt.Sprintf("[%s] Feed fetch %s | trigger=%s | duration=%dms | url=%q",
		ev.FetchedAt, result, ev.Trigger, ev.DurationMS, ev.FeedURL)
	if ev.Instance != "" {
		line += fmt.Sprintf(" | instance=%s", ev.Instance)
	}
	return line + "\n"
}
