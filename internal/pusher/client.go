package pusher

import (
	"context"
	"encoding/json"
	"time"

	"busbook/internal/domain"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Publisher is the event bus transport seen by the dispatcher.
type Publisher interface {
	Publish(ctx context.Context, channel, event, message string, data any) error
}

// Client publishes domain events on Redis channels. Transport errors are
// retried a bounded number of times with exponential backoff; exhaustion is
// reported as DeliveryDegradedError, never thrown at the booking caller.
type Client struct {
	rc       *redis.Client
	attempts int
	backoff  time.Duration
}

func NewClient(rc *redis.Client, attempts int, backoff time.Duration) *Client {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &Client{rc: rc, attempts: attempts, backoff: backoff}
}

// envelope is the wire payload. Every event carries a message and an
// ISO-8601 timestamp; data is optional.
type envelope struct {
	Event     string `json:"event"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (c *Client) Publish(ctx context.Context, channel, event, message string, data any) error {
	payload, err := json.Marshal(envelope{
		Event:     event,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			wait := c.backoff << (attempt - 2)
			select {
			case <-ctx.Done():
				return domain.DeliveryDegradedError{Channel: channel, Attempts: attempt - 1, Err: ctx.Err()}
			case <-time.After(wait):
			}
		}
		if err := c.rc.Publish(ctx, channel, payload).Err(); err != nil {
			lastErr = err
			log.WithFields(log.Fields{
				"channel": channel,
				"event":   event,
				"attempt": attempt,
			}).Warnf("publish failed: %v", err)
			continue
		}
		log.WithFields(log.Fields{"channel": channel, "event": event}).Debug("event published")
		return nil
	}
	return domain.DeliveryDegradedError{Channel: channel, Attempts: c.attempts, Err: lastErr}
}
