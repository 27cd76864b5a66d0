package pusher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"busbook/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestPublishDeliversEnvelope(t *testing.T) {
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rc.Subscribe(ctx, "bookings")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	c := NewClient(rc, 3, 10*time.Millisecond)
	if err := c.Publish(ctx, "bookings", "booking-created", "New booking created", map[string]any{"id": 1}); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive error: %v", err)
	}

	var env struct {
		Event     string         `json:"event"`
		Message   string         `json:"message"`
		Data      map[string]any `json:"data"`
		Timestamp string         `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if env.Event != "booking-created" {
		t.Fatalf("wrong event: %q", env.Event)
	}
	if env.Message != "New booking created" {
		t.Fatalf("wrong message: %q", env.Message)
	}
	if env.Data["id"] != float64(1) {
		t.Fatalf("wrong data: %v", env.Data)
	}
	if _, err := time.Parse(time.RFC3339, env.Timestamp); err != nil {
		t.Fatalf("timestamp not RFC3339: %q", env.Timestamp)
	}
}

func TestPublishOmitsEmptyData(t *testing.T) {
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rc.Subscribe(ctx, "system")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	c := NewClient(rc, 1, time.Millisecond)
	if err := c.Publish(ctx, "system", "notification", "Admin logged in", nil); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive error: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(msg.Payload), &raw); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if _, ok := raw["data"]; ok {
		t.Fatalf("empty data should be omitted from the envelope")
	}
}

func TestPublishRetriesThenDegrades(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	rc := redis.NewClient(&redis.Options{Addr: addr})
	defer rc.Close()

	c := NewClient(rc, 3, time.Millisecond)
	err := c.Publish(context.Background(), "bookings", "booking-created", "msg", nil)
	if !domain.IsDeliveryDegraded(err) {
		t.Fatalf("expected delivery degraded, got %v", err)
	}
	var dd domain.DeliveryDegradedError
	if !errors.As(err, &dd) {
		t.Fatalf("expected DeliveryDegradedError, got %T", err)
	}
	if dd.Channel != "bookings" || dd.Attempts != 3 {
		t.Fatalf("wrong degradation report: %+v", dd)
	}
}

func TestPublishStopsOnCancelledContext(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	rc := redis.NewClient(&redis.Options{Addr: addr})
	defer rc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(rc, 5, time.Minute)
	start := time.Now()
	err := c.Publish(ctx, "bookings", "booking-created", "msg", nil)
	if !domain.IsDeliveryDegraded(err) {
		t.Fatalf("expected delivery degraded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancelled context must short-circuit the backoff")
	}
}
