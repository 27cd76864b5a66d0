package pusher

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"busbook/internal/domain/models"
)

// recordingPublisher captures every delivery; failFor makes a channel fail.
type recordingPublisher struct {
	mu      sync.Mutex
	calls   []recordedCall
	failFor map[string]error
	block   chan struct{}
}

type recordedCall struct {
	Channel string
	Event   string
	Message string
}

func (p *recordingPublisher) Publish(ctx context.Context, channel, event, message string, data any) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	p.calls = append(p.calls, recordedCall{Channel: channel, Event: event, Message: message})
	p.mu.Unlock()
	if p.failFor != nil {
		if err, ok := p.failFor[channel]; ok {
			return err
		}
	}
	return nil
}

func (p *recordingPublisher) channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.calls))
	for _, c := range p.calls {
		out = append(out, c.Channel)
	}
	sort.Strings(out)
	return out
}

func TestFanOutAudiences(t *testing.T) {
	cases := []struct {
		name string
		occ  Occurrence
		want []string
	}{
		{
			name: "booking created",
			occ:  BookingCreated(models.Booking{ID: 1, UserID: 42}),
			want: []string{"bookings", "user-42"},
		},
		{
			name: "booking cancelled",
			occ:  BookingCancelled(models.Booking{ID: 1, UserID: 7}),
			want: []string{"bookings", "user-7"},
		},
		{
			name: "user registered",
			occ:  UserRegistered(3, nil),
			want: []string{"admin-notifications", "users"},
		},
		{
			name: "admin login",
			occ:  AdminLogin(5),
			want: []string{"admin-notifications", "system"},
		},
		{
			name: "dashboard refresh one admin",
			occ:  DashboardRefreshed(9, nil),
			want: []string{"admin-dashboard-9"},
		},
		{
			name: "dashboard refresh all",
			occ:  DashboardRefreshed(0, nil),
			want: []string{"admin-dashboards"},
		},
		{
			name: "bus status changed",
			occ:  BusStatusChanged(models.Bus{ID: 2, Status: models.BusMaintenance}),
			want: []string{"admin-notifications", "buses"},
		},
		{
			name: "broadcast",
			occ:  AdminBroadcast("hello", nil),
			want: []string{"admin-notifications"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			d := NewDispatcher(pub, 4)
			defer d.Close()

			results := d.FanOut(context.Background(), c.occ)
			if len(results) != len(c.want) {
				t.Fatalf("got %d deliveries, want %d", len(results), len(c.want))
			}
			got := pub.channels()
			for i := range c.want {
				if got[i] != c.want[i] {
					t.Fatalf("channels %v, want %v", got, c.want)
				}
			}
		})
	}
}

func TestFanOutReportsEveryChannelIndependently(t *testing.T) {
	boom := errors.New("broker unavailable")
	pub := &recordingPublisher{failFor: map[string]error{"user-42": boom}}
	d := NewDispatcher(pub, 4)
	defer d.Close()

	results := d.FanOut(context.Background(), BookingCreated(models.Booking{ID: 1, UserID: 42}))
	if len(results) != 2 {
		t.Fatalf("expected 2 channel results, got %d", len(results))
	}

	byChannel := map[string]error{}
	for _, r := range results {
		byChannel[r.Channel] = r.Err
	}
	if byChannel["bookings"] != nil {
		t.Fatalf("bookings delivery should succeed, got %v", byChannel["bookings"])
	}
	if !errors.Is(byChannel["user-42"], boom) {
		t.Fatalf("user channel should report its failure, got %v", byChannel["user-42"])
	}
	if d.Degraded() != 1 {
		t.Fatalf("degraded counter should be 1, got %d", d.Degraded())
	}
}

func TestDispatchDrainsOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, 16)

	for i := 0; i < 5; i++ {
		d.Dispatch(BookingCreated(models.Booking{ID: int64(i + 1), UserID: 1}))
	}
	d.Close()

	pub.mu.Lock()
	n := len(pub.calls)
	pub.mu.Unlock()
	if n != 10 {
		t.Fatalf("expected 10 deliveries (5 occurrences x 2 channels), got %d", n)
	}
	if d.Dropped() != 0 {
		t.Fatalf("nothing should be dropped, got %d", d.Dropped())
	}
}

func TestDispatchNeverBlocksWhenQueueFull(t *testing.T) {
	gate := make(chan struct{})
	pub := &recordingPublisher{block: gate}
	d := NewDispatcher(pub, 1)

	// First occurrence occupies the worker, second fills the buffer.
	d.Dispatch(AdminBroadcast("one", nil))
	waitForWorkerBusy(t, d)
	d.Dispatch(AdminBroadcast("two", nil))

	done := make(chan struct{})
	go func() {
		d.Dispatch(AdminBroadcast("three", nil))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Dispatch blocked on a full queue")
	}
	if d.Dropped() == 0 {
		t.Fatalf("overflow occurrence should be counted as dropped")
	}

	close(gate)
	d.Close()
}

func waitForWorkerBusy(t *testing.T, d *Dispatcher) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(d.queue) == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("worker never picked up the first occurrence")
}
