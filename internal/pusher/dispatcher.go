package pusher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"busbook/internal/domain/models"

	log "github.com/sirupsen/logrus"
)

// Occurrence kinds. The audience of each kind is fixed by the table in
// targets(), not configurable per call.
const (
	KindBookingCreated     = "booking-created"
	KindBookingUpdated     = "booking-updated"
	KindBookingCancelled   = "booking-cancelled"
	KindUserRegistered     = "user-registered"
	KindAdminLogin         = "admin-login"
	KindAdminLogout        = "admin-logout"
	KindAdminRegistered    = "admin-registered"
	KindDashboardRefreshed = "dashboard-refreshed"
	KindBusStatusChanged   = "bus-status-changed"
	KindBroadcast          = "broadcast"
)

// Occurrence is one committed business happening awaiting fan-out. UserID and
// AdminID pick the private channels where the kind requires one.
type Occurrence struct {
	Kind    string
	Message string
	Data    any
	UserID  int64
	AdminID int64
}

func BookingCreated(b models.Booking) Occurrence {
	return Occurrence{Kind: KindBookingCreated, Message: "New booking created", Data: b, UserID: b.UserID}
}

func BookingUpdated(b models.Booking) Occurrence {
	return Occurrence{Kind: KindBookingUpdated, Message: "Booking updated", Data: b, UserID: b.UserID}
}

func BookingCancelled(b models.Booking) Occurrence {
	return Occurrence{Kind: KindBookingCancelled, Message: "Booking cancelled", Data: b, UserID: b.UserID}
}

func UserRegistered(userID int64, data any) Occurrence {
	return Occurrence{Kind: KindUserRegistered, Message: "New user registered", Data: data, UserID: userID}
}

func AdminLogin(adminID int64) Occurrence {
	return Occurrence{Kind: KindAdminLogin, Message: "Admin logged in", AdminID: adminID}
}

func AdminLogout(adminID int64) Occurrence {
	return Occurrence{Kind: KindAdminLogout, Message: "Admin logged out", AdminID: adminID}
}

func AdminRegistered(adminID int64) Occurrence {
	return Occurrence{Kind: KindAdminRegistered, Message: "New admin registered", AdminID: adminID}
}

// DashboardRefreshed targets one admin dashboard, or every dashboard when
// adminID is zero.
func DashboardRefreshed(adminID int64, data any) Occurrence {
	return Occurrence{Kind: KindDashboardRefreshed, Message: "Dashboard data updated", Data: data, AdminID: adminID}
}

func BusStatusChanged(b models.Bus) Occurrence {
	return Occurrence{Kind: KindBusStatusChanged, Message: "Bus status updated", Data: b}
}

func AdminBroadcast(message string, data any) Occurrence {
	return Occurrence{Kind: KindBroadcast, Message: message, Data: data}
}

type target struct {
	channel string
	event   string
}

func (o Occurrence) targets() []target {
	switch o.Kind {
	case KindBookingCreated, KindBookingUpdated, KindBookingCancelled:
		return []target{
			{models.ChannelBookings, o.Kind},
			{models.UserChannel(o.UserID), "notification"},
		}
	case KindUserRegistered:
		return []target{
			{models.ChannelUsers, o.Kind},
			{models.ChannelAdminNotifications, "notification"},
		}
	case KindAdminLogin, KindAdminLogout, KindAdminRegistered:
		return []target{
			{models.ChannelAdminNotifications, "notification"},
			{models.ChannelSystem, "notification"},
		}
	case KindDashboardRefreshed:
		if o.AdminID > 0 {
			return []target{{models.AdminDashboardChannel(o.AdminID), "update"}}
		}
		return []target{{models.ChannelAdminDashboards, "update"}}
	case KindBusStatusChanged:
		return []target{
			{models.ChannelBuses, "status-changed"},
			{models.ChannelAdminNotifications, "notification"},
		}
	case KindBroadcast:
		return []target{{models.ChannelAdminNotifications, "notification"}}
	}
	return nil
}

// ChannelResult is one entry of the per-channel delivery report.
type ChannelResult struct {
	Channel string
	Err     error
}

// Dispatcher fans a committed occurrence out to its audience. Delivery is an
// observability side-channel: failures are counted and logged, never
// propagated into the business transaction that produced the occurrence.
type Dispatcher struct {
	pub     Publisher
	timeout time.Duration

	queue chan Occurrence
	wg    sync.WaitGroup

	degraded atomic.Uint64
	dropped  atomic.Uint64
}

// NewDispatcher starts the delivery worker. The single worker drains the
// queue in order, so per-channel delivery order matches dispatch order.
func NewDispatcher(pub Publisher, buffer int) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	d := &Dispatcher{
		pub:     pub,
		timeout: 30 * time.Second,
		queue:   make(chan Occurrence, buffer),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for occ := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		d.FanOut(ctx, occ)
		cancel()
	}
}

// FanOut publishes one event per audience channel, concurrently and
// independently. One channel failing does not block or fail the others; the
// report lists every channel's outcome.
func (d *Dispatcher) FanOut(ctx context.Context, occ Occurrence) []ChannelResult {
	targets := occ.targets()
	if len(targets) == 0 {
		log.Warnf("no audience for occurrence %q", occ.Kind)
		return nil
	}

	results := make([]ChannelResult, len(targets))
	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()
			err := d.pub.Publish(ctx, t.channel, t.event, occ.Message, occ.Data)
			results[i] = ChannelResult{Channel: t.channel, Err: err}
			if err != nil {
				d.degraded.Add(1)
				log.WithFields(log.Fields{
					"occurrence": occ.Kind,
					"channel":    t.channel,
				}).Warnf("delivery degraded: %v", err)
			}
		}(i, t)
	}
	wg.Wait()
	return results
}

// Dispatch enqueues an occurrence for asynchronous fan-out. It never blocks
// the caller: when the queue is full the occurrence is dropped and counted.
func (d *Dispatcher) Dispatch(occ Occurrence) {
	select {
	case d.queue <- occ:
	default:
		d.dropped.Add(1)
		log.Warnf("dispatch queue full, dropping %q", occ.Kind)
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}

// Degraded reports the number of failed channel deliveries since start.
func (d *Dispatcher) Degraded() uint64 { return d.degraded.Load() }

// Dropped reports occurrences discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }
