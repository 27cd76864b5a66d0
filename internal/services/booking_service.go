package services

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	intconfig "busbook/internal/config"
	"busbook/internal/domain"
	"busbook/internal/domain/models"
	"busbook/internal/pusher"
	"busbook/internal/repositories"
	"busbook/internal/utils"

	log "github.com/sirupsen/logrus"
)

// BookingService is the request-facing orchestrator: it sequences the
// inventory service and the dispatcher into one logical operation per
// client-facing call. Inventory errors surface synchronously; event delivery
// is dispatched after commit and never joins the critical path.
type BookingService struct {
	Inventory   InventoryService
	BookingRepo repositories.BookingRepo
	BusRepo     repositories.BusRepo
	Dispatcher  *pusher.Dispatcher
	DB          *sql.DB
}

func (s BookingService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s BookingService) dispatch(occ pusher.Occurrence) {
	if s.Dispatcher != nil {
		s.Dispatcher.Dispatch(occ)
	}
}

type CreateBookingInput struct {
	BusID          int64  `json:"bus_id"`
	TravelDate     string `json:"travel_date"`
	NumberOfSeats  uint   `json:"number_of_seats"`
	SeatNumbers    []int  `json:"seat_numbers"`
	PassengerName  string `json:"passenger_name"`
	PassengerPhone string `json:"passenger_phone"`
	PaymentMethod  string `json:"payment_method"`
	PaymentStatus  string `json:"payment_status"`
	Notes          string `json:"notes"`
}

// CreateBooking reserves seats and persists the booking as one transaction.
// A reserve failure rolls the whole unit back, so no partially created
// booking or notification can be observed. The booking starts confirmed when
// payment already settled, pending otherwise.
func (s BookingService) CreateBooking(ctx context.Context, principal domain.Principal, in CreateBookingInput) (models.Booking, error) {
	if in.BusID <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "bus_id", Msg: "required"}
	}
	travelDate, err := utils.ParseDate(in.TravelDate)
	if err != nil {
		return models.Booking{}, domain.ValidationError{Field: "travel_date", Msg: "expected YYYY-MM-DD", Err: err}
	}

	paymentMethod := strings.TrimSpace(in.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = "cash"
	}
	paymentStatus := strings.TrimSpace(in.PaymentStatus)
	if paymentStatus == "" {
		paymentStatus = models.PaymentPending
	}
	if paymentStatus != models.PaymentPending && paymentStatus != models.PaymentPaid {
		return models.Booking{}, domain.ValidationError{Field: "payment_status", Msg: "must be pending or paid"}
	}

	bus, err := s.BusRepo.GetByID(ctx, in.BusID)
	if err != nil {
		return models.Booking{}, err
	}

	status := models.StatusPending
	if paymentStatus == models.PaymentPaid {
		status = models.StatusConfirmed
	}

	b := models.Booking{
		Reference:      newBookingReference(),
		UserID:         principal.UserID,
		BusID:          in.BusID,
		NumberOfSeats:  in.NumberOfSeats,
		TotalFare:      bus.FarePerSeat * int64(in.NumberOfSeats),
		Status:         status,
		TravelDate:     utils.FormatDate(travelDate),
		PassengerName:  strings.TrimSpace(in.PassengerName),
		PassengerPhone: strings.TrimSpace(in.PassengerPhone),
		PaymentMethod:  paymentMethod,
		PaymentStatus:  paymentStatus,
		Notes:          in.Notes,
	}

	var handle ReservationHandle
	err = repositories.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		handle, err = s.Inventory.Reserve(ctx, tx, in.BusID, b.TravelDate, in.NumberOfSeats, in.SeatNumbers)
		if err != nil {
			return err
		}
		id, err := s.BookingRepo.Insert(ctx, tx, b)
		if err != nil {
			return err
		}
		b.ID = id
		return s.Inventory.AssignSeats(ctx, tx, id, handle)
	})
	if err != nil {
		return models.Booking{}, err
	}

	b.SeatNumbers = handle.SeatNumbers
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now

	log.WithFields(log.Fields{
		"booking":   b.ID,
		"reference": b.Reference,
		"bus":       b.BusID,
		"seats":     b.NumberOfSeats,
	}).Info("booking created")
	s.dispatch(pusher.BookingCreated(b))
	return b, nil
}

// CancelBooking transitions the booking to cancelled and returns its seats.
// Already-terminal bookings fail with AlreadyTerminal.
func (s BookingService) CancelBooking(ctx context.Context, principal domain.Principal, id int64) (models.Booking, error) {
	existing, err := s.BookingRepo.GetByID(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if !principal.CanActOn(existing.UserID) {
		return models.Booking{}, domain.ForbiddenError{Role: principal.Role, Op: "cancel this booking"}
	}

	b, released, err := s.Inventory.Release(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if released == 0 {
		return models.Booking{}, domain.AlreadyTerminalError{BookingID: id, Status: string(b.Status)}
	}

	log.WithFields(log.Fields{"booking": id, "seats": released}).Info("booking cancelled")
	s.dispatch(pusher.BookingCancelled(b))
	return b, nil
}

// UpdateBooking applies PATCH-style changes. A seat-count change goes
// through the inventory adjust in the same transaction as the field update:
// all-or-nothing.
func (s BookingService) UpdateBooking(ctx context.Context, principal domain.Principal, id int64, upd models.BookingUpdate) (models.Booking, error) {
	if upd.TravelDate != nil {
		if _, err := utils.ParseDate(*upd.TravelDate); err != nil {
			return models.Booking{}, domain.ValidationError{Field: "travel_date", Msg: "expected YYYY-MM-DD", Err: err}
		}
	}
	if upd.SeatNumbers != nil && s.Inventory.seatMode() != intconfig.SeatModeAssigned {
		return models.Booking{}, domain.ValidationError{Field: "seat_numbers", Msg: "counted seat mode does not accept seat numbers"}
	}

	err := repositories.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		b, err := s.BookingRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !principal.CanActOn(b.UserID) {
			return domain.ForbiddenError{Role: principal.Role, Op: "update this booking"}
		}
		if b.Status.Terminal() {
			return domain.AlreadyTerminalError{BookingID: id, Status: string(b.Status)}
		}
		if upd.TravelDate != nil && *upd.TravelDate != b.TravelDate && s.Inventory.seatMode() == intconfig.SeatModeAssigned {
			return domain.ValidationError{Field: "travel_date", Msg: "cannot move assigned seats to another date; cancel and rebook"}
		}
		newSeats := b.NumberOfSeats
		if upd.NumberOfSeats != nil {
			newSeats = *upd.NumberOfSeats
		}
		// A seat-numbers-only change still swaps the seat rows: the delta is
		// zero but the reassignment must pass the uniqueness constraint.
		if newSeats != b.NumberOfSeats || upd.SeatNumbers != nil {
			var seatNumbers []int
			if upd.SeatNumbers != nil {
				seatNumbers = *upd.SeatNumbers
			}
			if err := s.Inventory.Adjust(ctx, tx, b, newSeats, seatNumbers); err != nil {
				return err
			}
		}
		return s.BookingRepo.Update(ctx, tx, id, upd)
	})
	if err != nil {
		return models.Booking{}, err
	}

	b, err := s.BookingRepo.GetByID(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	log.WithFields(log.Fields{"booking": id}).Info("booking updated")
	s.dispatch(pusher.BookingUpdated(b))
	return b, nil
}

// ConfirmBooking is the admin/payment confirmation edge (pending->confirmed).
func (s BookingService) ConfirmBooking(ctx context.Context, principal domain.Principal, id int64) (models.Booking, error) {
	if !principal.IsAdmin() {
		return models.Booking{}, domain.ForbiddenError{Role: principal.Role, Op: "confirm bookings"}
	}
	b, err := s.Inventory.Transition(ctx, id, models.StatusConfirmed)
	if err != nil {
		return models.Booking{}, err
	}
	s.dispatch(pusher.BookingUpdated(b))
	return b, nil
}

// CompleteBooking marks a confirmed booking as travelled.
func (s BookingService) CompleteBooking(ctx context.Context, principal domain.Principal, id int64) (models.Booking, error) {
	if !principal.IsAdmin() {
		return models.Booking{}, domain.ForbiddenError{Role: principal.Role, Op: "complete bookings"}
	}
	b, err := s.Inventory.Transition(ctx, id, models.StatusCompleted)
	if err != nil {
		return models.Booking{}, err
	}
	s.dispatch(pusher.BookingUpdated(b))
	return b, nil
}

func (s BookingService) GetBooking(ctx context.Context, principal domain.Principal, id int64) (models.Booking, error) {
	b, err := s.BookingRepo.GetByID(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if !principal.CanActOn(b.UserID) {
		return models.Booking{}, domain.ForbiddenError{Role: principal.Role, Op: "view this booking"}
	}
	return b, nil
}

// ListBookings returns the caller's bookings; admins may filter by any user
// or by status.
func (s BookingService) ListBookings(ctx context.Context, principal domain.Principal, userID int64, status string) ([]models.Booking, error) {
	if !principal.IsAdmin() {
		return s.BookingRepo.ListByUser(ctx, principal.UserID)
	}
	if status != "" {
		st := models.BookingStatus(status)
		if !st.Valid() {
			return nil, domain.ValidationError{Field: "status", Msg: "unknown status"}
		}
		return s.BookingRepo.ListByStatus(ctx, st)
	}
	if userID > 0 {
		return s.BookingRepo.ListByUser(ctx, userID)
	}
	return s.BookingRepo.ListByStatus(ctx, models.StatusPending)
}

// Broadcast pushes an ad-hoc admin message and returns the per-channel
// delivery report. Partial failure is data, not an error.
func (s BookingService) Broadcast(ctx context.Context, principal domain.Principal, message string, data any) ([]pusher.ChannelResult, error) {
	if !principal.IsAdmin() {
		return nil, domain.ForbiddenError{Role: principal.Role, Op: "broadcast"}
	}
	if strings.TrimSpace(message) == "" {
		return nil, domain.ValidationError{Field: "message", Msg: "required"}
	}
	return s.Dispatcher.FanOut(ctx, pusher.AdminBroadcast(message, data)), nil
}

// RefreshDashboard notifies one admin dashboard, or all when adminID is 0.
func (s BookingService) RefreshDashboard(ctx context.Context, principal domain.Principal, adminID int64, data any) error {
	if !principal.IsAdmin() {
		return domain.ForbiddenError{Role: principal.Role, Op: "refresh dashboards"}
	}
	s.dispatch(pusher.DashboardRefreshed(adminID, data))
	return nil
}

// newBookingReference builds a short unique reference like BK483920417.
func newBookingReference() string {
	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	return fmt.Sprintf("BK%s%03d", ts, rand.Intn(1000))
}
