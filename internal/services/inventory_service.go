package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	intconfig "busbook/internal/config"
	"busbook/internal/domain"
	"busbook/internal/domain/models"
	"busbook/internal/repositories"

	log "github.com/sirupsen/logrus"
)

// InventoryService owns every mutation of Bus.AvailableSeats and the booking
// state machine. All seat arithmetic goes through the repositories' guarded
// single-statement updates, so two concurrent reservations can never
// oversell a bus.
type InventoryService struct {
	BusRepo     repositories.BusRepo
	BookingRepo repositories.BookingRepo
	DB          *sql.DB

	// SeatMode is the deployment-wide seat identity model; empty means
	// counted. ReserveTimeout bounds the capacity check (default 3s).
	SeatMode       string
	ReserveTimeout time.Duration
}

func (s InventoryService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s InventoryService) seatMode() string {
	if s.SeatMode == intconfig.SeatModeAssigned {
		return intconfig.SeatModeAssigned
	}
	return intconfig.SeatModeCounted
}

func (s InventoryService) reserveTimeout() time.Duration {
	if s.ReserveTimeout > 0 {
		return s.ReserveTimeout
	}
	return 3 * time.Second
}

// ReservationHandle records a committed-in-transaction seat claim, to be
// bound to a booking row with AssignSeats before the unit of work commits.
type ReservationHandle struct {
	BusID       int64
	TravelDate  string
	Seats       uint
	SeatNumbers []int
}

func (s InventoryService) validateSeatSelection(seats uint, seatNumbers []int) error {
	if seats < 1 {
		return domain.ValidationError{Field: "number_of_seats", Msg: "must be at least 1"}
	}
	switch s.seatMode() {
	case intconfig.SeatModeAssigned:
		if uint(len(seatNumbers)) != seats {
			return domain.ValidationError{Field: "seat_numbers", Msg: "assigned seat mode requires one seat number per seat"}
		}
		seen := map[int]bool{}
		for _, n := range seatNumbers {
			if n < 1 {
				return domain.ValidationError{Field: "seat_numbers", Msg: "seat numbers start at 1"}
			}
			if seen[n] {
				return domain.ValidationError{Field: "seat_numbers", Msg: "duplicate seat number"}
			}
			seen[n] = true
		}
	default:
		if len(seatNumbers) > 0 {
			return domain.ValidationError{Field: "seat_numbers", Msg: "counted seat mode does not accept seat numbers"}
		}
	}
	return nil
}

// Reserve claims seats against the bus inside the caller's unit of work.
// The decrement is atomic with the capacity check; when it cannot complete
// within the reserve timeout the caller gets CapacityCheckTimeout and the
// transaction rollback discards any partial lock.
func (s InventoryService) Reserve(ctx context.Context, ex repositories.Execer, busID int64, travelDate string, seats uint, seatNumbers []int) (ReservationHandle, error) {
	if err := s.validateSeatSelection(seats, seatNumbers); err != nil {
		return ReservationHandle{}, err
	}

	rctx, cancel := context.WithTimeout(ctx, s.reserveTimeout())
	defer cancel()

	if err := s.BusRepo.ReserveSeats(rctx, ex, busID, seats); err != nil {
		return ReservationHandle{}, mapCapacityTimeout(busID, err)
	}
	return ReservationHandle{
		BusID:       busID,
		TravelDate:  travelDate,
		Seats:       seats,
		SeatNumbers: seatNumbers,
	}, nil
}

// AssignSeats binds the reserved seat numbers to a booking row. A seat
// already held by a live booking for the same bus and travel date is
// rejected by the storage uniqueness constraint as SeatConflict.
func (s InventoryService) AssignSeats(ctx context.Context, ex repositories.Execer, bookingID int64, h ReservationHandle) error {
	if len(h.SeatNumbers) == 0 {
		return nil
	}
	return s.BookingRepo.InsertSeats(ctx, ex, bookingID, h.BusID, h.TravelDate, h.SeatNumbers)
}

// Release cancels the booking and returns its seats to the bus in one
// transaction. Idempotent: an already-cancelled booking is a no-op success
// with released == 0. A completed booking is AlreadyTerminal.
func (s InventoryService) Release(ctx context.Context, bookingID int64) (models.Booking, uint, error) {
	var out models.Booking
	var released uint

	err := repositories.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		b, err := s.BookingRepo.GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		out = b

		switch b.Status {
		case models.StatusCancelled:
			return nil
		case models.StatusCompleted:
			return domain.AlreadyTerminalError{BookingID: bookingID, Status: string(b.Status)}
		}

		ok, err := s.BookingRepo.UpdateStatus(ctx, tx, bookingID,
			[]models.BookingStatus{models.StatusPending, models.StatusConfirmed},
			models.StatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return domain.InternalError{Msg: "booking changed under row lock"}
		}
		if err := s.BusRepo.ReleaseSeats(ctx, tx, b.BusID, b.NumberOfSeats); err != nil {
			return err
		}
		if err := s.BookingRepo.DeleteSeats(ctx, tx, bookingID); err != nil {
			return err
		}
		released = b.NumberOfSeats
		out.Status = models.StatusCancelled
		return nil
	})
	if err != nil {
		return models.Booking{}, 0, err
	}
	if released > 0 {
		log.WithFields(log.Fields{"booking": bookingID, "seats": released}).Info("seats released")
	}
	return out, released, nil
}

// Adjust moves a locked booking to a new seat count inside the caller's
// transaction. The signed delta rides the same guarded statements as
// Reserve/Release, so a failed capacity check leaves both rows untouched.
func (s InventoryService) Adjust(ctx context.Context, ex repositories.Execer, b models.Booking, newSeats uint, newSeatNumbers []int) error {
	if b.Status.Terminal() {
		return domain.AlreadyTerminalError{BookingID: b.ID, Status: string(b.Status)}
	}
	if err := s.validateSeatSelection(newSeats, newSeatNumbers); err != nil {
		return err
	}

	rctx, cancel := context.WithTimeout(ctx, s.reserveTimeout())
	defer cancel()

	delta := int(newSeats) - int(b.NumberOfSeats)
	if err := s.BusRepo.AdjustSeats(rctx, ex, b.BusID, delta); err != nil {
		return mapCapacityTimeout(b.BusID, err)
	}

	if s.seatMode() == intconfig.SeatModeAssigned {
		if err := s.BookingRepo.DeleteSeats(ctx, ex, b.ID); err != nil {
			return err
		}
		if err := s.BookingRepo.InsertSeats(ctx, ex, b.ID, b.BusID, b.TravelDate, newSeatNumbers); err != nil {
			return err
		}
	}
	return nil
}

// Transition drives the non-cancelling state machine edges
// (pending->confirmed, confirmed->completed). Cancellation goes through
// Release so the seat return stays atomic with the status change.
func (s InventoryService) Transition(ctx context.Context, bookingID int64, to models.BookingStatus) (models.Booking, error) {
	if to == models.StatusCancelled {
		return models.Booking{}, domain.ValidationError{Field: "status", Msg: "cancellation must release seats"}
	}
	if !to.Valid() {
		return models.Booking{}, domain.ValidationError{Field: "status", Msg: "unknown status"}
	}

	var out models.Booking
	err := repositories.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		b, err := s.BookingRepo.GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status.Terminal() {
			return domain.AlreadyTerminalError{BookingID: bookingID, Status: string(b.Status)}
		}
		if !b.Status.CanTransition(to) {
			return domain.InvalidTransitionError{BookingID: bookingID, From: string(b.Status), To: string(to)}
		}
		ok, err := s.BookingRepo.UpdateStatus(ctx, tx, bookingID, []models.BookingStatus{b.Status}, to)
		if err != nil {
			return err
		}
		if !ok {
			return domain.InternalError{Msg: "booking changed under row lock"}
		}
		out = b
		out.Status = to
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}
	return out, nil
}

func mapCapacityTimeout(busID int64, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.CapacityCheckTimeoutError{BusID: busID, Err: err}
	}
	return err
}
