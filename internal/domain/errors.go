package domain

import (
	"errors"
	"fmt"
)

// OutOfCapacityError reports a reserve/adjust that asked for more seats than
// the bus has left. Requested is the delta that failed, Available the count
// observed after the guarded update was rejected.
type OutOfCapacityError struct {
	BusID     int64
	Requested uint
	Available uint
}

func (e OutOfCapacityError) Error() string {
	return fmt.Sprintf("bus %d: only %d seats available, %d requested", e.BusID, e.Available, e.Requested)
}

// SeatConflictError reports a seat number already held by another live
// booking for the same bus and travel date.
type SeatConflictError struct {
	BusID      int64
	TravelDate string
	Err        error
}

func (e SeatConflictError) Error() string {
	return fmt.Sprintf("bus %d on %s: seat already taken", e.BusID, e.TravelDate)
}

func (e SeatConflictError) Unwrap() error { return e.Err }

type BusNotFoundError struct {
	BusID int64
}

func (e BusNotFoundError) Error() string {
	return fmt.Sprintf("bus %d not found", e.BusID)
}

type BookingNotFoundError struct {
	BookingID int64
}

func (e BookingNotFoundError) Error() string {
	return fmt.Sprintf("booking %d not found", e.BookingID)
}

// AlreadyTerminalError reports an operation against a booking that is
// already cancelled or completed.
type AlreadyTerminalError struct {
	BookingID int64
	Status    string
}

func (e AlreadyTerminalError) Error() string {
	return fmt.Sprintf("booking %d is already %s", e.BookingID, e.Status)
}

type InvalidTransitionError struct {
	BookingID int64
	From      string
	To        string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %d: cannot transition %s -> %s", e.BookingID, e.From, e.To)
}

// CapacityCheckTimeoutError reports a reserve/adjust that could not complete
// within the configured bound. No partial state is left behind.
type CapacityCheckTimeoutError struct {
	BusID int64
	Err   error
}

func (e CapacityCheckTimeoutError) Error() string {
	return fmt.Sprintf("bus %d: capacity check timed out", e.BusID)
}

func (e CapacityCheckTimeoutError) Unwrap() error { return e.Err }

// DeliveryDegradedError is advisory: publish retries were exhausted for a
// channel. It is recorded for telemetry and never fails a business operation.
type DeliveryDegradedError struct {
	Channel  string
	Attempts int
	Err      error
}

func (e DeliveryDegradedError) Error() string {
	return fmt.Sprintf("delivery degraded on %q after %d attempts: %v", e.Channel, e.Attempts, e.Err)
}

func (e DeliveryDegradedError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ForbiddenError reports a principal whose role does not permit an operation.
type ForbiddenError struct {
	Role string
	Op   string
}

func (e ForbiddenError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("%s requires admin role", e.Op)
	}
	return fmt.Sprintf("role %q may not %s", e.Role, e.Op)
}

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsOutOfCapacity(err error) bool {
	var target OutOfCapacityError
	return errors.As(err, &target)
}

func IsSeatConflict(err error) bool {
	var target SeatConflictError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var bus BusNotFoundError
	var booking BookingNotFoundError
	return errors.As(err, &bus) || errors.As(err, &booking)
}

func IsAlreadyTerminal(err error) bool {
	var target AlreadyTerminalError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target InvalidTransitionError
	return errors.As(err, &target)
}

func IsCapacityCheckTimeout(err error) bool {
	var target CapacityCheckTimeoutError
	return errors.As(err, &target)
}

func IsDeliveryDegraded(err error) bool {
	var target DeliveryDegradedError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}
