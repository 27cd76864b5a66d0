package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// transitions is the full booking state machine. Cancelled and completed are
// terminal: they have no outgoing edges.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Booking is a reservation of seats on a bus for one travel date. BusID and
// UserID are weak references used for lookup only.
type Booking struct {
	ID             int64
	Reference      string
	UserID         int64
	BusID          int64
	NumberOfSeats  uint
	SeatNumbers    []int
	TotalFare      int64
	Status         BookingStatus
	TravelDate     string
	PassengerName  string
	PassengerPhone string
	PaymentMethod  string
	PaymentStatus  string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BookingUpdate supports PATCH-style updates via key presence.
type BookingUpdate struct {
	NumberOfSeats  *uint
	SeatNumbers    *[]int
	TravelDate     *string
	PassengerName  *string
	PassengerPhone *string
	PaymentMethod  *string
	PaymentStatus  *string
	Notes          *string
}

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)
