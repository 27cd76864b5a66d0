package models

import "time"

const (
	BusActive      = "active"
	BusInactive    = "inactive"
	BusMaintenance = "maintenance"
)

// Bus carries the seat inventory for one vehicle. AvailableSeats is mutated
// only through the inventory service's guarded statements; 0 <= AvailableSeats
// <= TotalSeats holds at all times.
type Bus struct {
	ID             int64
	BusNumber      string
	BusName        string
	BusType        string
	TotalSeats     uint
	AvailableSeats uint
	Route          string
	FarePerSeat    int64
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
