package services

import (
	"context"
	"testing"
	"time"

	intconfig "busbook/internal/config"
	"busbook/internal/domain"
	"busbook/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var bookingTestColumns = []string{
	"id", "reference", "user_id", "bus_id", "number_of_seats", "total_fare", "status",
	"travel_date", "passenger_name", "passenger_phone", "payment_method", "payment_status", "notes",
	"created_at", "updated_at",
}

func bookingRow(id int64, status models.BookingStatus, busID int64, seats uint) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingTestColumns).AddRow(
		id, "BK000001", int64(42), busID, seats, int64(5000), string(status),
		"2025-09-01", "Tester", "0800", "cash", "pending", "",
		now, now,
	)
}

func TestReserveClaimsSeatsAtomically(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE buses").
		WithArgs(uint(2), int64(7), uint(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := InventoryService{}
	h, err := svc.Reserve(context.Background(), db, 7, "2025-09-01", 2, nil)
	if err != nil {
		t.Fatalf("reserve error: %v", err)
	}
	if h.BusID != 7 || h.Seats != 2 {
		t.Fatalf("wrong handle: %+v", h)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReserveOutOfCapacity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE buses").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status, available_seats FROM buses").
		WillReturnRows(sqlmock.NewRows([]string{"status", "available_seats"}).AddRow("active", 1))

	svc := InventoryService{}
	_, err = svc.Reserve(context.Background(), db, 7, "2025-09-01", 5, nil)
	if !domain.IsOutOfCapacity(err) {
		t.Fatalf("expected out-of-capacity, got %v", err)
	}
}

func TestReserveTimesOutDeterministically(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE buses").
		WillReturnError(context.DeadlineExceeded)

	svc := InventoryService{ReserveTimeout: 50 * time.Millisecond}
	_, err = svc.Reserve(context.Background(), db, 7, "2025-09-01", 1, nil)
	if !domain.IsCapacityCheckTimeout(err) {
		t.Fatalf("expected capacity-check timeout, got %v", err)
	}
}

func TestReserveValidatesSeatSelection(t *testing.T) {
	svc := InventoryService{SeatMode: intconfig.SeatModeAssigned}

	if _, err := svc.Reserve(context.Background(), nil, 7, "2025-09-01", 2, []int{4}); !domain.IsValidation(err) {
		t.Fatalf("seat count mismatch should be a validation error, got %v", err)
	}
	if _, err := svc.Reserve(context.Background(), nil, 7, "2025-09-01", 2, []int{4, 4}); !domain.IsValidation(err) {
		t.Fatalf("duplicate seats should be a validation error, got %v", err)
	}

	counted := InventoryService{}
	if _, err := counted.Reserve(context.Background(), nil, 7, "2025-09-01", 1, []int{4}); !domain.IsValidation(err) {
		t.Fatalf("seat numbers in counted mode should be rejected, got %v", err)
	}
	if _, err := counted.Reserve(context.Background(), nil, 7, "2025-09-01", 0, nil); !domain.IsValidation(err) {
		t.Fatalf("zero seats should be rejected, got %v", err)
	}
}

func TestReleaseReturnsSeatsOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = \\? FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(bookingRow(5, models.StatusConfirmed, 7, 3))
	mock.ExpectExec("UPDATE bookings SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("LEAST\\(total_seats, available_seats").
		WithArgs(uint(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM booking_seats").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	svc := InventoryService{DB: db}
	b, released, err := svc.Release(context.Background(), 5)
	if err != nil {
		t.Fatalf("release error: %v", err)
	}
	if released != 3 {
		t.Fatalf("expected 3 seats released, got %d", released)
	}
	if b.Status != models.StatusCancelled {
		t.Fatalf("booking should be cancelled, got %s", b.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReleaseIsIdempotentForCancelled(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = \\? FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(bookingRow(5, models.StatusCancelled, 7, 3))
	mock.ExpectCommit()

	svc := InventoryService{DB: db}
	b, released, err := svc.Release(context.Background(), 5)
	if err != nil {
		t.Fatalf("second release must be a no-op, got %v", err)
	}
	if released != 0 {
		t.Fatalf("no seats should move on repeat release, got %d", released)
	}
	if b.Status != models.StatusCancelled {
		t.Fatalf("unexpected status %s", b.Status)
	}
}

func TestReleaseRejectsCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = \\? FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(bookingRow(5, models.StatusCompleted, 7, 3))
	mock.ExpectRollback()

	svc := InventoryService{DB: db}
	_, _, err = svc.Release(context.Background(), 5)
	if !domain.IsAlreadyTerminal(err) {
		t.Fatalf("expected already-terminal, got %v", err)
	}
}

func TestTransitionRejectsInvalidEdge(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = \\? FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(bookingRow(5, models.StatusPending, 7, 3))
	mock.ExpectRollback()

	svc := InventoryService{DB: db}
	_, err = svc.Transition(context.Background(), 5, models.StatusCompleted)
	if !domain.IsInvalidTransition(err) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransitionRefusesCancellation(t *testing.T) {
	svc := InventoryService{}
	_, err := svc.Transition(context.Background(), 5, models.StatusCancelled)
	if !domain.IsValidation(err) {
		t.Fatalf("cancellation through Transition must be rejected, got %v", err)
	}
}

func TestTransitionConfirmsPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id = \\? FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(bookingRow(5, models.StatusPending, 7, 3))
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs("confirmed", int64(5), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := InventoryService{DB: db}
	b, err := svc.Transition(context.Background(), 5, models.StatusConfirmed)
	if err != nil {
		t.Fatalf("transition error: %v", err)
	}
	if b.Status != models.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", b.Status)
	}
}
