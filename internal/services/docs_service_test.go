package services

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"busbook/internal/domain"
	"busbook/internal/domain/models"
	"busbook/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGenerateETicket(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM bookings WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(bookingRow(5, models.StatusConfirmed, 7, 3))
	mock.ExpectQuery("SELECT seat_number FROM booking_seats").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(4).AddRow(5).AddRow(6))
	mock.ExpectQuery("SELECT (.+) FROM buses WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(busRow(7, 500, 10))

	svc := DocsService{
		BookingRepo: repositories.BookingRepo{DB: db},
		BusRepo:     repositories.BusRepo{DB: db},
	}
	pdf, filename, err := svc.GenerateETicket(context.Background(), owner(), 5)
	if err != nil {
		t.Fatalf("GenerateETicket returned error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	if filename != "e-ticket-BK000001.pdf" {
		t.Fatalf("unexpected filename %q", filename)
	}
}

func TestGenerateETicketSurvivesRetiredBus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM bookings WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(bookingRow(5, models.StatusCompleted, 7, 3))
	mock.ExpectQuery("SELECT seat_number FROM booking_seats").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
	mock.ExpectQuery("SELECT (.+) FROM buses WHERE id").
		WillReturnError(sql.ErrNoRows)

	svc := DocsService{
		BookingRepo: repositories.BookingRepo{DB: db},
		BusRepo:     repositories.BusRepo{DB: db},
	}
	pdf, _, err := svc.GenerateETicket(context.Background(), owner(), 5)
	if err != nil {
		t.Fatalf("ticket should render without the bus row: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("empty PDF")
	}
}

func TestGenerateETicketForbiddenForStranger(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM bookings WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(bookingRow(5, models.StatusConfirmed, 7, 3))
	mock.ExpectQuery("SELECT seat_number FROM booking_seats").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))

	svc := DocsService{
		BookingRepo: repositories.BookingRepo{DB: db},
		BusRepo:     repositories.BusRepo{DB: db},
	}
	stranger := domain.Principal{UserID: 99, Role: domain.RoleUser}
	_, _, err = svc.GenerateETicket(context.Background(), stranger, 5)
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
