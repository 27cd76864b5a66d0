package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"busbook/internal/domain"
	"busbook/internal/domain/models"
	"busbook/internal/repositories"
	"busbook/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders the e-ticket PDF for a booking.
type DocsService struct {
	BookingRepo repositories.BookingRepo
	BusRepo     repositories.BusRepo
}

func (s DocsService) GenerateETicket(ctx context.Context, principal domain.Principal, bookingID int64) ([]byte, string, error) {
	b, err := s.BookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if !principal.CanActOn(b.UserID) {
		return nil, "", domain.ForbiddenError{Role: principal.Role, Op: "download this e-ticket"}
	}

	// Bus details are best-effort: the ticket still renders when the bus row
	// has been retired.
	bus, err := s.BusRepo.GetByID(ctx, b.BusID)
	if err != nil {
		bus = models.Bus{}
	}

	pdfBytes, err := buildETicketPDF(b, bus)
	if err != nil {
		return nil, "", err
	}
	return pdfBytes, fmt.Sprintf("e-ticket-%s.pdf", b.Reference), nil
}

func buildETicketPDF(b models.Booking, bus models.Bus) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	seats := fmt.Sprintf("%d seat(s)", b.NumberOfSeats)
	if len(b.SeatNumbers) > 0 {
		parts := make([]string, len(b.SeatNumbers))
		for i, n := range b.SeatNumbers {
			parts[i] = fmt.Sprintf("%d", n)
		}
		seats = strings.Join(parts, ", ")
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Reference    : %s", b.Reference),
		fmt.Sprintf("Passenger    : %s", safe(b.PassengerName, "-")),
		fmt.Sprintf("Phone        : %s", safe(b.PassengerPhone, "-")),
		fmt.Sprintf("Bus          : %s", safe(bus.BusName, "-")),
		fmt.Sprintf("Route        : %s", safe(bus.Route, "-")),
		fmt.Sprintf("Travel date  : %s", safe(b.TravelDate, "-")),
		fmt.Sprintf("Seats        : %s", seats),
		fmt.Sprintf("Total fare   : %s", utils.FormatAmount(b.TotalFare)),
		fmt.Sprintf("Status       : %s", b.Status),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please present this e-ticket at departure.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func safe(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
