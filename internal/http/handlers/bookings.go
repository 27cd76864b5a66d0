package handlers

import (
	"net/http"
	"strconv"

	"busbook/internal/domain/models"
	"busbook/internal/http/middleware"
	"busbook/internal/services"

	"github.com/gin-gonic/gin"
)

func bookingJSON(b models.Booking) gin.H {
	return gin.H{
		"id":              b.ID,
		"reference":       b.Reference,
		"user_id":         b.UserID,
		"bus_id":          b.BusID,
		"number_of_seats": b.NumberOfSeats,
		"seat_numbers":    b.SeatNumbers,
		"total_fare":      b.TotalFare,
		"status":          b.Status,
		"travel_date":     b.TravelDate,
		"passenger_name":  b.PassengerName,
		"passenger_phone": b.PassengerPhone,
		"payment_method":  b.PaymentMethod,
		"payment_status":  b.PaymentStatus,
		"notes":           b.Notes,
		"created_at":      b.CreatedAt,
		"updated_at":      b.UpdatedAt,
	}
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_booking_id", "invalid booking id")
		return 0, false
	}
	return id, true
}

func CreateBooking(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	var in services.CreateBookingInput
	if !BindJSONOrError(c, &in) {
		return
	}

	b, err := bookingService().CreateBooking(c.Request.Context(), principal, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingJSON(b))
}

func GetBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)

	b, err := bookingService().GetBooking(c.Request.Context(), principal, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingJSON(b))
}

func ListBookings(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	var userID int64
	if raw := c.Query("user_id"); raw != "" {
		userID, _ = strconv.ParseInt(raw, 10, 64)
	}

	list, err := bookingService().ListBookings(c.Request.Context(), principal, userID, c.Query("status"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, b := range list {
		out = append(out, bookingJSON(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

type updateBookingPayload struct {
	NumberOfSeats  *uint   `json:"number_of_seats"`
	SeatNumbers    *[]int  `json:"seat_numbers"`
	TravelDate     *string `json:"travel_date"`
	PassengerName  *string `json:"passenger_name"`
	PassengerPhone *string `json:"passenger_phone"`
	PaymentMethod  *string `json:"payment_method"`
	PaymentStatus  *string `json:"payment_status"`
	Notes          *string `json:"notes"`
}

func UpdateBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)

	var in updateBookingPayload
	if !BindJSONOrError(c, &in) {
		return
	}

	b, err := bookingService().UpdateBooking(c.Request.Context(), principal, id, models.BookingUpdate{
		NumberOfSeats:  in.NumberOfSeats,
		SeatNumbers:    in.SeatNumbers,
		TravelDate:     in.TravelDate,
		PassengerName:  in.PassengerName,
		PassengerPhone: in.PassengerPhone,
		PaymentMethod:  in.PaymentMethod,
		PaymentStatus:  in.PaymentStatus,
		Notes:          in.Notes,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingJSON(b))
}

func CancelBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)

	b, err := bookingService().CancelBooking(c.Request.Context(), principal, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingJSON(b))
}

func ConfirmBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)

	b, err := bookingService().ConfirmBooking(c.Request.Context(), principal, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingJSON(b))
}

func CompleteBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)

	b, err := bookingService().CompleteBooking(c.Request.Context(), principal, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingJSON(b))
}

func GetBookingETicket(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	principal, _ := middleware.GetPrincipal(c)

	pdfBytes, filename, err := docsService().GenerateETicket(c.Request.Context(), principal, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
