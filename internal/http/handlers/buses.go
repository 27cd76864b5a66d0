package handlers

import (
	"net/http"
	"strconv"

	"busbook/internal/domain/models"
	"busbook/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func busJSON(b models.Bus) gin.H {
	return gin.H{
		"id":              b.ID,
		"bus_number":      b.BusNumber,
		"bus_name":        b.BusName,
		"bus_type":        b.BusType,
		"total_seats":     b.TotalSeats,
		"available_seats": b.AvailableSeats,
		"route":           b.Route,
		"fare_per_seat":   b.FarePerSeat,
		"status":          b.Status,
	}
}

func ListBuses(c *gin.Context) {
	list, err := busService().ListBuses(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, b := range list {
		out = append(out, busJSON(b))
	}
	c.JSON(http.StatusOK, gin.H{"buses": out})
}

func GetBus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_bus_id", "invalid bus id")
		return
	}
	b, err := busService().GetBus(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, busJSON(b))
}

func UpdateBusStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_bus_id", "invalid bus id")
		return
	}
	principal, _ := middleware.GetPrincipal(c)

	var in struct {
		Status string `json:"status"`
	}
	if !BindJSONOrError(c, &in) {
		return
	}

	b, err := busService().UpdateStatus(c.Request.Context(), principal, id, in.Status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, busJSON(b))
}
