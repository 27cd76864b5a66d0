package handlers

import (
	"net/http"

	"busbook/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// Broadcast sends an ad-hoc admin message and echoes the per-channel
// delivery report. Delivery failures are advisory, not an HTTP error.
func Broadcast(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	var in struct {
		Message string `json:"message"`
		Data    any    `json:"data"`
	}
	if !BindJSONOrError(c, &in) {
		return
	}

	report, err := bookingService().Broadcast(c.Request.Context(), principal, in.Message, in.Data)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	channels := make([]gin.H, 0, len(report))
	for _, r := range report {
		entry := gin.H{"channel": r.Channel, "ok": r.Err == nil}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
		}
		channels = append(channels, entry)
	}
	c.JSON(http.StatusOK, gin.H{"delivered": channels})
}

// RefreshDashboard pushes a dashboard update to one admin, or to every
// dashboard when admin_id is omitted.
func RefreshDashboard(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	var in struct {
		AdminID int64 `json:"admin_id"`
		Data    any   `json:"data"`
	}
	if !BindJSONOrError(c, &in) {
		return
	}

	if err := bookingService().RefreshDashboard(c.Request.Context(), principal, in.AdminID, in.Data); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}
