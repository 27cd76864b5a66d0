package api

import (
	stdhttp "net/http"

	intconfig "busbook/internal/config"
	h "busbook/internal/http/handlers"
	"busbook/internal/http/middleware"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS())
	r.Use(middleware.Principal(env.JWTSecret))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warnf("failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		buses := api.Group("/buses")
		buses.GET("", h.ListBuses)
		buses.GET("/:id", h.GetBus)
		buses.PUT("/:id/status", middleware.RequireAuth(), middleware.RequireAdmin(), h.UpdateBusStatus)

		bookings := api.Group("/bookings", middleware.RequireAuth())
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/confirm", middleware.RequireAdmin(), h.ConfirmBooking)
		bookings.POST("/:id/complete", middleware.RequireAdmin(), h.CompleteBooking)
		bookings.GET("/:id/e-ticket", h.GetBookingETicket)

		admin := api.Group("/admin", middleware.RequireAuth(), middleware.RequireAdmin())
		admin.POST("/broadcast", h.Broadcast)
		admin.POST("/dashboard-refresh", h.RefreshDashboard)
	}

	return r
}
