package routes

import (
	"github.com/julienschmidt/httprouter"

	"github.com/chengyimio/laser-booking-system/auth"
	"github.com/chengyimio/laser-booking-system/middleware"
	"github.com/chengyimio/laser-booking-system/ratelim"
	"github.com/chengyimio/laser-booking-system/schedules"
)

func AddAuthRoutes(router *httprouter.Router) {
	router.POST("/api/auth/register", ratelim.RateLimit(auth.Register))
	router.POST("/api/auth/login", ratelim.RateLimit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.Logout))
	router.POST("/api/auth/token/refresh", ratelim.RateLimit(auth.RefreshToken))
}

func AddScheduleRoutes(router *httprouter.Router) {
	router.GET("/api/bookings", schedules.GetSchedules)
	// mixed endpoint: the schedule branch checks for an admin inside
	router.POST("/api/bookings", ratelim.RateLimit(middleware.OptionalAuth(schedules.CreateOrBook)))
	router.PUT("/api/bookings", middleware.Authenticate(schedules.UpdateSchedule))
	router.DELETE("/api/bookings", middleware.Authenticate(schedules.DeleteSchedule))
	router.POST("/api/bookings/cancel", ratelim.RateLimit(schedules.CancelBookingHandler))
	router.POST("/api/bookings/batch-update", middleware.Authenticate(schedules.BatchUpdateConfirmations))
	router.GET("/api/bookings/slip", schedules.BookingSlip)
	router.GET("/api/bookings/ws", schedules.HandleWS)
}
