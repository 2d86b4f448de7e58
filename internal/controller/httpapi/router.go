// Package httpapi HTTP API расписания: доступность учителей, бронирования,
// посещаемость и планы студентов
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps сервисы, которые обслуживает API
type Deps struct {
	Bookings     BookingService
	Attendance   AttendanceService
	Plans        PlanService
	Availability AvailabilityService
	DB           Pinger
	RateLimitRPS float64
}

// NewRouter собирает маршруты и middleware
func NewRouter(log *zap.Logger, deps Deps) http.Handler {
	validate := validator.New()

	bookings := NewBookingHandler(log, deps.Bookings, validate)
	attendance := NewAttendanceHandler(log, deps.Attendance, validate)
	plans := NewPlanHandler(log, deps.Plans, validate)
	availability := NewAvailabilityHandler(log, deps.Availability)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(log),
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(log, deps.RateLimitRPS, int(deps.RateLimitRPS)*2+1))

		r.Get("/teachers/{teacherID}/availability", availability.ServeHTTP)
		r.Get("/timezones", Timezones)

		r.Post("/bookings", bookings.Create)
		r.Get("/bookings/{bookingID}", bookings.Get)
		r.Post("/bookings/{bookingID}/attendance", attendance.Mark)

		r.Route("/students/{studentID}", func(r chi.Router) {
			r.Get("/bookings", bookings.ListByStudent)
			r.Get("/quota", plans.Quota)
			r.Post("/plan", plans.Select)
			r.Get("/plan/renewal", plans.RenewalQuote)
			r.Post("/trial", plans.StartTrial)
		})

		r.Post("/payments/confirmed", plans.PaymentConfirmed)
	})

	r.Get("/healthz", Health(deps.DB))
	r.Handle("/metrics", promhttp.Handler())

	return r
}
