package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/controller/httpapi/response"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/service"
)

// BookingService бизнес-логика бронирований
type BookingService interface {
	CreateBooking(ctx context.Context, in service.CreateBookingInput) (*model.Booking, error)
	GetByID(ctx context.Context, bookingID int64) (*model.Booking, error)
	GetStudentBookings(ctx context.Context, studentID int64) ([]*model.Booking, error)
}

type BookingHandler struct {
	log      *zap.Logger
	service  BookingService
	validate *validator.Validate
}

func NewBookingHandler(log *zap.Logger, service BookingService, validate *validator.Validate) *BookingHandler {
	return &BookingHandler{
		log:      log,
		service:  service,
		validate: validate,
	}
}

// CreateBookingRequest тело POST /bookings. Время в RFC 3339 с любым смещением.
type CreateBookingRequest struct {
	StudentID int64     `json:"student_id" validate:"required,gt=0"`
	TeacherID int64     `json:"teacher_id" validate:"required,gt=0"`
	Start     time.Time `json:"start" validate:"required"`
	End       time.Time `json:"end" validate:"required,gtfield=Start"`
}

// Create POST /bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		zap.String("op", "httpapi.booking.create"),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req CreateBookingRequest
	if !decodeJSON(w, r, log, h.validate, &req) {
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), service.CreateBookingInput{
		StudentID: req.StudentID,
		TeacherID: req.TeacherID,
		Start:     req.Start,
		End:       req.End,
	})
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(booking))
}

// Get GET /bookings/{bookingID}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		zap.String("op", "httpapi.booking.get"),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)

	bookingID, ok := idParam(w, r, "bookingID")
	if !ok {
		return
	}

	booking, err := h.service.GetByID(r.Context(), bookingID)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, response.OK(booking))
}

// ListByStudent GET /students/{studentID}/bookings
func (h *BookingHandler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		zap.String("op", "httpapi.booking.list"),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)

	studentID, ok := idParam(w, r, "studentID")
	if !ok {
		return
	}

	bookings, err := h.service.GetStudentBookings(r.Context(), studentID)
	if err != nil {
		writeError(w, r, log, err)
		return
	}
	if bookings == nil {
		bookings = []*model.Booking{}
	}

	render.JSON(w, r, response.OK(bookings))
}
