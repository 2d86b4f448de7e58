package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/controller/httpapi/response"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/service"
)

type AttendanceService interface {
	MarkAttendance(ctx context.Context, in service.MarkAttendanceInput) (*model.Attendance, error)
}

type AttendanceHandler struct {
	log      *zap.Logger
	service  AttendanceService
	validate *validator.Validate
}

func NewAttendanceHandler(log *zap.Logger, service AttendanceService, validate *validator.Validate) *AttendanceHandler {
	return &AttendanceHandler{
		log:      log,
		service:  service,
		validate: validate,
	}
}

// MarkAttendanceRequest тело POST /bookings/{bookingID}/attendance
type MarkAttendanceRequest struct {
	TeacherID    int64  `json:"teacher_id" validate:"omitempty,gt=0"`
	Status       string `json:"status" validate:"required,oneof=PRESENT LATE ABSENT"`
	LateDuration string `json:"late_duration"`
}

// Mark POST /bookings/{bookingID}/attendance
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		zap.String("op", "httpapi.attendance.mark"),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)

	bookingID, ok := idParam(w, r, "bookingID")
	if !ok {
		return
	}

	var req MarkAttendanceRequest
	if !decodeJSON(w, r, log, h.validate, &req) {
		return
	}

	attendance, err := h.service.MarkAttendance(r.Context(), service.MarkAttendanceInput{
		BookingID:    bookingID,
		TeacherID:    req.TeacherID,
		Status:       model.AttendanceStatus(req.Status),
		LateDuration: req.LateDuration,
	})
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK(attendance))
}
