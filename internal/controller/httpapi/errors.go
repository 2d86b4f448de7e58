package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/controller/httpapi/response"
	"github.com/Freeeeeet/school_scheduler/internal/model"
)

var statusByError = []struct {
	err    error
	status int
}{
	// ввод
	{model.ErrInvalidCadence, http.StatusBadRequest},
	{model.ErrInvalidBillingCycle, http.StatusBadRequest},
	{model.ErrInvalidPlanType, http.StatusBadRequest},
	{model.ErrPlanTypeMismatch, http.StatusBadRequest},
	{model.ErrUnknownTier, http.StatusBadRequest},
	{model.ErrInvalidAnchor, http.StatusBadRequest},
	{model.ErrInvalidTimeRange, http.StatusBadRequest},
	{model.ErrInvalidTimezone, http.StatusBadRequest},
	{model.ErrInvalidWindow, http.StatusBadRequest},
	{model.ErrInvalidAttendanceStatus, http.StatusBadRequest},
	{model.ErrSlotInPast, http.StatusUnprocessableEntity},
	{model.ErrNotAnOccurrence, http.StatusUnprocessableEntity},
	{model.ErrInvalidLateDuration, http.StatusUnprocessableEntity},
	{model.ErrSessionNotStarted, http.StatusUnprocessableEntity},
	{model.ErrNotATeacher, http.StatusUnprocessableEntity},

	// конфликты
	{model.ErrSlotAlreadyBooked, http.StatusConflict},
	{model.ErrDuplicateBooking, http.StatusConflict},
	{model.ErrQuotaExceeded, http.StatusConflict},
	{model.ErrFreeTrialExhausted, http.StatusConflict},
	{model.ErrPaymentPending, http.StatusConflict},
	{model.ErrOutsidePlanWindow, http.StatusConflict},
	{model.ErrPlanNotRenewable, http.StatusConflict},
	{model.ErrAlreadyMarked, http.StatusConflict},
	{model.ErrBookingCanceled, http.StatusConflict},

	{model.ErrNotBookingTeacher, http.StatusForbidden},

	// не найдено
	{model.ErrStudentNotFound, http.StatusNotFound},
	{model.ErrTeacherNotFound, http.StatusNotFound},
	{model.ErrNoActivePlan, http.StatusNotFound},
	{model.ErrBookingNotFound, http.StatusNotFound},
}

// StatusFor HTTP-статус доменной ошибки, 500 для всех остальных
func StatusFor(err error) int {
	for _, s := range statusByError {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// writeError отвечает ошибкой сервиса. Текст внутренних ошибок наружу не отдаётся.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := StatusFor(err)
	code := model.ErrorCode(err)

	if status == http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
		render.Status(r, status)
		render.JSON(w, r, response.Error(code, "internal error"))
		return
	}

	log.Info("Request rejected", zap.String("code", code), zap.Error(err))
	render.Status(r, status)
	render.JSON(w, r, response.Error(code, err.Error()))
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Error("bad_request", msg))
}
