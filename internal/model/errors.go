package model

import "errors"

// Ошибки ввода
var (
	ErrInvalidCadence          = errors.New("invalid session cadence")
	ErrInvalidBillingCycle     = errors.New("invalid billing cycle")
	ErrInvalidPlanType         = errors.New("invalid plan type")
	ErrPlanTypeMismatch        = errors.New("plan type does not match billing cycle")
	ErrUnknownTier             = errors.New("price tier not found")
	ErrInvalidAnchor           = errors.New("invalid anchor month or year")
	ErrInvalidTimeRange        = errors.New("invalid time range")
	ErrInvalidTimezone         = errors.New("invalid timezone")
	ErrInvalidWindow           = errors.New("invalid window")
	ErrSlotInPast              = errors.New("slot is in the past")
	ErrNotAnOccurrence         = errors.New("time does not match any teacher slot")
	ErrInvalidAttendanceStatus = errors.New("invalid attendance status")
)

// Конфликты: ожидаемые, повтор без изменения входных данных не поможет
var (
	ErrSlotAlreadyBooked  = errors.New("slot already booked")
	ErrDuplicateBooking   = errors.New("student already has a booking at this time")
	ErrQuotaExceeded      = errors.New("session quota exceeded")
	ErrFreeTrialExhausted = errors.New("free trial already used")
	ErrPaymentPending     = errors.New("plan payment is pending")
	ErrOutsidePlanWindow  = errors.New("booking is outside the plan window")
	ErrPlanNotRenewable   = errors.New("plan is still active")
)

// Ошибки целостности
var (
	ErrAlreadyMarked       = errors.New("attendance already marked")
	ErrInvalidLateDuration = errors.New("late duration must be set only for LATE status")
	ErrSessionNotStarted   = errors.New("session has not started yet")
)

// Не найдено
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrNotATeacher     = errors.New("user is not a teacher")
	ErrNoActivePlan    = errors.New("student has no active plan")
	ErrBookingNotFound = errors.New("booking not found")
)

// Прочие ошибки, которые видит вызывающая сторона
var (
	ErrNotBookingTeacher = errors.New("booking belongs to another teacher")
	ErrBookingCanceled   = errors.New("booking is canceled")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidCadence, "invalid_cadence"},
	{ErrInvalidBillingCycle, "invalid_billing_cycle"},
	{ErrInvalidPlanType, "invalid_plan_type"},
	{ErrPlanTypeMismatch, "plan_type_mismatch"},
	{ErrUnknownTier, "unknown_tier"},
	{ErrInvalidAnchor, "invalid_anchor"},
	{ErrInvalidTimeRange, "invalid_time_range"},
	{ErrInvalidTimezone, "invalid_timezone"},
	{ErrInvalidWindow, "invalid_window"},
	{ErrSlotInPast, "slot_in_past"},
	{ErrNotAnOccurrence, "not_an_occurrence"},
	{ErrInvalidAttendanceStatus, "invalid_attendance_status"},
	{ErrSlotAlreadyBooked, "slot_already_booked"},
	{ErrDuplicateBooking, "duplicate_booking"},
	{ErrQuotaExceeded, "quota_exceeded"},
	{ErrFreeTrialExhausted, "free_trial_exhausted"},
	{ErrPaymentPending, "payment_pending"},
	{ErrOutsidePlanWindow, "outside_plan_window"},
	{ErrPlanNotRenewable, "plan_not_renewable"},
	{ErrAlreadyMarked, "already_marked"},
	{ErrInvalidLateDuration, "invalid_late_duration"},
	{ErrSessionNotStarted, "session_not_started"},
	{ErrStudentNotFound, "student_not_found"},
	{ErrTeacherNotFound, "teacher_not_found"},
	{ErrNotATeacher, "not_a_teacher"},
	{ErrNoActivePlan, "no_active_plan"},
	{ErrBookingNotFound, "booking_not_found"},
	{ErrNotBookingTeacher, "not_booking_teacher"},
	{ErrBookingCanceled, "booking_canceled"},
}

// ErrorCode машинный код доменной ошибки, "internal" для всех остальных
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
