package model

import "time"

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

// Valid проверяет что статус из допустимого набора
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceAbsent:
		return true
	}
	return false
}

// Attendance итог занятия. Одна запись на бронирование,
// после создания не меняется.
type Attendance struct {
	ID           int64            `json:"id"`
	BookingID    int64            `json:"booking_id"`
	StudentID    int64            `json:"student_id"`
	TeacherID    int64            `json:"teacher_id"`
	Status       AttendanceStatus `json:"status"`
	LateDuration *string          `json:"late_duration,omitempty"` // только для LATE
	CreatedAt    time.Time        `json:"created_at"`
}
