package model

import "time"

// User зеркало профиля студента или учителя из внешнего сервиса
type User struct {
	ID                 int64     `json:"id"`
	TelegramID         *int64    `json:"telegram_id"` // nil - уведомления не отправляются
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	IsTeacher          bool      `json:"is_teacher"`
	AttendanceSessions int       `json:"attendance_sessions"` // счётчик отмеченных занятий учителя
	CreatedAt          time.Time `json:"created_at"`
}
