package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusBooked   BookingStatus = "booked"
	BookingStatusCanceled BookingStatus = "canceled"
)

type Booking struct {
	ID         int64         `json:"id"`
	StudentID  int64         `json:"student_id"`
	TeacherID  int64         `json:"teacher_id"`
	TemplateID uuid.UUID     `json:"template_id"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Key возвращает ключ сопоставления с занятием
func (b *Booking) Key() SlotKey {
	return NewSlotKey(b.TeacherID, b.Start, b.End)
}
