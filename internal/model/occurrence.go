package model

import (
	"time"

	"github.com/google/uuid"
)

// Occurrence конкретный датированный экземпляр слота шаблона.
// Не хранится в базе, существует только в рамках горизонта развёртки.
type Occurrence struct {
	TeacherID  int64     `json:"teacher_id"`
	TemplateID uuid.UUID `json:"template_id"`
	Class      string    `json:"class"`
	Subject    string    `json:"subject"`
	Start      time.Time `json:"start"` // UTC, с точностью до минуты
	End        time.Time `json:"end"`

	// Только для отображения, никогда не сравниваются
	DisplayStart time.Time `json:"display_start"`
	DisplayEnd   time.Time `json:"display_end"`
}

// SlotKey ключ сопоставления занятия и бронирования
type SlotKey struct {
	TeacherID int64
	Start     time.Time
	End       time.Time
}

// NewSlotKey нормализует время до минуты в UTC
func NewSlotKey(teacherID int64, start, end time.Time) SlotKey {
	return SlotKey{
		TeacherID: teacherID,
		Start:     start.UTC().Truncate(time.Minute),
		End:       end.UTC().Truncate(time.Minute),
	}
}

// Key возвращает ключ сопоставления для занятия
func (o Occurrence) Key() SlotKey {
	return NewSlotKey(o.TeacherID, o.Start, o.End)
}

type OccurrenceState string

const (
	OccurrenceAvailable OccurrenceState = "available"
	OccurrenceBooked    OccurrenceState = "booked"
)

// ResolvedOccurrence занятие вместе с бронированием и посещаемостью
type ResolvedOccurrence struct {
	Occurrence
	State      OccurrenceState `json:"state"`
	Booking    *Booking        `json:"booking,omitempty"`
	Attendance *Attendance     `json:"attendance,omitempty"`
}
