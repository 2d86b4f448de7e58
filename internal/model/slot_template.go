package model

import (
	"time"

	"github.com/google/uuid"
)

// SlotTemplate шаблон регулярной недельной доступности учителя
// для пары (класс, предмет). Шаблонами владеет управление учителями,
// ядро их только читает.
type SlotTemplate struct {
	ID        uuid.UUID      `json:"id"`
	TeacherID int64          `json:"teacher_id"`
	Class     string         `json:"class"`
	Subject   string         `json:"subject"`
	Timezone  string         `json:"timezone"` // IANA зона учреждения, в которой задано время слотов
	Slots     []TemplateSlot `json:"slots"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TemplateSlot один еженедельный слот. LocalTime хранится как настенное время
// в формате "hh:mmA-hh:mmA", UTC вычисляется при чтении.
type TemplateSlot struct {
	ID        int64        `json:"id"`
	Weekday   time.Weekday `json:"weekday"` // 0 = Sunday, 6 = Saturday
	LocalTime string       `json:"local_time"`
}
