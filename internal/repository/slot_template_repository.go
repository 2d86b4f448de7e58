package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository/base"
)

// SlotTemplateRepository читает шаблоны доступности учителей.
// Шаблонами управляет внешний сервис, здесь только чтение.
type SlotTemplateRepository struct {
	*base.Repository
}

func NewSlotTemplateRepository(q base.Querier) *SlotTemplateRepository {
	return &SlotTemplateRepository{Repository: base.NewRepository(q)}
}

// GetByTeacherID получает активные шаблоны учителя вместе со слотами
func (r *SlotTemplateRepository) GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.SlotTemplate, error) {
	query := `
		SELECT t.id, t.teacher_id, t.class, t.subject, t.timezone, t.is_active, t.created_at, t.updated_at,
		       s.id, s.weekday, s.local_time
		FROM slot_templates t
		LEFT JOIN template_slots s ON s.template_id = t.id
		WHERE t.teacher_id = $1 AND t.is_active = true
		ORDER BY t.created_at, t.id, s.weekday, s.id
	`

	rows, err := r.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get slot templates by teacher: %w", err)
	}
	defer rows.Close()

	var (
		templates []*model.SlotTemplate
		byID      = make(map[uuid.UUID]*model.SlotTemplate)
	)
	for rows.Next() {
		var (
			t         model.SlotTemplate
			slotID    *int64
			weekday   *int16
			localTime *string
		)
		err := rows.Scan(
			&t.ID,
			&t.TeacherID,
			&t.Class,
			&t.Subject,
			&t.Timezone,
			&t.IsActive,
			&t.CreatedAt,
			&t.UpdatedAt,
			&slotID,
			&weekday,
			&localTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan slot template: %w", err)
		}

		current, ok := byID[t.ID]
		if !ok {
			current = &t
			byID[t.ID] = current
			templates = append(templates, current)
		}

		// LEFT JOIN: у шаблона может не быть слотов
		if slotID != nil {
			current.Slots = append(current.Slots, model.TemplateSlot{
				ID:        *slotID,
				Weekday:   time.Weekday(*weekday),
				LocalTime: *localTime,
			})
		}
	}

	return templates, rows.Err()
}
