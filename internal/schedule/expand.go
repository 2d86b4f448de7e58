// Package schedule разворачивает недельные шаблоны учителей в конкретные
// датированные занятия. Развёртка не имеет состояния и безопасна для
// параллельного вызова.
package schedule

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/tz"
)

// Horizon полуинтервал [From, To), в котором ищутся начала занятий
type Horizon struct {
	From time.Time
	To   time.Time
}

// Validate проверяет что горизонт не пустой и не длиннее tz.MaxHorizon
func (h Horizon) Validate() error {
	if !h.From.Before(h.To) {
		return fmt.Errorf("%w: horizon end must be after start", model.ErrInvalidTimeRange)
	}
	if h.To.Sub(h.From) > tz.MaxHorizon {
		return fmt.Errorf("%w: horizon longer than %s", model.ErrInvalidTimeRange, tz.MaxHorizon)
	}
	return nil
}

type compiledSlot struct {
	weekday time.Weekday
	wall    tz.WallRange
}

// Expand возвращает ленивую последовательность занятий шаблона в горизонте.
// Последовательность можно обходить повторно, каждый обход считает всё заново.
// Ошибка возвращается сразу, если зона шаблона или время слота некорректны.
func Expand(t model.SlotTemplate, display *time.Location, h Horizon) (iter.Seq[model.Occurrence], error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	ref, err := tz.Load(t.Timezone)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", t.ID, err)
	}
	if display == nil {
		display = ref
	}

	slots := make([]compiledSlot, 0, len(t.Slots))
	for _, s := range t.Slots {
		wall, err := tz.ParseRange(s.LocalTime)
		if err != nil {
			return nil, fmt.Errorf("template %s slot %d: %w", t.ID, s.ID, err)
		}
		slots = append(slots, compiledSlot{weekday: s.Weekday, wall: wall})
	}
	slices.SortFunc(slots, func(a, b compiledSlot) int {
		return cmp.Compare(a.wall.StartMinute, b.wall.StartMinute)
	})

	from := h.From.Truncate(time.Minute)
	to := h.To

	return func(yield func(model.Occurrence) bool) {
		// Обходим календарные дни в зоне учреждения, поэтому переходы на
		// летнее время не сдвигают настенное время слотов
		day := tz.StartOfDay(from.In(ref))
		last := to.In(ref)

		for !day.After(last) {
			for _, s := range slots {
				if s.weekday != day.Weekday() {
					continue
				}

				start, end := s.wall.On(day.Year(), day.Month(), day.Day(), ref)
				if start.Before(from) || !start.Before(to) {
					continue
				}

				occ := model.Occurrence{
					TeacherID:    t.TeacherID,
					TemplateID:   t.ID,
					Class:        t.Class,
					Subject:      t.Subject,
					Start:        start.UTC().Truncate(time.Minute),
					End:          end.UTC().Truncate(time.Minute),
					DisplayStart: start.In(display),
					DisplayEnd:   end.In(display),
				}
				if !yield(occ) {
					return
				}
			}
			day = day.AddDate(0, 0, 1)
		}
	}, nil
}

// ExpandAll разворачивает несколько шаблонов и сортирует занятия по времени начала.
// Шаблоны с ошибками пропускаются и возвращаются в skipped.
func ExpandAll(templates []*model.SlotTemplate, display *time.Location, h Horizon) ([]model.Occurrence, map[string]error) {
	var (
		out     []model.Occurrence
		skipped map[string]error
	)

	for _, t := range templates {
		seq, err := Expand(*t, display, h)
		if err != nil {
			if skipped == nil {
				skipped = make(map[string]error)
			}
			skipped[t.ID.String()] = err
			continue
		}
		for occ := range seq {
			out = append(out, occ)
		}
	}

	slices.SortStableFunc(out, func(a, b model.Occurrence) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Subject, b.Subject)
	})

	return out, skipped
}

// Find ищет среди шаблонов занятие, точно совпадающее с [start, end) до минуты
func Find(templates []*model.SlotTemplate, start, end time.Time) (model.Occurrence, bool) {
	key := model.NewSlotKey(0, start, end)
	h := Horizon{From: key.Start, To: key.Start.Add(time.Minute)}

	for _, t := range templates {
		seq, err := Expand(*t, time.UTC, h)
		if err != nil {
			continue
		}
		for occ := range seq {
			if occ.Start.Equal(key.Start) && occ.End.Equal(key.End) {
				return occ, true
			}
		}
	}
	return model.Occurrence{}, false
}
