// Package tz содержит общие утилиты работы со временем и часовыми поясами:
// разбор настенного времени слотов, справочник зон и границы окон фильтрации.
package tz

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

const clockLayout = "03:04PM"

// WallRange интервал настенного времени в минутах от полуночи
type WallRange struct {
	StartMinute int
	EndMinute   int
}

// ParseRange разбирает строку вида "09:00AM-10:00AM"
func ParseRange(s string) (WallRange, error) {
	left, right, ok := strings.Cut(strings.ToUpper(strings.ReplaceAll(s, " ", "")), "-")
	if !ok {
		return WallRange{}, fmt.Errorf("%w: %q", model.ErrInvalidTimeRange, s)
	}

	start, err := parseClock(left)
	if err != nil {
		return WallRange{}, fmt.Errorf("%w: %q", model.ErrInvalidTimeRange, s)
	}
	end, err := parseClock(right)
	if err != nil {
		return WallRange{}, fmt.Errorf("%w: %q", model.ErrInvalidTimeRange, s)
	}

	if start == end {
		return WallRange{}, fmt.Errorf("%w: empty range %q", model.ErrInvalidTimeRange, s)
	}

	return WallRange{StartMinute: start, EndMinute: end}, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("3:04PM", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// CrossesMidnight интервал заканчивается на следующий день
func (r WallRange) CrossesMidnight() bool {
	return r.EndMinute <= r.StartMinute
}

// Duration длительность интервала
func (r WallRange) Duration() time.Duration {
	minutes := r.EndMinute - r.StartMinute
	if r.CrossesMidnight() {
		minutes += 24 * 60
	}
	return time.Duration(minutes) * time.Minute
}

// On привязывает интервал к календарной дате в зоне loc.
// Дата берётся из year/month/day, а не из момента времени.
func (r WallRange) On(year int, month time.Month, day int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, day, r.StartMinute/60, r.StartMinute%60, 0, 0, loc)

	endDay := day
	if r.CrossesMidnight() {
		endDay++
	}
	end := time.Date(year, month, endDay, r.EndMinute/60, r.EndMinute%60, 0, 0, loc)

	return start, end
}

func (r WallRange) String() string {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	start := base.Add(time.Duration(r.StartMinute) * time.Minute)
	end := base.Add(time.Duration(r.EndMinute) * time.Minute)
	return start.Format(clockLayout) + "-" + end.Format(clockLayout)
}

// FormatRange форматирует пару моментов в зоне loc в виде "hh:mmA-hh:mmA"
func FormatRange(start, end time.Time, loc *time.Location) string {
	return start.In(loc).Format(clockLayout) + "-" + end.In(loc).Format(clockLayout)
}
