package tz

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

type WindowName string

const (
	WindowWeek  WindowName = "week"
	WindowMonth WindowName = "month"
	WindowAll   WindowName = "all"
)

// DefaultHorizon горизонт для окна "all": четыре недели вперёд
const DefaultHorizon = 4 * 7 * 24 * time.Hour

// MaxHorizon максимальный горизонт развёртки
const MaxHorizon = 366 * 24 * time.Hour

// Window возвращает границы [from, to) окна относительно now в зоне loc.
// Неделя начинается с понедельника.
func Window(name WindowName, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	local := now.In(loc)
	today := StartOfDay(local)

	switch name {
	case WindowWeek:
		offset := (int(today.Weekday()) + 6) % 7
		from := today.AddDate(0, 0, -offset)
		return from, from.AddDate(0, 0, 7), nil
	case WindowMonth:
		from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0), nil
	case WindowAll, "":
		return today, today.Add(DefaultHorizon), nil
	}

	return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", model.ErrInvalidWindow, name)
}

// StartOfDay полночь того же календарного дня в зоне t
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
