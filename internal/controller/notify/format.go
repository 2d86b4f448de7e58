package notify

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

// formatDateTime форматирует дату и время
func formatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// formatDate форматирует только дату
func formatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// formatTimeRange форматирует диапазон времени занятия
func formatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s %s-%s (%s)",
		weekdayShortName(start.Weekday()), formatDateTime(start), end.Format("15:04"), start.Location())
}

// formatPrice форматирует цену из минимальных единиц валюты
func formatPrice(amount int64) string {
	if amount%100 == 0 {
		return fmt.Sprintf("%d", amount/100)
	}
	return fmt.Sprintf("%.2f", float64(amount)/100)
}

// weekdayShortName краткое название дня недели на русском
func weekdayShortName(weekday time.Weekday) string {
	names := []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}
	return names[weekday]
}

type statusDisplay struct {
	Emoji string
	Text  string
}

// attendanceStatusDisplay возвращает emoji и текст для статуса посещаемости
func attendanceStatusDisplay(status model.AttendanceStatus) statusDisplay {
	displays := map[model.AttendanceStatus]statusDisplay{
		model.AttendancePresent: {"✅", "Присутствовал"},
		model.AttendanceLate:    {"⏰", "Опоздал"},
		model.AttendanceAbsent:  {"❌", "Отсутствовал"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return statusDisplay{"❓", "Неизвестно"}
}

// pluralizeSessions возвращает правильное склонение слова "занятие"
func pluralizeSessions(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "занятие"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "занятия"
	}
	return "занятий"
}
