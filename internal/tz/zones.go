package tz

import (
	"fmt"
	"sort"
	"sync"
	"time"
	_ "time/tzdata" // зоны доступны и без системной базы tzdata

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

// Zone запись справочника часовых поясов
type Zone struct {
	Name          string `json:"name"`
	Offset        string `json:"offset"` // "+05:30"
	OffsetSeconds int    `json:"offset_seconds"`
}

// Зоны, которые предлагаются пользователю при выборе часового пояса
var knownZones = []string{
	"UTC",
	"Pacific/Honolulu",
	"America/Anchorage",
	"America/Los_Angeles",
	"America/Denver",
	"America/Phoenix",
	"America/Chicago",
	"America/New_York",
	"America/Toronto",
	"America/Mexico_City",
	"America/Bogota",
	"America/Sao_Paulo",
	"America/Argentina/Buenos_Aires",
	"Atlantic/Azores",
	"Europe/London",
	"Europe/Lisbon",
	"Europe/Paris",
	"Europe/Berlin",
	"Europe/Madrid",
	"Europe/Rome",
	"Europe/Warsaw",
	"Europe/Athens",
	"Europe/Kyiv",
	"Europe/Istanbul",
	"Europe/Moscow",
	"Africa/Cairo",
	"Africa/Lagos",
	"Africa/Johannesburg",
	"Africa/Nairobi",
	"Asia/Dubai",
	"Asia/Tehran",
	"Asia/Karachi",
	"Asia/Tashkent",
	"Asia/Kolkata",
	"Asia/Kathmandu",
	"Asia/Dhaka",
	"Asia/Almaty",
	"Asia/Bangkok",
	"Asia/Jakarta",
	"Asia/Singapore",
	"Asia/Shanghai",
	"Asia/Hong_Kong",
	"Asia/Manila",
	"Asia/Tokyo",
	"Asia/Seoul",
	"Australia/Perth",
	"Australia/Adelaide",
	"Australia/Sydney",
	"Pacific/Auckland",
}

var locations sync.Map // string -> *time.Location

// Load возвращает локацию по IANA имени, кешируя результат
func Load(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", model.ErrInvalidTimezone)
	}
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidTimezone, name)
	}

	actual, _ := locations.LoadOrStore(name, loc)
	return actual.(*time.Location), nil
}

// Zones возвращает справочник зон, отсортированный по смещению.
// Справочник строится один раз при первом обращении и дальше только читается.
func Zones() []Zone {
	return zoneTable()
}

var zoneTable = sync.OnceValue(func() []Zone {
	now := time.Now()

	zones := make([]Zone, 0, len(knownZones))
	for _, name := range knownZones {
		loc, err := Load(name)
		if err != nil {
			// База tzdata может не содержать зону, такую просто пропускаем
			continue
		}
		_, offset := now.In(loc).Zone()
		zones = append(zones, Zone{
			Name:          name,
			Offset:        FormatOffset(offset),
			OffsetSeconds: offset,
		})
	}

	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].OffsetSeconds != zones[j].OffsetSeconds {
			return zones[i].OffsetSeconds < zones[j].OffsetSeconds
		}
		return zones[i].Name < zones[j].Name
	})

	return zones
})

// FormatOffset форматирует смещение в секундах как "+05:30"
func FormatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
