package schedule

import (
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/tz"
)

func template(zone string, slots ...model.TemplateSlot) model.SlotTemplate {
	return model.SlotTemplate{
		ID:        uuid.New(),
		TeacherID: 7,
		Class:     "Grade 5",
		Subject:   "English",
		Timezone:  zone,
		Slots:     slots,
		IsActive:  true,
	}
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := tz.Load(name)
	require.NoError(t, err)
	return loc
}

func collect(t *testing.T, tpl model.SlotTemplate, display *time.Location, h Horizon) []model.Occurrence {
	t.Helper()
	seq, err := Expand(tpl, display, h)
	require.NoError(t, err)
	return slices.Collect(seq)
}

func TestExpand_KolkataToChicago(t *testing.T) {
	chicago := mustLoad(t, "America/Chicago")
	tpl := template("Asia/Kolkata", model.TemplateSlot{ID: 1, Weekday: time.Wednesday, LocalTime: "09:00AM-10:00AM"})

	tests := []struct {
		name        string
		horizon     Horizon
		wantStart   string
		wantDisplay string
		wantWeekday time.Weekday
	}{
		{
			name:        "winter, chicago at UTC-6",
			horizon:     Horizon{From: utcDay(2025, time.January, 13), To: utcDay(2025, time.January, 20)},
			wantStart:   "2025-01-15T03:30:00Z",
			wantDisplay: "09:30PM-10:30PM",
			wantWeekday: time.Tuesday,
		},
		{
			name:        "summer, chicago at UTC-5",
			horizon:     Horizon{From: utcDay(2025, time.July, 14), To: utcDay(2025, time.July, 21)},
			wantStart:   "2025-07-16T03:30:00Z",
			wantDisplay: "10:30PM-11:30PM",
			wantWeekday: time.Tuesday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ := collect(t, tpl, chicago, tt.horizon)
			require.Len(t, occ, 1)

			assert.Equal(t, tt.wantStart, occ[0].Start.Format(time.RFC3339))
			assert.Equal(t, time.Hour, occ[0].End.Sub(occ[0].Start))
			assert.Equal(t, tt.wantDisplay, tz.FormatRange(occ[0].DisplayStart, occ[0].DisplayEnd, chicago))
			assert.Equal(t, tt.wantWeekday, occ[0].DisplayStart.Weekday())
			assert.Equal(t, tpl.ID, occ[0].TemplateID)
		})
	}
}

func TestExpand_RoundTrip(t *testing.T) {
	tpl := template("Asia/Kolkata",
		model.TemplateSlot{ID: 1, Weekday: time.Monday, LocalTime: "09:00AM-10:00AM"},
		model.TemplateSlot{ID: 2, Weekday: time.Friday, LocalTime: "06:40PM-07:20PM"},
		model.TemplateSlot{ID: 3, Weekday: time.Sunday, LocalTime: "11:30PM-12:30AM"},
	)
	h := Horizon{From: utcDay(2025, time.March, 1), To: utcDay(2025, time.May, 1)}

	base := collect(t, tpl, time.UTC, h)
	require.NotEmpty(t, base)

	for _, zone := range []string{"America/Chicago", "Europe/London", "Australia/Adelaide", "Asia/Kathmandu", "Pacific/Auckland"} {
		t.Run(zone, func(t *testing.T) {
			loc := mustLoad(t, zone)
			occ := collect(t, tpl, loc, h)
			require.Len(t, occ, len(base))

			for i := range occ {
				assert.True(t, occ[i].DisplayStart.UTC().Equal(base[i].Start))
				assert.True(t, occ[i].DisplayEnd.UTC().Equal(base[i].End))
				assert.Equal(t, base[i].Key(), occ[i].Key())

				// отображаемое время в другой зоне снова даёт тот же ключ
				reparsed, err := time.Parse(time.RFC3339, occ[i].DisplayStart.Format(time.RFC3339))
				require.NoError(t, err)
				assert.Equal(t, occ[i].Start, model.NewSlotKey(0, reparsed, reparsed).Start)
			}
		})
	}
}

func TestExpand_KeepsWallClockAcrossDST(t *testing.T) {
	tpl := template("America/New_York", model.TemplateSlot{ID: 1, Weekday: time.Monday, LocalTime: "09:00AM-10:00AM"})
	h := Horizon{From: utcDay(2025, time.March, 1), To: utcDay(2025, time.March, 15)}

	occ := collect(t, tpl, nil, h)
	require.Len(t, occ, 2)

	// 9 марта 2025 Нью-Йорк перешёл на летнее время
	assert.Equal(t, "2025-03-03T14:00:00Z", occ[0].Start.Format(time.RFC3339))
	assert.Equal(t, "2025-03-10T13:00:00Z", occ[1].Start.Format(time.RFC3339))
	for _, o := range occ {
		assert.Equal(t, 9, o.DisplayStart.Hour())
	}
}

func TestExpand_CrossesMidnight(t *testing.T) {
	tpl := template("UTC", model.TemplateSlot{ID: 1, Weekday: time.Saturday, LocalTime: "11:30PM-12:30AM"})
	h := Horizon{From: utcDay(2025, time.May, 1), To: utcDay(2025, time.May, 8)}

	occ := collect(t, tpl, time.UTC, h)
	require.Len(t, occ, 1)
	assert.Equal(t, "2025-05-03T23:30:00Z", occ[0].Start.Format(time.RFC3339))
	assert.Equal(t, "2025-05-04T00:30:00Z", occ[0].End.Format(time.RFC3339))
}

func TestExpand_SortedAndBoundedByHorizon(t *testing.T) {
	tpl := template("UTC",
		model.TemplateSlot{ID: 1, Weekday: time.Tuesday, LocalTime: "05:00PM-06:00PM"},
		model.TemplateSlot{ID: 2, Weekday: time.Tuesday, LocalTime: "08:00AM-09:00AM"},
		model.TemplateSlot{ID: 3, Weekday: time.Thursday, LocalTime: "10:00AM-11:00AM"},
	)
	// 6 мая 2025 вторник, горизонт начинается после утреннего слота
	h := Horizon{
		From: time.Date(2025, time.May, 6, 12, 0, 0, 0, time.UTC),
		To:   time.Date(2025, time.May, 13, 8, 0, 0, 0, time.UTC),
	}

	occ := collect(t, tpl, time.UTC, h)

	var starts []string
	for _, o := range occ {
		starts = append(starts, o.Start.Format(time.RFC3339))
	}
	assert.Equal(t, []string{
		"2025-05-06T17:00:00Z",
		"2025-05-08T10:00:00Z",
	}, starts)
}

func TestExpand_Restartable(t *testing.T) {
	tpl := template("Asia/Kolkata", model.TemplateSlot{ID: 1, Weekday: time.Monday, LocalTime: "09:00AM-10:00AM"})
	seq, err := Expand(tpl, time.UTC, Horizon{From: utcDay(2025, time.June, 1), To: utcDay(2025, time.July, 1)})
	require.NoError(t, err)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Len(t, first, 5)
	assert.Equal(t, first, second)

	// ранний выход из обхода
	n := 0
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestExpand_Errors(t *testing.T) {
	h := Horizon{From: utcDay(2025, time.June, 1), To: utcDay(2025, time.June, 8)}

	_, err := Expand(template("Nowhere/Land"), time.UTC, h)
	assert.ErrorIs(t, err, model.ErrInvalidTimezone)

	_, err = Expand(template("UTC", model.TemplateSlot{ID: 1, Weekday: time.Monday, LocalTime: "9 to 10"}), time.UTC, h)
	assert.ErrorIs(t, err, model.ErrInvalidTimeRange)

	_, err = Expand(template("UTC"), time.UTC, Horizon{From: h.To, To: h.From})
	assert.ErrorIs(t, err, model.ErrInvalidTimeRange)

	_, err = Expand(template("UTC"), time.UTC, Horizon{From: h.From, To: h.From.Add(400 * 24 * time.Hour)})
	assert.ErrorIs(t, err, model.ErrInvalidTimeRange)
}

func TestExpandAll(t *testing.T) {
	good := template("UTC", model.TemplateSlot{ID: 1, Weekday: time.Monday, LocalTime: "10:00AM-11:00AM"})
	other := template("Asia/Kolkata", model.TemplateSlot{ID: 2, Weekday: time.Monday, LocalTime: "09:00AM-10:00AM"})
	broken := template("Bad/Zone", model.TemplateSlot{ID: 3, Weekday: time.Monday, LocalTime: "10:00AM-11:00AM"})

	occ, skipped := ExpandAll([]*model.SlotTemplate{&good, &broken, &other}, time.UTC,
		Horizon{From: utcDay(2025, time.June, 2), To: utcDay(2025, time.June, 3)})

	require.Len(t, occ, 2)
	assert.Equal(t, other.ID, occ[0].TemplateID)
	assert.Equal(t, good.ID, occ[1].TemplateID)

	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[broken.ID.String()], model.ErrInvalidTimezone)
}

func TestFind(t *testing.T) {
	tpl := template("Asia/Kolkata", model.TemplateSlot{ID: 1, Weekday: time.Wednesday, LocalTime: "09:00AM-10:00AM"})
	templates := []*model.SlotTemplate{&tpl}

	chicago := mustLoad(t, "America/Chicago")
	start := time.Date(2025, time.January, 14, 21, 30, 0, 0, chicago)

	occ, ok := Find(templates, start, start.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, tpl.ID, occ.TemplateID)
	assert.Equal(t, "2025-01-15T03:30:00Z", occ.Start.Format(time.RFC3339))

	_, ok = Find(templates, start, start.Add(30*time.Minute))
	assert.False(t, ok)

	_, ok = Find(templates, start.Add(24*time.Hour), start.Add(25*time.Hour))
	assert.False(t, ok)
}
