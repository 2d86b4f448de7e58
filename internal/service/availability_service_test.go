package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/tz"
)

func TestResolve_JoinsBookingsAndAttendance(t *testing.T) {
	f := newFixture()
	booking := bookedSession(t, f)

	_, err := f.attendance.MarkAttendance(context.Background(), MarkAttendanceInput{
		BookingID: booking.ID, Status: model.AttendanceAbsent,
	})
	require.NoError(t, err)

	day := time.Date(2025, time.July, 2, 0, 0, 0, 0, f.kolkata)
	got, err := f.availability.Resolve(context.Background(), AvailabilityQuery{
		TeacherID: teacherID,
		Timezone:  "America/Chicago",
		From:      day,
		To:        day.AddDate(0, 0, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, "America/Chicago", got.Timezone)
	require.Len(t, got.Occurrences, 12)

	booked := 0
	for _, occ := range got.Occurrences {
		assert.Equal(t, "America/Chicago", occ.DisplayStart.Location().String())
		if occ.State != model.OccurrenceBooked {
			assert.Nil(t, occ.Booking)
			continue
		}
		booked++
		require.NotNil(t, occ.Booking)
		assert.Equal(t, booking.ID, occ.Booking.ID)
		require.NotNil(t, occ.Attendance)
		assert.Equal(t, model.AttendanceAbsent, occ.Attendance.Status)
		assert.Equal(t, "10:30PM-11:30PM", tz.FormatRange(occ.DisplayStart, occ.DisplayEnd, occ.DisplayStart.Location()))
	}
	assert.Equal(t, 1, booked)
}

func TestResolve_NamedWindow(t *testing.T) {
	f := newFixture()

	got, err := f.availability.Resolve(context.Background(), AvailabilityQuery{
		TeacherID: teacherID,
		Window:    tz.WindowWeek,
	})
	require.NoError(t, err)

	// неделя с понедельника 30 июня по Калькутте, 12 слотов в день
	assert.Equal(t, "2025-06-30T00:00:00+05:30", got.From.Format(time.RFC3339))
	assert.Len(t, got.Occurrences, 7*12)
	for i := 1; i < len(got.Occurrences); i++ {
		assert.False(t, got.Occurrences[i].Start.Before(got.Occurrences[i-1].Start))
	}
}

func TestResolve_Errors(t *testing.T) {
	from := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		q    AvailabilityQuery
		want error
	}{
		{"bad timezone", AvailabilityQuery{TeacherID: teacherID, Timezone: "Moon/Base"}, model.ErrInvalidTimezone},
		{"bad window", AvailabilityQuery{TeacherID: teacherID, Window: "decade"}, model.ErrInvalidWindow},
		{"only from", AvailabilityQuery{TeacherID: teacherID, From: from}, model.ErrInvalidTimeRange},
		{"reversed", AvailabilityQuery{TeacherID: teacherID, From: from, To: from.Add(-time.Hour)}, model.ErrInvalidTimeRange},
		{"too long", AvailabilityQuery{TeacherID: teacherID, From: from, To: from.AddDate(2, 0, 0)}, model.ErrInvalidTimeRange},
		{"unknown teacher", AvailabilityQuery{TeacherID: 404}, model.ErrTeacherNotFound},
		{"not a teacher", AvailabilityQuery{TeacherID: studentID}, model.ErrNotATeacher},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.availability.Resolve(context.Background(), tt.q)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
