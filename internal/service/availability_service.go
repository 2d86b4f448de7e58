package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/metrics"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/schedule"
	"github.com/Freeeeeet/school_scheduler/internal/tz"
)

type AvailabilityService struct {
	users      UserReader
	templates  TemplateReader
	bookings   BookingReader
	attendance AttendanceReader
	loc        *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// NewAvailabilityService loc - зона по умолчанию, если клиент не передал свою
func NewAvailabilityService(
	users UserReader,
	templates TemplateReader,
	bookings BookingReader,
	attendance AttendanceReader,
	loc *time.Location,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		users:      users,
		templates:  templates,
		bookings:   bookings,
		attendance: attendance,
		loc:        loc,
		logger:     logger,
		now:        time.Now,
	}
}

// AvailabilityQuery запрос расписания учителя. Явные From/To имеют
// приоритет над именованным окном.
type AvailabilityQuery struct {
	TeacherID int64
	Timezone  string
	Window    tz.WindowName
	From      time.Time
	To        time.Time
}

// Availability занятия учителя в горизонте, отображённые в зоне клиента
type Availability struct {
	TeacherID   int64                      `json:"teacher_id"`
	Timezone    string                     `json:"timezone"`
	From        time.Time                  `json:"from"`
	To          time.Time                  `json:"to"`
	Occurrences []model.ResolvedOccurrence `json:"occurrences"`
}

// Resolve разворачивает шаблоны учителя и сопоставляет занятия
// с бронированиями и посещаемостью по ключу (учитель, начало, конец)
func (s *AvailabilityService) Resolve(ctx context.Context, q AvailabilityQuery) (*Availability, error) {
	display := s.loc
	if q.Timezone != "" {
		loc, err := tz.Load(q.Timezone)
		if err != nil {
			return nil, err
		}
		display = loc
	}

	h, err := s.horizon(q, display)
	if err != nil {
		return nil, err
	}

	if _, err := requireTeacher(ctx, s.users, q.TeacherID); err != nil {
		return nil, err
	}

	templates, err := s.templates.GetByTeacherID(ctx, q.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("get slot templates: %w", err)
	}

	occurrences, skipped := schedule.ExpandAll(templates, display, h)
	for id, err := range skipped {
		s.logger.Warn("Skipping broken slot template",
			zap.Int64("teacher_id", q.TeacherID),
			zap.String("template_id", id),
			zap.Error(err),
		)
	}

	bookings, err := s.bookings.GetByTeacherRange(ctx, q.TeacherID, h.From, h.To)
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}

	byKey := make(map[model.SlotKey]*model.Booking, len(bookings))
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		byKey[b.Key()] = b
		ids = append(ids, b.ID)
	}

	var marks map[int64]*model.Attendance
	if len(ids) > 0 {
		marks, err = s.attendance.GetByBookingIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("get attendance: %w", err)
		}
	}

	resolved := make([]model.ResolvedOccurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		r := model.ResolvedOccurrence{Occurrence: occ, State: model.OccurrenceAvailable}
		if b, ok := byKey[occ.Key()]; ok {
			r.State = model.OccurrenceBooked
			r.Booking = b
			r.Attendance = marks[b.ID]
		}
		resolved = append(resolved, r)
	}

	metrics.OccurrencesExpanded.Observe(float64(len(resolved)))

	return &Availability{
		TeacherID:   q.TeacherID,
		Timezone:    display.String(),
		From:        h.From,
		To:          h.To,
		Occurrences: resolved,
	}, nil
}

func (s *AvailabilityService) horizon(q AvailabilityQuery, display *time.Location) (schedule.Horizon, error) {
	var h schedule.Horizon

	switch {
	case !q.From.IsZero() && !q.To.IsZero():
		h = schedule.Horizon{From: q.From, To: q.To}
	case !q.From.IsZero() || !q.To.IsZero():
		return h, fmt.Errorf("%w: both from and to are required", model.ErrInvalidTimeRange)
	default:
		from, to, err := tz.Window(q.Window, s.now(), display)
		if err != nil {
			return h, err
		}
		h = schedule.Horizon{From: from, To: to}
	}

	return h, h.Validate()
}
