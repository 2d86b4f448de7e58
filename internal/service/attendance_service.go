package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/metrics"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
)

type AttendanceService struct {
	tx         AttendanceLocker
	bookings   BookingReader
	attendance AttendanceReader
	users      UserReader
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewAttendanceService(
	tx AttendanceLocker,
	bookings BookingReader,
	attendance AttendanceReader,
	users UserReader,
	notifier Notifier,
	logger *zap.Logger,
) *AttendanceService {
	return &AttendanceService{
		tx:         tx,
		bookings:   bookings,
		attendance: attendance,
		users:      users,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// MarkAttendanceInput итог занятия. TeacherID необязателен: если задан,
// он должен совпадать с учителем бронирования.
type MarkAttendanceInput struct {
	BookingID    int64
	TeacherID    int64
	Status       model.AttendanceStatus
	LateDuration string
}

// MarkAttendance записывает итог занятия и увеличивает счётчик проведённых
// занятий учителя. Запись создаётся один раз и больше не меняется.
func (s *AttendanceService) MarkAttendance(ctx context.Context, in MarkAttendanceInput) (*model.Attendance, error) {
	booking, err := s.bookings.GetByID(ctx, in.BookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, model.ErrBookingNotFound
	}
	if booking.Status != model.BookingStatusBooked {
		return nil, model.ErrBookingCanceled
	}
	if in.TeacherID != 0 && in.TeacherID != booking.TeacherID {
		return nil, model.ErrNotBookingTeacher
	}
	if s.now().Before(booking.Start) {
		return nil, model.ErrSessionNotStarted
	}

	existing, err := s.attendance.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	// Уже отмеченное занятие отклоняется при любых входных данных
	if existing != nil {
		return nil, model.ErrAlreadyMarked
	}

	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidAttendanceStatus, in.Status)
	}

	lateDuration := strings.TrimSpace(in.LateDuration)
	if (in.Status == model.AttendanceLate) != (lateDuration != "") {
		return nil, model.ErrInvalidLateDuration
	}

	attendance := &model.Attendance{
		BookingID: booking.ID,
		StudentID: booking.StudentID,
		TeacherID: booking.TeacherID,
		Status:    in.Status,
	}
	if lateDuration != "" {
		attendance.LateDuration = &lateDuration
	}

	// Проверка выше не защищает от гонки, окончательно дубль отсекает
	// уникальный индекс по booking_id
	err = s.tx.WithAttendanceTx(ctx, func(tx repository.AttendanceTx) error {
		if err := tx.InsertAttendance(ctx, attendance); err != nil {
			return err
		}
		return tx.IncrementTeacherSessions(ctx, booking.TeacherID)
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("mark attendance: %w", err)
	}

	metrics.AttendanceMarked.WithLabelValues(string(attendance.Status)).Inc()

	s.logger.Info("Attendance marked",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("student_id", booking.StudentID),
		zap.Int64("teacher_id", booking.TeacherID),
		zap.String("status", string(attendance.Status)),
	)

	student, err := s.users.GetByID(ctx, booking.StudentID)
	if err != nil {
		s.logger.Warn("Failed to load student for notification", zap.Error(err))
	} else if student != nil {
		s.notifier.AttendanceMarked(ctx, attendance, student)
	}

	return attendance, nil
}
