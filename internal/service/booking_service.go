package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/metrics"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
	"github.com/Freeeeeet/school_scheduler/internal/schedule"
)

type BookingService struct {
	ledger    LedgerLocker
	users     UserReader
	templates TemplateReader
	bookings  BookingReader
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewBookingService(
	ledger LedgerLocker,
	users UserReader,
	templates TemplateReader,
	bookings BookingReader,
	notifier Notifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		ledger:    ledger,
		users:     users,
		templates: templates,
		bookings:  bookings,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateBookingInput запрос на бронирование конкретного занятия
type CreateBookingInput struct {
	StudentID int64
	TeacherID int64
	Start     time.Time
	End       time.Time
}

// CreateBooking бронирует занятие учителя для студента.
// Проверка квоты, занятости слота и вставка выполняются в одной транзакции
// под блокировкой плана студента: либо создаётся бронирование и
// увеличивается счётчик, либо не меняется ничего.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	booking, err := s.createBooking(ctx, in)
	if err != nil {
		metrics.BookingAttempts.WithLabelValues(model.ErrorCode(err)).Inc()
		return nil, err
	}
	metrics.BookingAttempts.WithLabelValues("created").Inc()
	return booking, nil
}

func (s *BookingService) createBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	key := model.NewSlotKey(in.TeacherID, in.Start, in.End)

	if !key.End.After(key.Start) {
		return nil, fmt.Errorf("%w: end must be after start", model.ErrInvalidTimeRange)
	}
	if key.Start.Before(s.now()) {
		return nil, model.ErrSlotInPast
	}

	student, err := s.users.GetByID(ctx, in.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, model.ErrStudentNotFound
	}

	teacher, err := s.requireTeacher(ctx, in.TeacherID)
	if err != nil {
		return nil, err
	}

	templates, err := s.templates.GetByTeacherID(ctx, in.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("get slot templates: %w", err)
	}

	occ, ok := schedule.Find(templates, key.Start, key.End)
	if !ok {
		return nil, model.ErrNotAnOccurrence
	}

	booking := &model.Booking{
		StudentID:  in.StudentID,
		TeacherID:  in.TeacherID,
		TemplateID: occ.TemplateID,
		Start:      key.Start,
		End:        key.End,
		Status:     model.BookingStatusBooked,
	}

	var sessionUsed int
	err = s.ledger.WithStudentLock(ctx, in.StudentID, func(tx repository.LedgerTx, plan *model.Plan) error {
		if plan == nil {
			return model.ErrNoActivePlan
		}
		if !plan.HasQuota() {
			return model.ErrQuotaExceeded
		}
		if plan.PaymentStatus == model.PaymentStatusPending {
			return model.ErrPaymentPending
		}
		if !plan.Covers(key.Start) {
			return model.ErrOutsidePlanWindow
		}

		booked, err := tx.SlotBooked(ctx, key.TeacherID, key.Start, key.End)
		if err != nil {
			return err
		}
		if booked {
			return model.ErrSlotAlreadyBooked
		}

		duplicate, err := tx.StudentBookedAt(ctx, in.StudentID, key.Start)
		if err != nil {
			return err
		}
		if duplicate {
			return model.ErrDuplicateBooking
		}

		// Пробный план: ровно одно бронирование за всё время
		if plan.IsFreeTrial() {
			count, err := tx.CountStudentBookings(ctx, in.StudentID)
			if err != nil {
				return err
			}
			if count > 0 {
				return model.ErrFreeTrialExhausted
			}
		}

		if err := tx.InsertBooking(ctx, booking); err != nil {
			return err
		}

		incremented, err := tx.IncrementSessionUsed(ctx, in.StudentID)
		if err != nil {
			return err
		}
		if !incremented {
			return model.ErrQuotaExceeded
		}

		sessionUsed = plan.SessionUsed + 1
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			s.logger.Info("Booking rejected",
				zap.Int64("student_id", in.StudentID),
				zap.Int64("teacher_id", in.TeacherID),
				zap.Time("start", key.Start),
				zap.String("reason", model.ErrorCode(err)),
			)
			return nil, err
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info("Slot booked",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("student_id", in.StudentID),
		zap.Int64("teacher_id", in.TeacherID),
		zap.Time("start", key.Start),
		zap.Time("end", key.End),
		zap.Int("session_used", sessionUsed),
	)

	s.notifier.BookingCreated(ctx, booking, teacher, student)

	return booking, nil
}

// GetByID получает бронирование по ID
func (s *BookingService) GetByID(ctx context.Context, bookingID int64) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, model.ErrBookingNotFound
	}
	return booking, nil
}

// GetStudentBookings получает все бронирования студента
func (s *BookingService) GetStudentBookings(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, model.ErrStudentNotFound
	}

	return s.bookings.GetByStudentID(ctx, studentID)
}

func (s *BookingService) requireTeacher(ctx context.Context, teacherID int64) (*model.User, error) {
	return requireTeacher(ctx, s.users, teacherID)
}

func requireTeacher(ctx context.Context, users UserReader, teacherID int64) (*model.User, error) {
	teacher, err := users.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil {
		return nil, model.ErrTeacherNotFound
	}
	if !teacher.IsTeacher {
		return nil, model.ErrNotATeacher
	}
	return teacher, nil
}

// isDomainError ошибка из доменного набора, а не сбой хранилища
func isDomainError(err error) bool {
	return model.ErrorCode(err) != "internal"
}
