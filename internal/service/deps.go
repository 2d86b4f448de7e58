package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
)

// UserReader поиск студентов и учителей
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TemplateReader шаблоны доступности учителя
type TemplateReader interface {
	GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.SlotTemplate, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Booking, error)
	GetByTeacherRange(ctx context.Context, teacherID int64, from, to time.Time) ([]*model.Booking, error)
}

type AttendanceReader interface {
	GetByBookingID(ctx context.Context, bookingID int64) (*model.Attendance, error)
	GetByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64]*model.Attendance, error)
}

type PlanStore interface {
	GetByStudentID(ctx context.Context, studentID int64) (*model.Plan, error)
	ListRenewalsDue(ctx context.Context, now time.Time, limit int) ([]*model.Plan, error)
	MarkRenewalNotified(ctx context.Context, studentID int64, at time.Time) error
}

// LedgerLocker критическая секция бронирования
type LedgerLocker interface {
	WithStudentLock(ctx context.Context, studentID int64, fn func(tx repository.LedgerTx, plan *model.Plan) error) error
}

// PlanLocker замена плана студента. Сериализуется с бронированиями того же студента.
type PlanLocker interface {
	WithPlanLock(ctx context.Context, studentID int64, fn func(tx repository.PlanTx, plan *model.Plan) error) error
}

// AttendanceLocker транзакция отметки посещаемости
type AttendanceLocker interface {
	WithAttendanceTx(ctx context.Context, fn func(tx repository.AttendanceTx) error) error
}

// Notifier уведомления участникам. Ошибки доставки не влияют на операции,
// реализация сама их логирует.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.Booking, teacher, student *model.User)
	AttendanceMarked(ctx context.Context, attendance *model.Attendance, student *model.User)
	RenewalDue(ctx context.Context, plan *model.Plan, student *model.User)
}
